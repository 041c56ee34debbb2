package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("debate-metrics")

// DebateMetrics provides metrics collection for debate execution
type DebateMetrics struct {
	roundsExecutedCounter  metric.Int64Counter
	turnsCompletedCounter  metric.Int64Counter
	turnsFailedCounter     metric.Int64Counter
	toolCallsCounter       metric.Int64Counter
	earlyExitsCounter      metric.Int64Counter
	roundDurationHistogram metric.Float64Histogram
	debatesActiveGauge     metric.Int64UpDownCounter
}

// NewDebateMetrics creates a new debate metrics collector
func NewDebateMetrics() (*DebateMetrics, error) {
	roundsExecutedCounter, err := meter.Int64Counter(
		"debate_orchestrator.rounds.executed",
		metric.WithDescription("Total number of debate rounds executed"),
		metric.WithUnit("{round}"),
	)
	if err != nil {
		return nil, err
	}

	turnsCompletedCounter, err := meter.Int64Counter(
		"debate_orchestrator.turns.completed",
		metric.WithDescription("Total number of agent turns completed successfully"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, err
	}

	turnsFailedCounter, err := meter.Int64Counter(
		"debate_orchestrator.turns.failed",
		metric.WithDescription("Total number of agent turns that failed"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, err
	}

	toolCallsCounter, err := meter.Int64Counter(
		"debate_orchestrator.tool_calls.executed",
		metric.WithDescription("Total number of capability calls executed during agent turns"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	earlyExitsCounter, err := meter.Int64Counter(
		"debate_orchestrator.debates.early_exits",
		metric.WithDescription("Total number of debates terminated early on convergence"),
		metric.WithUnit("{debate}"),
	)
	if err != nil {
		return nil, err
	}

	roundDurationHistogram, err := meter.Float64Histogram(
		"debate_orchestrator.round.duration",
		metric.WithDescription("Duration of round execution in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	debatesActiveGauge, err := meter.Int64UpDownCounter(
		"debate_orchestrator.debates.active",
		metric.WithDescription("Number of currently running debates"),
		metric.WithUnit("{debate}"),
	)
	if err != nil {
		return nil, err
	}

	return &DebateMetrics{
		roundsExecutedCounter:  roundsExecutedCounter,
		turnsCompletedCounter:  turnsCompletedCounter,
		turnsFailedCounter:     turnsFailedCounter,
		toolCallsCounter:       toolCallsCounter,
		earlyExitsCounter:      earlyExitsCounter,
		roundDurationHistogram: roundDurationHistogram,
		debatesActiveGauge:     debatesActiveGauge,
	}, nil
}

// RecordDebateStarted records the start of a debate run
func (dm *DebateMetrics) RecordDebateStarted(ctx context.Context, sessionID, mode string) {
	dm.debatesActiveGauge.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("debate.mode", mode),
		),
	)
}

// RecordDebateFinished records the end of a debate run, however it ended
func (dm *DebateMetrics) RecordDebateFinished(ctx context.Context, sessionID, mode string) {
	dm.debatesActiveGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("debate.mode", mode),
		),
	)
}

// RecordRoundExecuted records a completed round with its duration
func (dm *DebateMetrics) RecordRoundExecuted(ctx context.Context, mode, strategy string, round int, duration time.Duration) {
	dm.roundsExecutedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("debate.mode", mode),
			attribute.String("round.strategy", strategy),
		),
	)
	dm.roundDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("debate.mode", mode),
			attribute.String("round.strategy", strategy),
		),
	)
}

// RecordTurnCompleted records a successful agent turn
func (dm *DebateMetrics) RecordTurnCompleted(ctx context.Context, agentID, mode string) {
	dm.turnsCompletedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent.id", agentID),
			attribute.String("debate.mode", mode),
		),
	)
}

// RecordTurnFailed records a failed agent turn
func (dm *DebateMetrics) RecordTurnFailed(ctx context.Context, agentID, mode, errorKind string) {
	dm.turnsFailedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent.id", agentID),
			attribute.String("debate.mode", mode),
			attribute.String("error.kind", errorKind),
		),
	)
}

// RecordToolCall records one capability invocation inside an agent turn
func (dm *DebateMetrics) RecordToolCall(ctx context.Context, agentID, toolName string, failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	dm.toolCallsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent.id", agentID),
			attribute.String("tool.name", toolName),
			attribute.String("status", status),
		),
	)
}

// RecordEarlyExit records a debate that stopped before its round budget
func (dm *DebateMetrics) RecordEarlyExit(ctx context.Context, mode, reason string) {
	dm.earlyExitsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("debate.mode", mode),
			attribute.String("exit.reason", reason),
		),
	)
}
