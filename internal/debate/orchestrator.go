package debate

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/arbiterlabs/debate-orchestrator/internal/metrics"
	"github.com/arbiterlabs/debate-orchestrator/internal/models"
)

// SessionStore persists round results and session status transitions. The
// orchestrator writes after each round and after a fatal failure; it never
// reads mid-round.
type SessionStore interface {
	SaveRound(ctx context.Context, sessionID string, result *models.RoundResult) error
	MarkCompleted(ctx context.Context, sessionID string, completedRounds int) error
	MarkError(ctx context.Context, sessionID string, cause string) error
}

// RoundObserver receives live progress notifications. Implementations must
// not block; the orchestrator calls them inline between rounds.
type RoundObserver interface {
	RoundCompleted(sessionID string, result *models.RoundResult)
	DebateFinished(sessionID string, status models.SessionStatus, reason string)
}

// Config wires an Orchestrator. Analyzer and Store are required; a nil
// Capabilities executor is allowed for tool-less debates, and a nil Observer
// disables streaming.
type Config struct {
	Capabilities CapabilityExecutor
	Analyzer     ConsensusAnalyzer
	Store        SessionStore
	Strategies   map[string]Strategy
	Retry        RetryConfig
	Metrics      *metrics.DebateMetrics
	Observer     RoundObserver
}

// Orchestrator drives a debate for a requested number of rounds, feeding
// each round result to the convergence evaluator and stopping early when it
// signals exit.
type Orchestrator struct {
	executor   *RoundExecutor
	store      SessionStore
	strategies map[string]Strategy
	metrics    *metrics.DebateMetrics
	observer   RoundObserver
	tracer     trace.Tracer
}

// DefaultStrategies maps the built-in debate modes to their execution
// strategies. Modes not present fall back to sequential round-robin.
func DefaultStrategies() map[string]Strategy {
	return map[string]Strategy{
		"panel":            StrategyParallel,
		"roundtable":       StrategySequential,
		"closing_argument": StrategyLastWord,
		"adversarial":      StrategySequential,
	}
}

// NewOrchestrator validates required collaborators and assembles the engine.
// A missing consensus analyzer or session store is a configuration error
// surfaced here, not at call time.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Analyzer == nil {
		return nil, fmt.Errorf("consensus analyzer is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}

	retryCfg := cfg.Retry
	if retryCfg.BaseDelay == 0 && retryCfg.MaxRetries == 0 {
		retryCfg = DefaultRetryConfig()
	}

	strategies := cfg.Strategies
	if strategies == nil {
		strategies = DefaultStrategies()
	}

	loop := NewToolCallLoop(cfg.Capabilities, retryCfg, cfg.Metrics)

	return &Orchestrator{
		executor:   NewRoundExecutor(loop, cfg.Analyzer, cfg.Metrics),
		store:      cfg.Store,
		strategies: strategies,
		metrics:    cfg.Metrics,
		observer:   cfg.Observer,
		tracer:     otel.Tracer("debate-orchestrator"),
	}, nil
}

// RunDebate executes up to rounds additional rounds for the session,
// starting after session.CompletedRounds. history is the session's prior
// round history; it is extended in memory as rounds complete so later rounds
// see earlier responses. The returned slice holds only the rounds produced
// by this invocation, in order.
//
// Fatal round errors are not absorbed: the session is marked as errored and
// the failure propagates to the caller with the rounds produced so far.
func (o *Orchestrator) RunDebate(ctx context.Context, session *models.DebateSession, agents []Agent, history []models.RoundResult, rounds int) ([]models.RoundResult, error) {
	if rounds < 1 {
		return nil, fmt.Errorf("rounds must be >= 1, got %d", rounds)
	}

	var evaluator *ConvergenceEvaluator
	if session.ExitCriteria.Enabled {
		var err error
		evaluator, err = NewConvergenceEvaluator(session.ExitCriteria)
		if err != nil {
			return nil, fmt.Errorf("invalid exit criteria: %w", err)
		}
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.run_debate")
	defer span.End()
	span.SetAttributes(
		attribute.String("session_id", session.ID),
		attribute.String("debate.mode", session.Mode),
		attribute.Int("debate.requested_rounds", rounds),
	)

	if o.metrics != nil {
		o.metrics.RecordDebateStarted(ctx, session.ID, session.Mode)
		defer o.metrics.RecordDebateFinished(ctx, session.ID, session.Mode)
	}

	start := session.CompletedRounds
	strategy := o.strategyFor(session.Mode)
	produced := make([]models.RoundResult, 0, rounds)

	for i := 1; i <= rounds; i++ {
		roundNum := start + i

		dc := models.DebateContext{
			SessionID:       session.ID,
			Topic:           session.Topic,
			Mode:            session.Mode,
			Round:           roundNum,
			TotalRounds:     start + rounds,
			FocusQuestion:   session.FocusQuestion,
			AssignedStances: session.AssignedStances,
		}
		dc = dc.WithPreviousResponses(flattenResponses(history))

		result, err := o.executor.ExecuteRound(ctx, agents, dc, strategy)
		if err != nil {
			o.failSession(ctx, session, err)
			return produced, err
		}

		history = append(history, *result)
		produced = append(produced, *result)
		session.CompletedRounds = roundNum

		if err := o.store.SaveRound(ctx, session.ID, result); err != nil {
			err = fmt.Errorf("failed to persist round %d: %w", roundNum, err)
			o.failSession(ctx, session, err)
			return produced, err
		}

		if o.observer != nil {
			o.observer.RoundCompleted(session.ID, result)
		}

		if evaluator != nil && i < rounds {
			decision := evaluator.Evaluate(history)
			if decision.ShouldExit {
				log.Printf(`{"level":"info","message":"Debate converged, stopping early","session_id":"%s","round":%d,"reason":"%s","window":%d}`,
					session.ID, roundNum, decision.Reason, decision.Window)
				span.SetAttributes(attribute.String("debate.exit_reason", decision.Reason))
				if o.metrics != nil {
					o.metrics.RecordEarlyExit(ctx, session.Mode, decision.Reason)
				}
				break
			}
		}
	}

	if err := o.store.MarkCompleted(ctx, session.ID, session.CompletedRounds); err != nil {
		err = fmt.Errorf("failed to mark session completed: %w", err)
		o.failSession(ctx, session, err)
		return produced, err
	}
	session.Status = models.SessionStatusCompleted

	if o.observer != nil {
		o.observer.DebateFinished(session.ID, models.SessionStatusCompleted, "")
	}

	return produced, nil
}

// strategyFor resolves the execution strategy for a mode, falling back to
// sequential round-robin for modes without an entry.
func (o *Orchestrator) strategyFor(mode string) Strategy {
	if strategy, ok := o.strategies[mode]; ok {
		return strategy
	}
	log.Printf(`{"level":"warn","message":"No strategy registered for mode, falling back to sequential round-robin","mode":"%s"}`, mode)
	return StrategySequential
}

// failSession records the error transition; the session is left in its
// last-known-good round state.
func (o *Orchestrator) failSession(ctx context.Context, session *models.DebateSession, cause error) {
	session.Status = models.SessionStatusError

	if err := o.store.MarkError(ctx, session.ID, cause.Error()); err != nil {
		log.Printf(`{"level":"error","message":"Failed to mark session as errored","session_id":"%s","error":"%v"}`,
			session.ID, err)
	}
	if o.observer != nil {
		o.observer.DebateFinished(session.ID, models.SessionStatusError, cause.Error())
	}
}

// flattenResponses collapses round history into the ordered response
// sequence handed to agents as previousResponses.
func flattenResponses(history []models.RoundResult) []models.StructuredResponse {
	total := 0
	for _, round := range history {
		total += len(round.Responses)
	}
	flat := make([]models.StructuredResponse, 0, total)
	for _, round := range history {
		flat = append(flat, round.Responses...)
	}
	return flat
}
