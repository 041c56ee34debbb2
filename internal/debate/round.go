package debate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/arbiterlabs/debate-orchestrator/internal/metrics"
	"github.com/arbiterlabs/debate-orchestrator/internal/models"
)

// Strategy selects how the agents of one round are scheduled.
type Strategy string

const (
	// StrategyParallel invokes all agents concurrently; agents see only
	// prior-round history.
	StrategyParallel Strategy = "parallel"
	// StrategySequential invokes agents one at a time; each later agent sees
	// the responses already produced earlier in the same round.
	StrategySequential Strategy = "sequential"
	// StrategyLastWord runs all agents but the last in parallel, then the
	// last agent with the others' responses visible.
	StrategyLastWord Strategy = "last_word"
)

// AnalyzeOptions carries round metadata to the consensus analyzer.
type AnalyzeOptions struct {
	Round         int
	Mode          string
	FocusQuestion string
}

// ConsensusAnalyzer measures agreement across the responses of one round.
// It is a required collaborator; its absence is a configuration error caught
// at orchestrator construction.
type ConsensusAnalyzer interface {
	Analyze(ctx context.Context, responses []models.StructuredResponse, topic string, opts AnalyzeOptions) (*models.ConsensusMeasurement, error)
}

// RoundExecutor produces one RoundResult from a set of agents under an
// execution strategy. Individual agent failures never abort a round; a round
// with zero successful responses is valid and simply empty.
type RoundExecutor struct {
	loop      *ToolCallLoop
	analyzer  ConsensusAnalyzer
	baseChain ValidatorChain
	metrics   *metrics.DebateMetrics
	tracer    trace.Tracer
}

// NewRoundExecutor creates a round executor using the default validator chain.
func NewRoundExecutor(loop *ToolCallLoop, analyzer ConsensusAnalyzer, dm *metrics.DebateMetrics) *RoundExecutor {
	return &RoundExecutor{
		loop:      loop,
		analyzer:  analyzer,
		baseChain: DefaultValidatorChain(),
		metrics:   dm,
		tracer:    otel.Tracer("round-executor"),
	}
}

// ExecuteRound invokes every agent for the current round and assembles the
// round result, including its consensus measurement. The response list
// preserves the input agent order regardless of completion order, so
// downstream consumers see a deterministic order independent of network
// timing. It returns an error only for fatal, non-agent-specific failures.
func (e *RoundExecutor) ExecuteRound(ctx context.Context, agents []Agent, dc models.DebateContext, strategy Strategy) (*models.RoundResult, error) {
	ctx, span := e.tracer.Start(ctx, "round_executor.execute_round")
	defer span.End()

	span.SetAttributes(
		attribute.Int("debate.round", dc.Round),
		attribute.String("round.strategy", string(strategy)),
		attribute.Int("round.agents", len(agents)),
	)

	start := time.Now()

	var responses []models.StructuredResponse
	var err error

	switch strategy {
	case StrategyParallel:
		responses, err = e.executeParallel(ctx, agents, dc)
	case StrategySequential:
		responses, err = e.executeSequential(ctx, agents, dc)
	case StrategyLastWord:
		responses, err = e.executeLastWord(ctx, agents, dc)
	default:
		err = fmt.Errorf("unknown round strategy: %s", strategy)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result := &models.RoundResult{
		Round:     dc.Round,
		Responses: responses,
		Consensus: e.measureConsensus(ctx, responses, dc),
	}

	if e.metrics != nil {
		e.metrics.RecordRoundExecuted(ctx, dc.Mode, string(strategy), dc.Round, time.Since(start))
	}
	span.SetAttributes(attribute.Int("round.responses", len(responses)))

	return result, nil
}

// executeParallel runs all agents concurrently. Siblings always run to
// completion; a failing agent is excluded from the result rather than
// aborting the round.
func (e *RoundExecutor) executeParallel(ctx context.Context, agents []Agent, dc models.DebateContext) ([]models.StructuredResponse, error) {
	slots := make([]*models.StructuredResponse, len(agents))

	var wg sync.WaitGroup
	for i, agent := range agents {
		wg.Add(1)
		go func(i int, agent Agent) {
			defer wg.Done()
			resp, err := e.runTurn(ctx, agent, dc)
			if err != nil {
				return
			}
			slots[i] = resp
		}(i, agent)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	responses := make([]models.StructuredResponse, 0, len(agents))
	for _, resp := range slots {
		if resp != nil {
			responses = append(responses, *resp)
		}
	}
	return responses, nil
}

// executeSequential runs agents in order; agent k+1 is never invoked before
// agent k's validated response exists, and sees it in previousResponses.
func (e *RoundExecutor) executeSequential(ctx context.Context, agents []Agent, dc models.DebateContext) ([]models.StructuredResponse, error) {
	responses := make([]models.StructuredResponse, 0, len(agents))

	for _, agent := range agents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		visible := make([]models.StructuredResponse, 0, len(dc.PreviousResponses)+len(responses))
		visible = append(visible, dc.PreviousResponses...)
		visible = append(visible, responses...)

		resp, err := e.runTurn(ctx, agent, dc.WithPreviousResponses(visible))
		if err != nil {
			continue
		}
		responses = append(responses, *resp)
	}

	return responses, nil
}

// executeLastWord runs all agents but the last in parallel, then gives the
// last agent the final word with the others' responses visible.
func (e *RoundExecutor) executeLastWord(ctx context.Context, agents []Agent, dc models.DebateContext) ([]models.StructuredResponse, error) {
	if len(agents) < 2 {
		return e.executeSequential(ctx, agents, dc)
	}

	responses, err := e.executeParallel(ctx, agents[:len(agents)-1], dc)
	if err != nil {
		return nil, err
	}

	last := agents[len(agents)-1]
	visible := make([]models.StructuredResponse, 0, len(dc.PreviousResponses)+len(responses))
	visible = append(visible, dc.PreviousResponses...)
	visible = append(visible, responses...)

	resp, err := e.runTurn(ctx, last, dc.WithPreviousResponses(visible))
	if err != nil {
		if fatal := ctx.Err(); fatal != nil {
			return nil, fatal
		}
		return responses, nil
	}
	return append(responses, *resp), nil
}

// runTurn drives one agent through the tool-call loop and the validator
// chain, emitting one metric/log event per completion or failure.
func (e *RoundExecutor) runTurn(ctx context.Context, agent Agent, dc models.DebateContext) (*models.StructuredResponse, error) {
	resp, err := e.loop.Run(ctx, agent, dc)
	if err != nil {
		log.Printf(`{"level":"warn","message":"Agent turn failed, excluding from round","agent_id":"%s","session_id":"%s","round":%d,"error":"%v"}`,
			agent.ID(), dc.SessionID, dc.Round, err)
		if e.metrics != nil {
			e.metrics.RecordTurnFailed(ctx, agent.ID(), dc.Mode, errorKind(err))
		}
		return nil, err
	}

	validated := e.chainFor(agent, dc).Apply(*resp)
	if validated.RoleViolation != nil {
		log.Printf(`{"level":"warn","message":"Role violation detected","agent_id":"%s","expected":"%s","actual":"%s"}`,
			agent.ID(), validated.RoleViolation.Expected, validated.RoleViolation.Actual)
	}

	if e.metrics != nil {
		e.metrics.RecordTurnCompleted(ctx, agent.ID(), dc.Mode)
	}
	return &validated, nil
}

// chainFor appends a stance check for modes that assign a fixed stance to
// the participant.
func (e *RoundExecutor) chainFor(agent Agent, dc models.DebateContext) ValidatorChain {
	if expected, ok := dc.AssignedStances[agent.ID()]; ok {
		return e.baseChain.With(StanceValidator{Expected: expected})
	}
	return e.baseChain
}

// measureConsensus asks the analyzer for the round's agreement measurement.
// An empty round or a failed analysis yields a nil measurement; analysis
// failures degrade the round rather than failing it.
func (e *RoundExecutor) measureConsensus(ctx context.Context, responses []models.StructuredResponse, dc models.DebateContext) *models.ConsensusMeasurement {
	if len(responses) == 0 {
		return nil
	}

	measurement, err := e.analyzer.Analyze(ctx, responses, dc.Topic, AnalyzeOptions{
		Round:         dc.Round,
		Mode:          dc.Mode,
		FocusQuestion: dc.FocusQuestion,
	})
	if err != nil {
		log.Printf(`{"level":"warn","message":"Consensus analysis failed for round","session_id":"%s","round":%d,"error":"%v"}`,
			dc.SessionID, dc.Round, err)
		return nil
	}
	return measurement
}

// errorKind extracts the classification tag for metrics attributes.
func errorKind(err error) string {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return string(callErr.Kind)
	}
	return string(ErrKindOther)
}
