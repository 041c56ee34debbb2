package debate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiterlabs/debate-orchestrator/internal/models"
)

func testSession(mode string, totalRounds int) *models.DebateSession {
	return &models.DebateSession{
		ID:          "session-1",
		Topic:       "Should the team adopt service meshes?",
		Mode:        mode,
		Status:      models.SessionStatusActive,
		TotalRounds: totalRounds,
	}
}

func newTestOrchestrator(t *testing.T, analyzer ConsensusAnalyzer, store SessionStore, observer RoundObserver) *Orchestrator {
	t.Helper()
	orch, err := NewOrchestrator(Config{
		Analyzer: analyzer,
		Store:    store,
		Retry:    fastRetry(0),
		Observer: observer,
	})
	require.NoError(t, err)
	return orch
}

func TestNewOrchestrator_RequiresAnalyzerAndStore(t *testing.T) {
	_, err := NewOrchestrator(Config{Store: &memoryStore{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consensus analyzer is required")

	_, err = NewOrchestrator(Config{Analyzer: fixedAnalyzer(0.5)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session store is required")
}

func TestRunDebate_ExecutesAllPlannedRounds(t *testing.T) {
	store := &memoryStore{}
	observer := &recordingObserver{}
	orch := newTestOrchestrator(t, fixedAnalyzer(0.5), store, observer)

	session := testSession("roundtable", 3)
	agents := []Agent{answeringAgent("a1", "one"), answeringAgent("a2", "two")}

	produced, err := orch.RunDebate(context.Background(), session, agents, nil, 3)

	require.NoError(t, err)
	require.Len(t, produced, 3)
	assert.Equal(t, 1, produced[0].Round)
	assert.Equal(t, 3, produced[2].Round)

	assert.Len(t, store.saved, 3)
	assert.Equal(t, 1, store.completedCalls)
	assert.Equal(t, 3, store.completedWith)
	assert.Equal(t, models.SessionStatusCompleted, session.Status)

	assert.Equal(t, []int{1, 2, 3}, observer.rounds)
	assert.Equal(t, models.SessionStatusCompleted, observer.finishStatus)
}

func TestRunDebate_DisabledExitCriteriaRunsFullCount(t *testing.T) {
	// High agreement throughout, but exit evaluation is off.
	store := &memoryStore{}
	orch := newTestOrchestrator(t, fixedAnalyzer(0.99), store, nil)

	session := testSession("panel", 3)
	session.ExitCriteria = models.ExitCriteria{
		Enabled:            false,
		ConsensusThreshold: 0.9,
		ConvergenceRounds:  1,
	}

	produced, err := orch.RunDebate(context.Background(), session, []Agent{answeringAgent("a1", "one")}, nil, 3)

	require.NoError(t, err)
	assert.Len(t, produced, 3)
}

func TestRunDebate_StopsEarlyOnConvergence(t *testing.T) {
	store := &memoryStore{}
	observer := &recordingObserver{}
	orch := newTestOrchestrator(t, fixedAnalyzer(0.95), store, observer)

	session := testSession("panel", 5)
	session.ExitCriteria = models.ExitCriteria{
		Enabled:            true,
		ConsensusThreshold: 0.9,
		ConvergenceRounds:  2,
	}

	produced, err := orch.RunDebate(context.Background(), session, []Agent{answeringAgent("a1", "one")}, nil, 5)

	require.NoError(t, err)
	// Two consecutive converged rounds satisfy the window after round 2
	assert.Len(t, produced, 2)
	assert.Equal(t, 2, session.CompletedRounds)
	assert.Equal(t, 1, store.completedCalls)
	assert.Equal(t, 2, store.completedWith)
	assert.Equal(t, models.SessionStatusCompleted, session.Status)
	assert.Equal(t, models.SessionStatusCompleted, observer.finishStatus)
}

func TestRunDebate_NeverEvaluatesExitOnFinalRound(t *testing.T) {
	analyzer := fixedAnalyzer(0.95)
	store := &memoryStore{}
	orch := newTestOrchestrator(t, analyzer, store, nil)

	session := testSession("panel", 2)
	session.ExitCriteria = models.ExitCriteria{
		Enabled:            true,
		ConsensusThreshold: 0.9,
		ConvergenceRounds:  2,
	}

	// Window would be satisfied exactly at the final planned round; the
	// debate still runs to its natural end without an early-exit record.
	produced, err := orch.RunDebate(context.Background(), session, []Agent{answeringAgent("a1", "one")}, nil, 2)

	require.NoError(t, err)
	assert.Len(t, produced, 2)
	assert.Equal(t, 2, session.CompletedRounds)
}

func TestRunDebate_ConvergenceCountsPriorHistory(t *testing.T) {
	store := &memoryStore{}
	orch := newTestOrchestrator(t, fixedAnalyzer(0.95), store, nil)

	session := testSession("panel", 5)
	session.CompletedRounds = 1
	session.ExitCriteria = models.ExitCriteria{
		Enabled:            true,
		ConsensusThreshold: 0.9,
		ConvergenceRounds:  2,
	}

	history := []models.RoundResult{roundWithScore(1, 0.95)}

	produced, err := orch.RunDebate(context.Background(), session, []Agent{answeringAgent("a1", "one")}, history, 4)

	require.NoError(t, err)
	// Round 2 extends the streak started by the restored round 1
	assert.Len(t, produced, 1)
	assert.Equal(t, 2, produced[0].Round)
	assert.Equal(t, 2, session.CompletedRounds)
}

func TestRunDebate_RoundNumbersContinueAfterHistory(t *testing.T) {
	store := &memoryStore{}
	orch := newTestOrchestrator(t, fixedAnalyzer(0.2), store, nil)

	session := testSession("roundtable", 4)
	session.CompletedRounds = 2

	agent := answeringAgent("a1", "one")
	history := []models.RoundResult{
		{Round: 1, Responses: []models.StructuredResponse{{AgentID: "a1"}}},
		{Round: 2, Responses: []models.StructuredResponse{{AgentID: "a1"}}},
	}

	produced, err := orch.RunDebate(context.Background(), session, []Agent{agent}, history, 2)

	require.NoError(t, err)
	require.Len(t, produced, 2)
	assert.Equal(t, 3, produced[0].Round)
	assert.Equal(t, 4, produced[1].Round)
	// The first new turn sees both historic responses
	assert.Equal(t, 2, agent.previousSeen[0])
}

func TestRunDebate_FatalRoundErrorFailsSession(t *testing.T) {
	store := &memoryStore{}
	observer := &recordingObserver{}

	orch, err := NewOrchestrator(Config{
		Analyzer:   fixedAnalyzer(0.5),
		Store:      store,
		Retry:      fastRetry(0),
		Observer:   observer,
		Strategies: map[string]Strategy{"panel": Strategy("bogus")},
	})
	require.NoError(t, err)

	session := testSession("panel", 3)
	produced, err := orch.RunDebate(context.Background(), session, []Agent{answeringAgent("a1", "one")}, nil, 3)

	require.Error(t, err)
	assert.Empty(t, produced)
	assert.Equal(t, models.SessionStatusError, session.Status)
	assert.Equal(t, 1, store.errorCalls)
	assert.Contains(t, store.errorCause, "unknown round strategy")
	assert.Equal(t, models.SessionStatusError, observer.finishStatus)
	assert.Equal(t, 0, store.completedCalls)
}

func TestRunDebate_PersistenceFailureFailsSession(t *testing.T) {
	store := &memoryStore{saveErr: fmt.Errorf("disk full")}
	orch := newTestOrchestrator(t, fixedAnalyzer(0.5), store, nil)

	session := testSession("roundtable", 3)
	produced, err := orch.RunDebate(context.Background(), session, []Agent{answeringAgent("a1", "one")}, nil, 3)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist round 1")
	// The round itself completed before persistence failed
	assert.Len(t, produced, 1)
	assert.Equal(t, models.SessionStatusError, session.Status)
	assert.Equal(t, 1, store.errorCalls)
}

func TestRunDebate_InvalidRoundCount(t *testing.T) {
	orch := newTestOrchestrator(t, fixedAnalyzer(0.5), &memoryStore{}, nil)

	_, err := orch.RunDebate(context.Background(), testSession("panel", 0), nil, nil, 0)
	require.Error(t, err)
}

func TestRunDebate_InvalidExitCriteriaRejectedUpFront(t *testing.T) {
	store := &memoryStore{}
	orch := newTestOrchestrator(t, fixedAnalyzer(0.5), store, nil)

	session := testSession("panel", 3)
	session.ExitCriteria = models.ExitCriteria{Enabled: true, ConsensusThreshold: 0.9}

	_, err := orch.RunDebate(context.Background(), session, []Agent{answeringAgent("a1", "one")}, nil, 3)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exit criteria")
	// Nothing ran, nothing was persisted
	assert.Empty(t, store.saved)
	assert.Equal(t, 0, store.errorCalls)
}

func TestRunDebate_UnknownModeFallsBackToSequential(t *testing.T) {
	store := &memoryStore{}
	orch := newTestOrchestrator(t, fixedAnalyzer(0.5), store, nil)

	a1 := answeringAgent("a1", "one")
	a2 := answeringAgent("a2", "two")

	session := testSession("freestyle", 1)
	produced, err := orch.RunDebate(context.Background(), session, []Agent{a1, a2}, nil, 1)

	require.NoError(t, err)
	require.Len(t, produced, 1)
	// Sequential fallback: the second agent saw the first's response
	assert.Equal(t, []int{0}, a1.previousSeen)
	assert.Equal(t, []int{1}, a2.previousSeen)
}

func TestDefaultStrategies_ModeBindings(t *testing.T) {
	strategies := DefaultStrategies()

	assert.Equal(t, StrategyParallel, strategies["panel"])
	assert.Equal(t, StrategySequential, strategies["roundtable"])
	assert.Equal(t, StrategyLastWord, strategies["closing_argument"])
	assert.Equal(t, StrategySequential, strategies["adversarial"])
}
