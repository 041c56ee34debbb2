package metrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebateMetrics_Creation(t *testing.T) {
	t.Run("successfully create debate metrics", func(t *testing.T) {
		metrics, err := NewDebateMetrics()
		require.NoError(t, err)
		assert.NotNil(t, metrics)
		assert.NotNil(t, metrics.roundsExecutedCounter)
		assert.NotNil(t, metrics.turnsCompletedCounter)
		assert.NotNil(t, metrics.turnsFailedCounter)
		assert.NotNil(t, metrics.toolCallsCounter)
		assert.NotNil(t, metrics.earlyExitsCounter)
		assert.NotNil(t, metrics.roundDurationHistogram)
		assert.NotNil(t, metrics.debatesActiveGauge)
	})
}

func TestDebateMetrics_RecordRoundExecuted(t *testing.T) {
	metrics, err := NewDebateMetrics()
	require.NoError(t, err)

	t.Run("record round with duration", func(t *testing.T) {
		ctx := context.Background()

		assert.NotPanics(t, func() {
			metrics.RecordRoundExecuted(ctx, "panel", "parallel", 1, 2*time.Second)
		})
	})

	t.Run("record rounds with various durations", func(t *testing.T) {
		ctx := context.Background()
		durations := []time.Duration{
			100 * time.Millisecond,
			1 * time.Second,
			30 * time.Second,
		}

		for i, duration := range durations {
			metrics.RecordRoundExecuted(ctx, "roundtable", "sequential", i+1, duration)
		}
	})
}

func TestDebateMetrics_RecordTurnOutcomes(t *testing.T) {
	metrics, err := NewDebateMetrics()
	require.NoError(t, err)

	t.Run("record completed turn", func(t *testing.T) {
		ctx := context.Background()

		assert.NotPanics(t, func() {
			metrics.RecordTurnCompleted(ctx, "agent-1", "panel")
		})
	})

	t.Run("record failed turns with error kinds", func(t *testing.T) {
		ctx := context.Background()
		errorKinds := []string{
			"rate_limited",
			"timeout",
			"network",
			"auth",
		}

		for i, kind := range errorKinds {
			agentID := fmt.Sprintf("agent-%d", i)
			metrics.RecordTurnFailed(ctx, agentID, "adversarial", kind)
		}
	})
}

func TestDebateMetrics_RecordToolCall(t *testing.T) {
	metrics, err := NewDebateMetrics()
	require.NoError(t, err)

	t.Run("record successful and failed tool calls", func(t *testing.T) {
		ctx := context.Background()

		assert.NotPanics(t, func() {
			metrics.RecordToolCall(ctx, "agent-1", "search", false)
			metrics.RecordToolCall(ctx, "agent-1", "fact_check", true)
		})
	})
}

func TestDebateMetrics_ActiveDebatesGauge(t *testing.T) {
	metrics, err := NewDebateMetrics()
	require.NoError(t, err)

	t.Run("active debates counter increments and decrements", func(t *testing.T) {
		ctx := context.Background()

		// Start debate (increments active gauge)
		metrics.RecordDebateStarted(ctx, "session-1", "panel")

		// Finish debate (decrements active gauge)
		metrics.RecordDebateFinished(ctx, "session-1", "panel")
	})

	t.Run("early exit recording", func(t *testing.T) {
		ctx := context.Background()

		assert.NotPanics(t, func() {
			metrics.RecordEarlyExit(ctx, "panel", "consensus-converged")
		})
	})
}

func TestDebateMetrics_ConcurrentRecording(t *testing.T) {
	metrics, err := NewDebateMetrics()
	require.NoError(t, err)

	t.Run("handle concurrent metric recording", func(t *testing.T) {
		ctx := context.Background()
		done := make(chan bool)

		// Simulate a parallel round recording turn outcomes concurrently
		for i := 0; i < 10; i++ {
			go func(id int) {
				agentID := fmt.Sprintf("concurrent-agent-%d", id)

				if id%2 == 0 {
					metrics.RecordTurnCompleted(ctx, agentID, "panel")
				} else {
					metrics.RecordTurnFailed(ctx, agentID, "panel", "timeout")
				}
				metrics.RecordToolCall(ctx, agentID, "search", id%3 == 0)

				done <- true
			}(i)
		}

		// Wait for all goroutines
		for i := 0; i < 10; i++ {
			<-done
		}
	})
}
