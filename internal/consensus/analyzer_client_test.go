package consensus

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiterlabs/debate-orchestrator/internal/debate"
	"github.com/arbiterlabs/debate-orchestrator/internal/models"
)

func TestAnalyzerClient_AnalyzeSendsRoundContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/consensus/analyze", r.URL.Path)

		var req analyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Should the team adopt service meshes?", req.Topic)
		assert.Equal(t, 3, req.Round)
		assert.Equal(t, "panel", req.Mode)
		assert.Equal(t, "What about cost?", req.FocusQuestion)
		require.Len(t, req.Responses, 2)
		assert.Equal(t, "a1", req.Responses[0].AgentID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.ConsensusMeasurement{
			AgreementLevel: 0.82,
			Summary:        "Broad agreement on adoption",
			Disagreements:  []string{"rollout timeline"},
		})
	}))
	defer server.Close()

	client := NewAnalyzerClient()
	client.SetBaseURL(server.URL)

	responses := []models.StructuredResponse{
		{AgentID: "a1", Position: "adopt"},
		{AgentID: "a2", Position: "adopt carefully"},
	}
	measurement, err := client.Analyze(context.Background(), responses, "Should the team adopt service meshes?", debate.AnalyzeOptions{
		Round:         3,
		Mode:          "panel",
		FocusQuestion: "What about cost?",
	})

	require.NoError(t, err)
	assert.Equal(t, 0.82, measurement.AgreementLevel)
	assert.Equal(t, "Broad agreement on adoption", measurement.Summary)
	assert.Equal(t, []string{"rollout timeline"}, measurement.Disagreements)
}

func TestAnalyzerClient_ErrorIsNotClassifiedForRetry(t *testing.T) {
	// Consensus analysis is best-effort; its failures degrade to a nil
	// measurement upstream instead of feeding the retry policy.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "analyzer overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewAnalyzerClient()
	client.SetBaseURL(server.URL)

	_, err := client.Analyze(context.Background(), nil, "topic", debate.AnalyzeOptions{Round: 1})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to analyze consensus")
	assert.Contains(t, err.Error(), "status 503")

	var callErr *debate.CallError
	assert.False(t, errors.As(err, &callErr))
}

func TestAnalyzerClient_IsHealthy(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected bool
	}{
		{name: "healthy_service", status: http.StatusOK, expected: true},
		{name: "unhealthy_service", status: http.StatusInternalServerError, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/health", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewAnalyzerClient()
			client.SetBaseURL(server.URL)

			assert.Equal(t, tt.expected, client.IsHealthy(context.Background()))
		})
	}
}
