package agent

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

func testDebateContext() models.DebateContext {
	return models.DebateContext{
		SessionID:   "session-1",
		Topic:       "Should the team adopt service meshes?",
		Mode:        "panel",
		Round:       2,
		TotalRounds: 3,
	}
}

func TestRuntimeClient_InvokeMapsReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/agents/advocate/invoke", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req invokeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "session-1", req.Context.SessionID)
		assert.Equal(t, 2, req.Context.Round)
		assert.Empty(t, req.ToolResults)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(invokeResponse{
			Stance:     "affirmative",
			Position:   "Adopt it",
			Reasoning:  "Operational wins",
			Confidence: 0.85,
			ToolCalls: []toolCallPayload{
				{Name: "search", Input: map[string]interface{}{"query": "meshes"}},
			},
			Citations: []models.Citation{{Title: "Survey", URL: "https://example.com"}},
		})
	}))
	defer server.Close()

	client := NewRuntimeClient()
	client.SetBaseURL(server.URL)

	participant := NewParticipant(client, "advocate", "The Advocate")
	reply, err := participant.Invoke(context.Background(), testDebateContext())

	require.NoError(t, err)
	assert.Equal(t, models.StanceAffirmative, reply.Stance)
	assert.Equal(t, "Adopt it", reply.Position)
	assert.Equal(t, 0.85, reply.Confidence)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "search", reply.ToolCalls[0].Name)
	require.Len(t, reply.Citations, 1)
	assert.Equal(t, "https://example.com", reply.Citations[0].URL)
}

func TestRuntimeClient_ResumeCarriesToolResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req invokeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.ToolResults, 1)
		assert.Equal(t, "search", req.ToolResults[0].ToolName)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(invokeResponse{Position: "Adopt it", Confidence: 0.8})
	}))
	defer server.Close()

	client := NewRuntimeClient()
	client.SetBaseURL(server.URL)

	participant := NewParticipant(client, "advocate", "The Advocate")
	reply, err := participant.Resume(context.Background(), testDebateContext(), []models.ToolInvocationRecord{
		{ToolName: "search", Output: map[string]interface{}{"result": "found"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "Adopt it", reply.Position)
}

func TestRuntimeClient_StatusClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		expectedKind  debate.ErrorKind
		expectedRetry bool
	}{
		{name: "rate_limited", status: http.StatusTooManyRequests, expectedKind: debate.ErrKindRateLimited, expectedRetry: true},
		{name: "unauthorized", status: http.StatusUnauthorized, expectedKind: debate.ErrKindAuth, expectedRetry: false},
		{name: "forbidden", status: http.StatusForbidden, expectedKind: debate.ErrKindAuth, expectedRetry: false},
		{name: "request_timeout", status: http.StatusRequestTimeout, expectedKind: debate.ErrKindTimeout, expectedRetry: true},
		{name: "gateway_timeout", status: http.StatusGatewayTimeout, expectedKind: debate.ErrKindTimeout, expectedRetry: true},
		{name: "server_error", status: http.StatusInternalServerError, expectedKind: debate.ErrKindNetwork, expectedRetry: true},
		{name: "bad_request", status: http.StatusBadRequest, expectedKind: debate.ErrKindBadRequest, expectedRetry: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream unhappy", tt.status)
			}))
			defer server.Close()

			client := NewRuntimeClient()
			client.SetBaseURL(server.URL)

			participant := NewParticipant(client, "advocate", "The Advocate")
			_, err := participant.Invoke(context.Background(), testDebateContext())

			require.Error(t, err)
			var callErr *debate.CallError
			require.True(t, errors.As(err, &callErr))
			assert.Equal(t, tt.expectedKind, callErr.Kind)
			assert.Equal(t, tt.expectedRetry, callErr.Retryable)
		})
	}
}

func TestRuntimeClient_TransportErrorIsClassified(t *testing.T) {
	client := NewRuntimeClient()
	// Nothing is listening here
	client.SetBaseURL("http://127.0.0.1:1")

	participant := NewParticipant(client, "advocate", "The Advocate")
	_, err := participant.Invoke(context.Background(), testDebateContext())

	require.Error(t, err)
	var callErr *debate.CallError
	require.True(t, errors.As(err, &callErr))
	assert.Contains(t, []debate.ErrorKind{debate.ErrKindNetwork, debate.ErrKindTimeout}, callErr.Kind)
	assert.True(t, callErr.Retryable)
}

func TestRuntimeClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/agents/advocate/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Summarize the debate", req.Prompt)
		assert.Equal(t, "You are a neutral moderator", req.SystemPrompt)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generateResponse{Text: "The panel leans toward adoption."})
	}))
	defer server.Close()

	client := NewRuntimeClient()
	client.SetBaseURL(server.URL)

	participant := NewParticipant(client, "advocate", "The Advocate")
	text, err := participant.InvokeRaw(context.Background(), "Summarize the debate", "You are a neutral moderator")

	require.NoError(t, err)
	assert.Equal(t, "The panel leans toward adoption.", text)
}

func TestRuntimeClient_IsHealthy(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected bool
	}{
		{name: "healthy_service", status: http.StatusOK, expected: true},
		{name: "unhealthy_service", status: http.StatusServiceUnavailable, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/health", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewRuntimeClient()
			client.SetBaseURL(server.URL)

			assert.Equal(t, tt.expected, client.IsHealthy(context.Background()))
		})
	}
}
