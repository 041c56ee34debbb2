// Package agent contains the HTTP adapters that bind debate participants and
// capability execution to the downstream agent-runtime service. The
// orchestration core depends only on the interfaces in internal/debate; this
// package provides the concrete implementations.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/arbiterlabs/debate-orchestrator/internal/debate"
	"github.com/arbiterlabs/debate-orchestrator/internal/models"
)

// RuntimeClient handles communication with the agent-runtime service that
// hosts the provider-backed debate agents.
type RuntimeClient struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	breaker    *gobreaker.CircuitBreaker
}

// invokeRequest is the wire payload for one adapter call. ToolResults is
// empty on the initial request of a turn and carries the capability results
// on follow-up requests.
type invokeRequest struct {
	Context     models.DebateContext          `json:"context"`
	ToolResults []models.ToolInvocationRecord `json:"tool_results,omitempty"`
}

// invokeResponse is the adapter's reply for one negotiation step.
type invokeResponse struct {
	Stance     string                 `json:"stance,omitempty"`
	Position   string                 `json:"position"`
	Reasoning  string                 `json:"reasoning"`
	Confidence float64                `json:"confidence"`
	ToolCalls  []toolCallPayload      `json:"tool_calls,omitempty"`
	Citations  []models.Citation      `json:"citations,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

type toolCallPayload struct {
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input"`
}

// generateRequest is the wire payload for a raw prompt completion.
type generateRequest struct {
	Prompt       string `json:"prompt"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// NewRuntimeClient creates a new agent-runtime client
func NewRuntimeClient() *RuntimeClient {
	baseURL := os.Getenv("AGENT_RUNTIME_URL")
	if baseURL == "" {
		baseURL = "http://agent-runtime-service:8090"
		log.Printf("WARN: AGENT_RUNTIME_URL not set, defaulting to %s", baseURL)
	}

	settings := gobreaker.Settings{
		Name:        "agent-runtime",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	}

	return &RuntimeClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		tracer:  otel.Tracer("agent-runtime-client"),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// SetBaseURL sets the base URL for testing purposes
func (c *RuntimeClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// invoke performs one adapter call for the named agent.
func (c *RuntimeClient) invoke(ctx context.Context, agentID string, req invokeRequest) (*debate.AgentReply, error) {
	ctx, span := c.tracer.Start(ctx, "agent_runtime.invoke")
	defer span.End()

	span.SetAttributes(
		attribute.String("agent.id", agentID),
		attribute.String("session_id", req.Context.SessionID),
		attribute.Int("debate.round", req.Context.Round),
	)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.invokeInternal(ctx, agentID, req)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return result.(*debate.AgentReply), nil
}

// invokeInternal performs the actual HTTP request
func (c *RuntimeClient) invokeInternal(ctx context.Context, agentID string, req invokeRequest) (*debate.AgentReply, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/agents/%s/invoke", c.baseURL, agentID)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatusError("agent-runtime", resp)
	}

	var payload invokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return toAgentReply(payload), nil
}

// generate performs a raw prompt completion for the named agent.
func (c *RuntimeClient) generate(ctx context.Context, agentID, prompt, systemPrompt string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "agent_runtime.generate")
	defer span.End()

	span.SetAttributes(attribute.String("agent.id", agentID))

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generateInternal(ctx, agentID, prompt, systemPrompt)
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	return result.(string), nil
}

// generateInternal performs the actual HTTP request
func (c *RuntimeClient) generateInternal(ctx context.Context, agentID, prompt, systemPrompt string) (string, error) {
	jsonData, err := json.Marshal(generateRequest{Prompt: prompt, SystemPrompt: systemPrompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/agents/%s/generate", c.baseURL, agentID)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatusError("agent-runtime", resp)
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return payload.Text, nil
}

// IsHealthy checks if the agent-runtime service is healthy
func (c *RuntimeClient) IsHealthy(ctx context.Context) bool {
	ctx, span := c.tracer.Start(ctx, "agent_runtime.health_check")
	defer span.End()

	if c.breaker.State() == gobreaker.StateOpen {
		span.SetAttributes(attribute.Bool("healthy", false), attribute.String("reason", "circuit_breaker_open"))
		return false
	}

	url := fmt.Sprintf("%s/health", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		span.RecordError(err)
		return false
	}

	// Short timeout for health checks
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return false
	}
	defer resp.Body.Close()

	healthy := resp.StatusCode == http.StatusOK
	span.SetAttributes(attribute.Bool("healthy", healthy))

	return healthy
}

// toAgentReply converts the wire payload into the core's reply type.
func toAgentReply(payload invokeResponse) *debate.AgentReply {
	reply := &debate.AgentReply{
		Stance:     models.Stance(payload.Stance),
		Position:   payload.Position,
		Reasoning:  payload.Reasoning,
		Confidence: payload.Confidence,
		Citations:  payload.Citations,
	}
	for _, call := range payload.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, debate.ToolCallRequest{
			Name:  call.Name,
			Input: call.Input,
		})
	}
	return reply
}

// classifyStatusError tags an HTTP error response for the retry policy.
// Classification happens once, here at the call boundary.
func classifyStatusError(service string, resp *http.Response) error {
	bodyBytes, readErr := io.ReadAll(resp.Body)
	body := string(bodyBytes)
	if readErr != nil {
		body = fmt.Sprintf("(failed to read body: %v)", readErr)
	}
	err := fmt.Errorf("%s returned status %d: %s", service, resp.StatusCode, body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return debate.NewCallError(debate.ErrKindRateLimited, err)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return debate.NewCallError(debate.ErrKindAuth, err)
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout:
		return debate.NewCallError(debate.ErrKindTimeout, err)
	case resp.StatusCode >= 500:
		return debate.NewCallError(debate.ErrKindNetwork, err)
	case resp.StatusCode >= 400:
		return debate.NewCallError(debate.ErrKindBadRequest, err)
	default:
		return debate.NewCallError(debate.ErrKindOther, err)
	}
}

// classifyTransportError tags a transport-level failure for the retry policy.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return debate.NewCallError(debate.ErrKindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return debate.NewCallError(debate.ErrKindTimeout, err)
		}
		return debate.NewCallError(debate.ErrKindNetwork, err)
	}
	return debate.NewCallError(debate.ErrKindNetwork, fmt.Errorf("request failed: %w", err))
}
