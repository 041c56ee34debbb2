package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// CapabilityClient executes auxiliary capabilities (search, fact-check, ...)
// against the capability-executor service. The client is stateless and safe
// for concurrent use by multiple agents in the same parallel round. It
// implements debate.CapabilityExecutor.
type CapabilityClient struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// NewCapabilityClient creates a new capability-executor client
func NewCapabilityClient() *CapabilityClient {
	baseURL := os.Getenv("CAPABILITY_EXECUTOR_URL")
	if baseURL == "" {
		baseURL = "http://capability-executor-service:8091"
		log.Printf("WARN: CAPABILITY_EXECUTOR_URL not set, defaulting to %s", baseURL)
	}

	return &CapabilityClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tracer: otel.Tracer("capability-client"),
	}
}

// SetBaseURL sets the base URL for testing purposes
func (c *CapabilityClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// Execute runs the named capability with the given input payload. Failures
// are classified for the retry policy; the tool-call loop absorbs whatever
// survives retries into the invocation record.
func (c *CapabilityClient) Execute(ctx context.Context, name string, input map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := c.tracer.Start(ctx, "capability.execute")
	defer span.End()

	span.SetAttributes(attribute.String("tool.name", name))

	jsonData, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	url := fmt.Sprintf("%s/v1/capabilities/%s", c.baseURL, name)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := classifyStatusError("capability-executor", resp)
		span.RecordError(err)
		return nil, err
	}

	var output map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&output); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return output, nil
}
