// Package consensus provides the HTTP client for the consensus-analysis
// service that measures agreement across a round's responses.
package consensus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
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

// AnalyzerClient handles communication with the consensus-analyzer service.
// It implements debate.ConsensusAnalyzer.
type AnalyzerClient struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	breaker    *gobreaker.CircuitBreaker
}

// analyzeRequest is the wire payload for one consensus measurement.
type analyzeRequest struct {
	Topic         string                      `json:"topic"`
	Round         int                         `json:"round"`
	Mode          string                      `json:"mode,omitempty"`
	FocusQuestion string                      `json:"focus_question,omitempty"`
	Responses     []models.StructuredResponse `json:"responses"`
}

// NewAnalyzerClient creates a new consensus-analyzer client
func NewAnalyzerClient() *AnalyzerClient {
	baseURL := os.Getenv("CONSENSUS_ANALYZER_URL")
	if baseURL == "" {
		baseURL = "http://consensus-analyzer-service:8092"
		log.Printf("WARN: CONSENSUS_ANALYZER_URL not set, defaulting to %s", baseURL)
	}

	settings := gobreaker.Settings{
		Name:        "consensus-analyzer",
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

	return &AnalyzerClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		tracer:  otel.Tracer("consensus-analyzer-client"),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// SetBaseURL sets the base URL for testing purposes
func (c *AnalyzerClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// Analyze measures agreement across the given responses.
func (c *AnalyzerClient) Analyze(ctx context.Context, responses []models.StructuredResponse, topic string, opts debate.AnalyzeOptions) (*models.ConsensusMeasurement, error) {
	ctx, span := c.tracer.Start(ctx, "consensus_analyzer.analyze")
	defer span.End()

	span.SetAttributes(
		attribute.Int("debate.round", opts.Round),
		attribute.Int("consensus.responses", len(responses)),
	)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.analyzeInternal(ctx, responses, topic, opts)
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to analyze consensus: %w", err)
	}

	measurement := result.(*models.ConsensusMeasurement)
	span.SetAttributes(attribute.Float64("consensus.agreement_level", measurement.AgreementLevel))

	return measurement, nil
}

// analyzeInternal performs the actual HTTP request
func (c *AnalyzerClient) analyzeInternal(ctx context.Context, responses []models.StructuredResponse, topic string, opts debate.AnalyzeOptions) (*models.ConsensusMeasurement, error) {
	reqBody := analyzeRequest{
		Topic:         topic,
		Round:         opts.Round,
		Mode:          opts.Mode,
		FocusQuestion: opts.FocusQuestion,
		Responses:     responses,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/consensus/analyze", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("consensus-analyzer returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("consensus-analyzer returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var measurement models.ConsensusMeasurement
	if err := json.NewDecoder(resp.Body).Decode(&measurement); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &measurement, nil
}

// IsHealthy checks if the consensus-analyzer service is healthy
func (c *AnalyzerClient) IsHealthy(ctx context.Context) bool {
	ctx, span := c.tracer.Start(ctx, "consensus_analyzer.health_check")
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
