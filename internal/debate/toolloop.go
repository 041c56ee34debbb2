package debate

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/arbiterlabs/debate-orchestrator/internal/metrics"
	"github.com/arbiterlabs/debate-orchestrator/internal/models"
)

// MaxToolIterations caps the number of capability-request rounds inside one
// agent turn. Reaching the cap is not an error: the loop finalizes with the
// latest available reply and logs a warning.
const MaxToolIterations = 10

// ToolCallRequest is one capability call requested by an agent mid-turn.
type ToolCallRequest struct {
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input"`
}

// AgentReply is a single adapter response within a turn. A reply with
// ToolCalls set is an intermediate negotiation step; a reply without is the
// agent's final structured answer.
type AgentReply struct {
	Stance     models.Stance     `json:"stance,omitempty"`
	Position   string            `json:"position"`
	Reasoning  string            `json:"reasoning"`
	Confidence float64           `json:"confidence"`
	Citations  []models.Citation `json:"citations,omitempty"`
	ToolCalls  []ToolCallRequest `json:"tool_calls,omitempty"`
}

// Agent is the adapter contract for one debate participant. Implementations
// wrap a concrete text-generation backend; the orchestration core never
// depends on a backend type. Invoke and Resume must be safe to call
// repeatedly with the same context.
type Agent interface {
	ID() string
	Name() string
	Invoke(ctx context.Context, dc models.DebateContext) (*AgentReply, error)
	Resume(ctx context.Context, dc models.DebateContext, results []models.ToolInvocationRecord) (*AgentReply, error)
	InvokeRaw(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// CapabilityExecutor runs auxiliary capabilities (search, fact-check, ...)
// on behalf of agents. It may be invoked concurrently by multiple agents in
// the same parallel round and must be safe for that.
type CapabilityExecutor interface {
	Execute(ctx context.Context, name string, input map[string]interface{}) (map[string]interface{}, error)
}

// ToolCallLoop mediates one agent turn that may involve capability calls
// before the agent finalizes its answer. Every outbound call is wrapped in
// the retry policy.
type ToolCallLoop struct {
	caps     CapabilityExecutor
	retryCfg RetryConfig
	metrics  *metrics.DebateMetrics
	tracer   trace.Tracer
}

// NewToolCallLoop creates a tool-call loop over the given capability executor.
func NewToolCallLoop(caps CapabilityExecutor, retryCfg RetryConfig, dm *metrics.DebateMetrics) *ToolCallLoop {
	return &ToolCallLoop{
		caps:     caps,
		retryCfg: retryCfg,
		metrics:  dm,
		tracer:   otel.Tracer("tool-call-loop"),
	}
}

// Run drives the negotiation for one agent turn and returns the validated-
// ready structured response. Capability failures are recorded inside their
// ToolInvocationRecord and never fail the turn; only agent-adapter failures
// that survive the retry policy propagate.
func (l *ToolCallLoop) Run(ctx context.Context, agent Agent, dc models.DebateContext) (*models.StructuredResponse, error) {
	ctx, span := l.tracer.Start(ctx, "tool_call_loop.run")
	defer span.End()

	span.SetAttributes(
		attribute.String("agent.id", agent.ID()),
		attribute.Int("debate.round", dc.Round),
	)

	reply, err := l.invokeAgent(ctx, agent, dc)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var records []models.ToolInvocationRecord
	citations := newCitationSet()

	for iteration := 0; len(reply.ToolCalls) > 0 && iteration < MaxToolIterations; iteration++ {
		batch := make([]models.ToolInvocationRecord, 0, len(reply.ToolCalls))
		for _, call := range reply.ToolCalls {
			record := l.executeCapability(ctx, agent.ID(), call)
			batch = append(batch, record)
			citations.addFromOutput(record.Output)
		}
		records = append(records, batch...)

		reply, err = l.resumeAgent(ctx, agent, dc, batch)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	if len(reply.ToolCalls) > 0 {
		log.Printf(`{"level":"warn","message":"Tool iteration cap reached, finalizing with latest reply","agent_id":"%s","session_id":"%s","cap":%d}`,
			agent.ID(), dc.SessionID, MaxToolIterations)
		span.SetAttributes(attribute.Bool("tool_loop.cap_reached", true))
	}

	citations.addAll(reply.Citations)
	span.SetAttributes(attribute.Int("tool_loop.invocations", len(records)))

	return &models.StructuredResponse{
		AgentID:    agent.ID(),
		AgentName:  agent.Name(),
		Stance:     reply.Stance,
		Position:   reply.Position,
		Reasoning:  reply.Reasoning,
		Confidence: reply.Confidence,
		Citations:  citations.list(),
		ToolCalls:  records,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// invokeAgent sends the initial request through the retry policy.
func (l *ToolCallLoop) invokeAgent(ctx context.Context, agent Agent, dc models.DebateContext) (*AgentReply, error) {
	result, err := WithRetry(ctx, l.retryCfg, func(ctx context.Context) (interface{}, error) {
		return agent.Invoke(ctx, dc)
	})
	if err != nil {
		return nil, err
	}
	return result.(*AgentReply), nil
}

// resumeAgent feeds a batch of capability results back to the adapter.
func (l *ToolCallLoop) resumeAgent(ctx context.Context, agent Agent, dc models.DebateContext, batch []models.ToolInvocationRecord) (*AgentReply, error) {
	result, err := WithRetry(ctx, l.retryCfg, func(ctx context.Context) (interface{}, error) {
		return agent.Resume(ctx, dc, batch)
	})
	if err != nil {
		return nil, err
	}
	return result.(*AgentReply), nil
}

// executeCapability runs one capability call and captures its outcome as an
// immutable record. A failure becomes an error payload inside the record.
func (l *ToolCallLoop) executeCapability(ctx context.Context, agentID string, call ToolCallRequest) models.ToolInvocationRecord {
	if l.caps == nil {
		return models.ToolInvocationRecord{
			ToolName:  call.Name,
			Input:     call.Input,
			Output:    map[string]interface{}{"error": "no capability executor configured"},
			Timestamp: time.Now().UTC(),
		}
	}

	result, err := WithRetry(ctx, l.retryCfg, func(ctx context.Context) (interface{}, error) {
		return l.caps.Execute(ctx, call.Name, call.Input)
	})

	record := models.ToolInvocationRecord{
		ToolName:  call.Name,
		Input:     call.Input,
		Timestamp: time.Now().UTC(),
	}

	if err != nil {
		log.Printf(`{"level":"warn","message":"Capability invocation failed","tool":"%s","agent_id":"%s","error":"%v"}`,
			call.Name, agentID, err)
		record.Output = map[string]interface{}{"error": err.Error()}
	} else {
		record.Output, _ = result.(map[string]interface{})
	}

	if l.metrics != nil {
		l.metrics.RecordToolCall(ctx, agentID, call.Name, err != nil)
	}

	return record
}

// citationSet deduplicates citations by URL; the first-seen title wins.
type citationSet struct {
	seen  map[string]bool
	order []models.Citation
}

func newCitationSet() *citationSet {
	return &citationSet{seen: make(map[string]bool)}
}

func (s *citationSet) add(c models.Citation) {
	if c.URL == "" || s.seen[c.URL] {
		return
	}
	s.seen[c.URL] = true
	s.order = append(s.order, c)
}

func (s *citationSet) addAll(citations []models.Citation) {
	for _, c := range citations {
		s.add(c)
	}
}

// addFromOutput extracts citations a capability result exposes under the
// "citations" key.
func (s *citationSet) addFromOutput(output map[string]interface{}) {
	raw, ok := output["citations"].([]interface{})
	if !ok {
		return
	}
	for _, entry := range raw {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		c := models.Citation{}
		if title, ok := m["title"].(string); ok {
			c.Title = title
		}
		if url, ok := m["url"].(string); ok {
			c.URL = url
		}
		if snippet, ok := m["snippet"].(string); ok {
			c.Snippet = snippet
		}
		s.add(c)
	}
}

func (s *citationSet) list() []models.Citation {
	return s.order
}
