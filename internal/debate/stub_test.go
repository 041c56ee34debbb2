package debate

import (
	"context"
	"sync"
	"time"

	"github.com/arbiterlabs/debate-orchestrator/internal/models"
)

// scriptedAgent routes every Invoke/Resume through a single respond function
// so tests can script multi-step negotiations. The call counter covers both
// entry points; previousSeen records the visible history length per call.
type scriptedAgent struct {
	id    string
	name  string
	delay time.Duration

	respond func(call int, dc models.DebateContext, results []models.ToolInvocationRecord) (*AgentReply, error)

	mu           sync.Mutex
	calls        int
	invokes      int
	resumes      int
	previousSeen []int
	lastResults  []models.ToolInvocationRecord
}

func finalReply(position string, confidence float64) *AgentReply {
	return &AgentReply{
		Position:   position,
		Reasoning:  "because " + position,
		Confidence: confidence,
	}
}

// answeringAgent always finalizes immediately with the given position.
func answeringAgent(id, position string) *scriptedAgent {
	return &scriptedAgent{
		id:   id,
		name: "Agent " + id,
		respond: func(int, models.DebateContext, []models.ToolInvocationRecord) (*AgentReply, error) {
			return finalReply(position, 0.8), nil
		},
	}
}

// failingAgent always fails with the given error.
func failingAgent(id string, err error) *scriptedAgent {
	return &scriptedAgent{
		id:   id,
		name: "Agent " + id,
		respond: func(int, models.DebateContext, []models.ToolInvocationRecord) (*AgentReply, error) {
			return nil, err
		},
	}
}

func (a *scriptedAgent) ID() string   { return a.id }
func (a *scriptedAgent) Name() string { return a.name }

func (a *scriptedAgent) Invoke(ctx context.Context, dc models.DebateContext) (*AgentReply, error) {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	a.mu.Lock()
	a.calls++
	a.invokes++
	call := a.calls
	a.previousSeen = append(a.previousSeen, len(dc.PreviousResponses))
	a.mu.Unlock()
	return a.respond(call, dc, nil)
}

func (a *scriptedAgent) Resume(ctx context.Context, dc models.DebateContext, results []models.ToolInvocationRecord) (*AgentReply, error) {
	a.mu.Lock()
	a.calls++
	a.resumes++
	call := a.calls
	a.lastResults = results
	a.mu.Unlock()
	return a.respond(call, dc, results)
}

func (a *scriptedAgent) InvokeRaw(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return "", nil
}

// scriptedExecutor records every capability call it receives.
type scriptedExecutor struct {
	execute func(name string, input map[string]interface{}) (map[string]interface{}, error)

	mu    sync.Mutex
	calls []string
}

func (e *scriptedExecutor) Execute(ctx context.Context, name string, input map[string]interface{}) (map[string]interface{}, error) {
	e.mu.Lock()
	e.calls = append(e.calls, name)
	e.mu.Unlock()
	if e.execute != nil {
		return e.execute(name, input)
	}
	return map[string]interface{}{"result": "ok"}, nil
}

func (e *scriptedExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// scriptedAnalyzer scores rounds via a per-round function and records what it
// was asked to analyze.
type scriptedAnalyzer struct {
	analyze func(round int) (*models.ConsensusMeasurement, error)

	mu            sync.Mutex
	calls         int
	lastOpts      AnalyzeOptions
	lastResponses []models.StructuredResponse
	lastTopic     string
}

func fixedAnalyzer(level float64) *scriptedAnalyzer {
	return &scriptedAnalyzer{
		analyze: func(int) (*models.ConsensusMeasurement, error) {
			return &models.ConsensusMeasurement{AgreementLevel: level, Summary: "stub"}, nil
		},
	}
}

func (a *scriptedAnalyzer) Analyze(ctx context.Context, responses []models.StructuredResponse, topic string, opts AnalyzeOptions) (*models.ConsensusMeasurement, error) {
	a.mu.Lock()
	a.calls++
	a.lastOpts = opts
	a.lastResponses = responses
	a.lastTopic = topic
	a.mu.Unlock()
	return a.analyze(opts.Round)
}

func (a *scriptedAnalyzer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// memoryStore is an in-memory SessionStore capturing orchestrator writes.
type memoryStore struct {
	mu             sync.Mutex
	saved          []models.RoundResult
	completedWith  int
	completedCalls int
	errorCause     string
	errorCalls     int

	saveErr      error
	completeErr  error
	markErrorErr error
}

func (s *memoryStore) SaveRound(ctx context.Context, sessionID string, result *models.RoundResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, *result)
	return nil
}

func (s *memoryStore) MarkCompleted(ctx context.Context, sessionID string, completedRounds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completeErr != nil {
		return s.completeErr
	}
	s.completedCalls++
	s.completedWith = completedRounds
	return nil
}

func (s *memoryStore) MarkError(ctx context.Context, sessionID string, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErrorErr != nil {
		return s.markErrorErr
	}
	s.errorCalls++
	s.errorCause = cause
	return nil
}

// recordingObserver captures observer notifications in order.
type recordingObserver struct {
	mu           sync.Mutex
	rounds       []int
	finishStatus models.SessionStatus
	finishReason string
	finishCalls  int
}

func (o *recordingObserver) RoundCompleted(sessionID string, result *models.RoundResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rounds = append(o.rounds, result.Round)
}

func (o *recordingObserver) DebateFinished(sessionID string, status models.SessionStatus, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finishCalls++
	o.finishStatus = status
	o.finishReason = reason
}

// fastRetry keeps test retries effectively instant.
func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:    maxRetries,
		BaseDelay:     time.Millisecond,
		BackoffFactor: 1.0,
		MaxDelay:      time.Millisecond,
	}
}
