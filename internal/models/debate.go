package models

import (
	"time"
)

// Stance is a categorical position a participant argues for.
type Stance string

const (
	StanceAffirmative Stance = "affirmative"
	StanceNegative    Stance = "negative"
	StanceNeutral     Stance = "neutral"
)

// Citation is a source reference attached to a response.
type Citation struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// ToolInvocationRecord captures one capability call made during an agent turn.
// The record is appended by the tool-call loop and never mutated afterwards.
// A failed invocation carries an "error" key in Output instead of a result.
type ToolInvocationRecord struct {
	ToolName  string                 `json:"tool_name"`
	Input     map[string]interface{} `json:"input"`
	Output    map[string]interface{} `json:"output"`
	Timestamp time.Time              `json:"timestamp"`
}

// RoleViolation marks a mismatch between the stance assigned to a participant
// and the stance it actually produced. The original stance is preserved.
type RoleViolation struct {
	Expected Stance `json:"expected"`
	Actual   Stance `json:"actual"`
}

// StructuredResponse is one agent's validated output for one round.
// Immutable once it has passed the validator chain.
type StructuredResponse struct {
	AgentID       string                 `json:"agent_id"`
	AgentName     string                 `json:"agent_name"`
	Stance        Stance                 `json:"stance,omitempty"`
	Position      string                 `json:"position"`
	Reasoning     string                 `json:"reasoning"`
	Confidence    float64                `json:"confidence"`
	Citations     []Citation             `json:"citations,omitempty"`
	ToolCalls     []ToolInvocationRecord `json:"tool_calls,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	RoleViolation *RoleViolation         `json:"role_violation,omitempty"`
}

// DebateContext is the immutable per-invocation input to an agent.
// It is constructed fresh for every agent call and never mutated afterwards.
type DebateContext struct {
	SessionID         string               `json:"session_id"`
	Topic             string               `json:"topic"`
	Mode              string               `json:"mode"`
	Round             int                  `json:"round"`
	TotalRounds       int                  `json:"total_rounds"`
	PreviousResponses []StructuredResponse `json:"previous_responses"`
	FocusQuestion     string               `json:"focus_question,omitempty"`
	AssignedStances   map[string]Stance    `json:"assigned_stances,omitempty"`
}

// WithPreviousResponses returns a copy of the context carrying the given
// response history. The receiver is left untouched.
func (dc DebateContext) WithPreviousResponses(responses []StructuredResponse) DebateContext {
	prev := make([]StructuredResponse, len(responses))
	copy(prev, responses)
	dc.PreviousResponses = prev
	return dc
}

// ConsensusMeasurement is the per-round agreement assessment produced by the
// consensus analyzer. The orchestration core only consumes it.
type ConsensusMeasurement struct {
	AgreementLevel    float64  `json:"agreement_level"`
	Summary           string   `json:"summary"`
	Agreements        []string `json:"agreements,omitempty"`
	Disagreements     []string `json:"disagreements,omitempty"`
	GroupthinkWarning bool     `json:"groupthink_warning,omitempty"`
}

// RoundResult is the outcome of one debate round. Responses preserve the
// invited agent order regardless of completion order.
type RoundResult struct {
	Round     int                   `json:"round"`
	Responses []StructuredResponse  `json:"responses"`
	Consensus *ConsensusMeasurement `json:"consensus,omitempty"`
}

// ExitCriteria controls early termination of a debate.
type ExitCriteria struct {
	Enabled            bool    `json:"enabled"`
	MaxRounds          int     `json:"max_rounds"`
	ConsensusThreshold float64 `json:"consensus_threshold"`
	ConvergenceRounds  int     `json:"convergence_rounds"`
}

// SessionStatus is the lifecycle state of a debate session.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusError     SessionStatus = "error"
)

// AgentConfig identifies one invited participant.
type AgentConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DebateSession is the persistent record of one debate.
type DebateSession struct {
	ID              string            `json:"id"`
	Topic           string            `json:"topic"`
	Mode            string            `json:"mode"`
	Status          SessionStatus     `json:"status"`
	TotalRounds     int               `json:"total_rounds"`
	CompletedRounds int               `json:"completed_rounds"`
	FocusQuestion   string            `json:"focus_question,omitempty"`
	Agents          []AgentConfig     `json:"agents"`
	AssignedStances map[string]Stance `json:"assigned_stances,omitempty"`
	ExitCriteria    ExitCriteria      `json:"exit_criteria"`
	CreatedByUserID string            `json:"created_by_user_id"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
