package agent

import (
	"context"

	"github.com/arbiterlabs/debate-orchestrator/internal/debate"
	"github.com/arbiterlabs/debate-orchestrator/internal/models"
)

// Participant binds one debate agent identity to the runtime client. It
// implements debate.Agent; the orchestration core never sees the transport.
type Participant struct {
	id     string
	name   string
	client *RuntimeClient
}

// NewParticipant creates a participant backed by the agent-runtime service.
func NewParticipant(client *RuntimeClient, id, name string) *Participant {
	return &Participant{
		id:     id,
		name:   name,
		client: client,
	}
}

// ID returns the stable agent identifier.
func (p *Participant) ID() string {
	return p.id
}

// Name returns the display name.
func (p *Participant) Name() string {
	return p.name
}

// Invoke sends the initial context-derived request for a turn.
func (p *Participant) Invoke(ctx context.Context, dc models.DebateContext) (*debate.AgentReply, error) {
	return p.client.invoke(ctx, p.id, invokeRequest{Context: dc})
}

// Resume feeds capability results back to the agent in a follow-up request.
func (p *Participant) Resume(ctx context.Context, dc models.DebateContext, results []models.ToolInvocationRecord) (*debate.AgentReply, error) {
	return p.client.invoke(ctx, p.id, invokeRequest{Context: dc, ToolResults: results})
}

// InvokeRaw runs a raw prompt completion against the same backing model.
func (p *Participant) InvokeRaw(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return p.client.generate(ctx, p.id, prompt, systemPrompt)
}
