package interfaces

import (
	"context"

	"github.com/shopmate-ai/shopmate/pkg/domain/model"
)

// AgentRunner runs one delegated agent and returns its final text and the
// tool events it observed. Implementations adapt a concrete LLM runtime.
type AgentRunner interface {
	Run(ctx context.Context, req *model.AgentRequest) (*model.AgentResult, error)
	// AllowedTools returns the remote tool names agents may call
	AllowedTools() []string
}

// Embedder converts text into a vector. Callers must tolerate errors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EventSink receives the ordered events of one turn
type EventSink interface {
	// Send writes one event. An error means the client is gone.
	Send(ctx context.Context, name model.EventName, payload any) error
	// Done writes the terminal event. Only the first call has an effect.
	Done(ctx context.Context, status model.DonePayload)
}

// LogSink receives structured lifecycle events from the turn controller
type LogSink interface {
	Record(ctx context.Context, event string, attrs ...any)
}
