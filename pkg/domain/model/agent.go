package model

import (
	"github.com/m-mizutani/gollem"
)

// AgentEventType distinguishes tool call events forwarded by an agent runner
type AgentEventType string

const (
	AgentEventToolUse    AgentEventType = "tool_use"
	AgentEventToolResult AgentEventType = "tool_result"
)

// AgentEvent is a tool call or tool result observed during an agent run
type AgentEvent struct {
	Type     AgentEventType `json:"type"`
	ToolName string         `json:"tool_name"`
	Args     map[string]any `json:"args,omitempty"`
	Result   map[string]any `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// AgentRequest is the input of one delegated agent run
type AgentRequest struct {
	// Name labels the run in logs (planner, task, synthesis, ...)
	Name         string
	SystemPrompt string
	Input        string

	// Tools are in-process tools offered in addition to remote ones
	Tools []gollem.Tool

	// UseRemoteTools exposes the allow-listed remote tool servers
	UseRemoteTools bool

	// ResponseSchema requests a JSON response matching the schema. Tools are
	// not offered when it is set.
	ResponseSchema *gollem.Parameter

	// OnEvent receives tool_use and tool_result events as they happen
	OnEvent func(AgentEvent)
}

// Emit forwards ev to OnEvent when set
func (r *AgentRequest) Emit(ev AgentEvent) {
	if r.OnEvent != nil {
		r.OnEvent(ev)
	}
}

// AgentResult is the final output of a delegated agent run
type AgentResult struct {
	Text       string
	ToolEvents []AgentEvent
}
