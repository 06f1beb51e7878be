package model

import (
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

// EventName is the SSE event name sent to the chat client
type EventName string

const (
	EventConvID        EventName = "conv_id"
	EventPlannerStatus EventName = "planner_status"
	EventTaskProgress  EventName = "task_progress"
	EventDelta         EventName = "delta"
	EventError         EventName = "error"
	EventDone          EventName = "done"
)

// ConvIDPayload announces a newly created conversation
type ConvIDPayload struct {
	ConvID int64 `json:"conv_id"`
}

// PlannerStatusPayload reports planner state and the current plan
type PlannerStatusPayload struct {
	State types.PlannerState `json:"state"`
	Plan  []*Task            `json:"plan"`
}

// TaskProgressPayload reports a task status change or a tool event within a task
type TaskProgressPayload struct {
	TaskID      int              `json:"taskId"`
	Status      types.TaskStatus `json:"status"`
	Description string           `json:"description"`
	ToolName    string           `json:"toolName,omitempty"`
	Action      string           `json:"action,omitempty"`
	Result      string           `json:"result,omitempty"`
}

// DeltaPayload carries partial assistant text
type DeltaPayload struct {
	Text string `json:"text"`
}

// ErrorPayload carries a user-facing error message
type ErrorPayload struct {
	Message string `json:"message"`
}

// DonePayload is the terminal event payload
type DonePayload struct {
	Status types.TurnStatus `json:"status"`
}
