package model

import (
	"time"

	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

// AgentRun is the audit snapshot of one turn's final task list
type AgentRun struct {
	ID             int64            `json:"id"`
	ConversationID int64            `json:"conversation_id"`
	Status         types.TurnStatus `json:"status"`
	Tasks          []*Task          `json:"tasks"`
	CreatedAt      time.Time        `json:"created_at"`
}

// CountByStatus returns how many tasks ended in status
func (r *AgentRun) CountByStatus(status types.TaskStatus) int {
	n := 0
	for _, t := range r.Tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}
