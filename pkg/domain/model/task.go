package model

import (
	"encoding/json"
	"fmt"

	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

// PlannedTask is one tool invocation produced by the planner
type PlannedTask struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Describe renders the task as "name(json-args)"
func (p PlannedTask) Describe() string {
	if len(p.Args) == 0 {
		return p.Name + "()"
	}
	raw, err := json.Marshal(p.Args)
	if err != nil {
		return fmt.Sprintf("%s(%v)", p.Name, p.Args)
	}
	return p.Name + "(" + string(raw) + ")"
}

// PlanOutcome tags whether planning succeeded or fell back
type PlanOutcome string

const (
	PlanOK       PlanOutcome = "ok"
	PlanDegraded PlanOutcome = "degraded"
)

// Plan is the ordered task list for one turn. A degraded plan always has no tasks.
type Plan struct {
	Outcome PlanOutcome   `json:"outcome"`
	Tasks   []PlannedTask `json:"tasks"`
	Reason  string        `json:"reason,omitempty"`
}

// NewPlan returns an OK plan
func NewPlan(tasks []PlannedTask) Plan {
	if tasks == nil {
		tasks = []PlannedTask{}
	}
	return Plan{Outcome: PlanOK, Tasks: tasks}
}

// DegradedPlan returns the empty fallback plan with the reason it was produced
func DegradedPlan(reason string) Plan {
	return Plan{Outcome: PlanDegraded, Tasks: []PlannedTask{}, Reason: reason}
}

func (p Plan) IsDegraded() bool {
	return p.Outcome == PlanDegraded
}

func (p Plan) IsEmpty() bool {
	return len(p.Tasks) == 0
}

// Subtask is one recorded result of a task
type Subtask struct {
	Content string           `json:"content"`
	Status  types.TaskStatus `json:"status"`
}

// Task is the per-turn execution record of a PlannedTask
type Task struct {
	Index    int              `json:"index"`
	Name     string           `json:"name"`
	Args     map[string]any   `json:"args,omitempty"`
	Content  string           `json:"content"`
	Status   types.TaskStatus `json:"status"`
	Subtasks []Subtask        `json:"subtasks"`
}

// NewTasks builds pending task records from a plan
func NewTasks(plan Plan) []*Task {
	tasks := make([]*Task, 0, len(plan.Tasks))
	for i, p := range plan.Tasks {
		tasks = append(tasks, &Task{
			Index:    i,
			Name:     p.Name,
			Args:     p.Args,
			Content:  p.Describe(),
			Status:   types.TaskStatusPending,
			Subtasks: []Subtask{},
		})
	}
	return tasks
}

// Start marks the task in progress
func (t *Task) Start() {
	t.Status = types.TaskStatusInProgress
}

// Finish records outcome as a subtask and sets the final status
func (t *Task) Finish(outcome TaskOutcome) {
	switch o := outcome.(type) {
	case TaskCompleted:
		t.Status = types.TaskStatusCompleted
		t.Subtasks = append(t.Subtasks, Subtask{Content: o.Output, Status: types.TaskStatusCompleted})
	case TaskFailed:
		t.Status = types.TaskStatusError
		t.Subtasks = append(t.Subtasks, Subtask{Content: o.Error(), Status: types.TaskStatusError})
	}
}

// Output returns the content of the last subtask, or empty when none
func (t *Task) Output() string {
	if len(t.Subtasks) == 0 {
		return ""
	}
	return t.Subtasks[len(t.Subtasks)-1].Content
}

// TaskOutcome is the result of executing one task: TaskCompleted or TaskFailed
type TaskOutcome interface {
	taskOutcome()
}

// TaskCompleted carries the agent's output for a successful task
type TaskCompleted struct {
	Output     string
	ToolEvents []AgentEvent
}

// TaskFailed carries the error that ended a task
type TaskFailed struct {
	Err error
}

func (TaskCompleted) taskOutcome() {}
func (TaskFailed) taskOutcome()    {}

func (f TaskFailed) Error() string {
	if f.Err == nil {
		return "unknown error"
	}
	return f.Err.Error()
}
