package types

// TurnStatus is the final status carried by the terminal event of a turn
type TurnStatus string

const (
	TurnStatusComplete           TurnStatus = "complete"
	TurnStatusError              TurnStatus = "error"
	TurnStatusClientDisconnected TurnStatus = "client_disconnected"
)

func (s TurnStatus) IsValid() bool {
	switch s {
	case TurnStatusComplete, TurnStatusError, TurnStatusClientDisconnected:
		return true
	default:
		return false
	}
}

func (s TurnStatus) String() string {
	return string(s)
}

// PlannerState is the state reported by planner_status events
type PlannerState string

const (
	PlannerStatePlanning  PlannerState = "planning"
	PlannerStateExecuting PlannerState = "executing"
	PlannerStateCompleted PlannerState = "completed"
)
