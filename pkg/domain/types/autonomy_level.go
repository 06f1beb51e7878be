package types

import "fmt"

// AutonomyLevel is how freely agents may act before asking the user to confirm
type AutonomyLevel string

const (
	AutonomyLow    AutonomyLevel = "low"
	AutonomyMedium AutonomyLevel = "medium"
	AutonomyHigh   AutonomyLevel = "high"
)

func (a AutonomyLevel) IsValid() bool {
	switch a {
	case AutonomyLow, AutonomyMedium, AutonomyHigh:
		return true
	default:
		return false
	}
}

func (a AutonomyLevel) String() string {
	return string(a)
}

// Guidance returns the instruction injected into agent prompts for this level
func (a AutonomyLevel) Guidance() string {
	switch a {
	case AutonomyHigh:
		return "The user prefers you act without asking for confirmation. Proceed with write operations directly and report what you changed."
	case AutonomyLow:
		return "The user wants to approve changes. Before any write operation (price, inventory, product updates), describe it and ask for confirmation."
	default:
		return "Ask for confirmation before bulk or destructive write operations. Small single-item updates that the user explicitly requested may proceed."
	}
}

// ParseAutonomyLevel parses a string into an AutonomyLevel
func ParseAutonomyLevel(s string) (AutonomyLevel, error) {
	a := AutonomyLevel(s)
	if !a.IsValid() {
		return "", fmt.Errorf("invalid autonomy level: %s", s)
	}
	return a, nil
}
