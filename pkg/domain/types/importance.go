package types

import (
	"fmt"
	"strings"
)

// Importance is the retention weight of a memory
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// IsValid checks if the importance is valid
func (i Importance) IsValid() bool {
	switch i {
	case ImportanceHigh, ImportanceMedium, ImportanceLow:
		return true
	default:
		return false
	}
}

// Rank returns a sortable weight. Higher is more important; unknown values rank lowest.
func (i Importance) Rank() int {
	switch i {
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	case ImportanceLow:
		return 1
	default:
		return 0
	}
}

// Normalize returns the importance, treating empty as ImportanceMedium.
func (i Importance) Normalize() Importance {
	if i == "" {
		return ImportanceMedium
	}
	return i
}

func (i Importance) String() string {
	return string(i)
}

// ParseImportance parses a case-insensitive string into an Importance
func ParseImportance(s string) (Importance, error) {
	imp := Importance(strings.ToLower(strings.TrimSpace(s)))
	if !imp.IsValid() {
		return "", fmt.Errorf("invalid importance: %s", s)
	}
	return imp, nil
}
