package types

import (
	"fmt"
	"strings"
)

// MemoryCategory classifies a durable fact about a user
type MemoryCategory string

const (
	MemoryCategoryPreference      MemoryCategory = "preference"
	MemoryCategoryConfiguration   MemoryCategory = "configuration"
	MemoryCategoryConstraint      MemoryCategory = "constraint"
	MemoryCategoryBusinessContext MemoryCategory = "business_context"
	MemoryCategoryOther           MemoryCategory = "other"
)

// AllMemoryCategories returns all valid memory categories
func AllMemoryCategories() []MemoryCategory {
	return []MemoryCategory{
		MemoryCategoryPreference,
		MemoryCategoryConfiguration,
		MemoryCategoryConstraint,
		MemoryCategoryBusinessContext,
		MemoryCategoryOther,
	}
}

func (c MemoryCategory) IsValid() bool {
	for _, v := range AllMemoryCategories() {
		if c == v {
			return true
		}
	}
	return false
}

func (c MemoryCategory) String() string {
	return string(c)
}

// ParseMemoryCategory parses a string into a MemoryCategory. Empty input maps to other.
func ParseMemoryCategory(s string) (MemoryCategory, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return MemoryCategoryOther, nil
	}
	c := MemoryCategory(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid memory category: %s", s)
	}
	return c, nil
}

// MemorySource records how a memory was written
type MemorySource string

const (
	MemorySourceExtraction MemorySource = "extraction"
	MemorySourceTool       MemorySource = "tool"
	MemorySourceAPI        MemorySource = "api"
)
