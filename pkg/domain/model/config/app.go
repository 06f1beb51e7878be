package config

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// PlannerConfig controls how much history the planner sees
type PlannerConfig struct {
	HistoryWindow int
}

// MemoryConfig controls deduplication and retention of user memories
type MemoryConfig struct {
	DedupThreshold float64
	DedupWindow    int
	MaxPerUser     int
}

// ExtractionConfig bounds the background fact extraction pass
type ExtractionConfig struct {
	Timeout  time.Duration
	MaxFacts int
}

// ThreadConfig controls eviction of idle conversation threads
type ThreadConfig struct {
	SweepInterval time.Duration
	IdleTimeout   time.Duration
	LogSize       int
}

// AgentConfig bounds delegated agent runs
type AgentConfig struct {
	MaxIterations int
}

// AppConfig holds tunables loaded from the TOML config file
type AppConfig struct {
	Planner    PlannerConfig
	Memory     MemoryConfig
	Extraction ExtractionConfig
	Thread     ThreadConfig
	Agent      AgentConfig
}

// DefaultAppConfig returns the built-in defaults
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Planner: PlannerConfig{HistoryWindow: 10},
		Memory: MemoryConfig{
			DedupThreshold: 0.9,
			DedupWindow:    50,
			MaxPerUser:     200,
		},
		Extraction: ExtractionConfig{
			Timeout:  25 * time.Second,
			MaxFacts: 5,
		},
		Thread: ThreadConfig{
			SweepInterval: time.Hour,
			IdleTimeout:   24 * time.Hour,
			LogSize:       50,
		},
		Agent: AgentConfig{MaxIterations: 16},
	}
}

// Validate rejects values that would disable an invariant
func (c *AppConfig) Validate() error {
	if c.Planner.HistoryWindow < 0 {
		return goerr.New("planner.history_window must not be negative", goerr.V("value", c.Planner.HistoryWindow))
	}
	if c.Memory.DedupThreshold <= 0 || c.Memory.DedupThreshold > 1 {
		return goerr.New("memory.dedup_threshold must be in (0, 1]", goerr.V("value", c.Memory.DedupThreshold))
	}
	if c.Memory.DedupWindow <= 0 {
		return goerr.New("memory.dedup_window must be positive", goerr.V("value", c.Memory.DedupWindow))
	}
	if c.Memory.MaxPerUser <= 0 {
		return goerr.New("memory.max_per_user must be positive", goerr.V("value", c.Memory.MaxPerUser))
	}
	if c.Extraction.Timeout <= 0 {
		return goerr.New("extraction.timeout must be positive", goerr.V("value", c.Extraction.Timeout))
	}
	if c.Extraction.MaxFacts <= 0 {
		return goerr.New("extraction.max_facts must be positive", goerr.V("value", c.Extraction.MaxFacts))
	}
	if c.Thread.SweepInterval <= 0 || c.Thread.IdleTimeout <= 0 {
		return goerr.New("thread intervals must be positive")
	}
	if c.Thread.LogSize <= 0 {
		return goerr.New("thread log size must be positive", goerr.V("value", c.Thread.LogSize))
	}
	if c.Agent.MaxIterations <= 0 {
		return goerr.New("agent.max_iterations must be positive", goerr.V("value", c.Agent.MaxIterations))
	}
	return nil
}
