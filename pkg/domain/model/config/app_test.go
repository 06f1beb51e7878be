package config_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/shopmate-ai/shopmate/pkg/domain/model/config"
)

func TestDefaultAppConfig(t *testing.T) {
	cfg := config.DefaultAppConfig()
	gt.NoError(t, cfg.Validate())
	gt.V(t, cfg.Memory.DedupThreshold).Equal(0.9)
	gt.V(t, cfg.Extraction.Timeout).Equal(25 * time.Second)
	gt.V(t, cfg.Extraction.MaxFacts).Equal(5)
}

func TestAppConfigValidate(t *testing.T) {
	testCases := map[string]func(*config.AppConfig){
		"negative history window": func(c *config.AppConfig) { c.Planner.HistoryWindow = -1 },
		"zero dedup threshold":    func(c *config.AppConfig) { c.Memory.DedupThreshold = 0 },
		"dedup threshold above 1": func(c *config.AppConfig) { c.Memory.DedupThreshold = 1.5 },
		"zero dedup window":       func(c *config.AppConfig) { c.Memory.DedupWindow = 0 },
		"zero max per user":       func(c *config.AppConfig) { c.Memory.MaxPerUser = 0 },
		"zero extraction timeout": func(c *config.AppConfig) { c.Extraction.Timeout = 0 },
		"zero max facts":          func(c *config.AppConfig) { c.Extraction.MaxFacts = 0 },
		"zero sweep interval":     func(c *config.AppConfig) { c.Thread.SweepInterval = 0 },
		"zero log size":           func(c *config.AppConfig) { c.Thread.LogSize = 0 },
		"zero max iterations":     func(c *config.AppConfig) { c.Agent.MaxIterations = 0 },
	}

	for name, mutate := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := config.DefaultAppConfig()
			mutate(cfg)
			gt.Error(t, cfg.Validate())
		})
	}

	t.Run("zero history window is allowed", func(t *testing.T) {
		cfg := config.DefaultAppConfig()
		cfg.Planner.HistoryWindow = 0
		gt.NoError(t, cfg.Validate())
	})
}
