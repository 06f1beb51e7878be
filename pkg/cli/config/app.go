package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/shopmate-ai/shopmate/pkg/domain/model/config"
	"github.com/urfave/cli/v3"
)

// App holds the CLI flag pointing at the TOML tunables file
type App struct {
	path string
}

func (a *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to TOML config file. Built-in defaults are used when empty",
			Sources:     cli.EnvVars("SHOPMATE_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Configure loads the TOML file over the built-in defaults
func (a *App) Configure() (*domainConfig.AppConfig, error) {
	if a.path == "" {
		return domainConfig.DefaultAppConfig(), nil
	}
	return LoadAppConfiguration(a.path)
}

// duration accepts Go duration strings such as "25s" or "1h"
type duration struct {
	time.Duration
	set bool
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return goerr.Wrap(ErrInvalidConfig, "invalid duration", goerr.V("value", string(text)))
	}
	d.Duration = v
	d.set = true
	return nil
}

// AppConfig is the TOML layout. Unset keys keep their defaults.
type AppConfig struct {
	Planner struct {
		HistoryWindow *int `toml:"history_window"`
	} `toml:"planner"`
	Memory struct {
		DedupThreshold *float64 `toml:"dedup_threshold"`
		DedupWindow    *int     `toml:"dedup_window"`
		MaxPerUser     *int     `toml:"max_per_user"`
	} `toml:"memory"`
	Extraction struct {
		Timeout  duration `toml:"timeout"`
		MaxFacts *int     `toml:"max_facts"`
	} `toml:"extraction"`
	Thread struct {
		SweepInterval duration `toml:"sweep_interval"`
		IdleTimeout   duration `toml:"idle_timeout"`
		LogSize       *int     `toml:"log_size"`
	} `toml:"thread"`
	Agent struct {
		MaxIterations *int `toml:"max_iterations"`
	} `toml:"agent"`
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v duration) {
	if v.set {
		*dst = v.Duration
	}
}

// ToDomainConfig merges the file values over the built-in defaults
func (a *AppConfig) ToDomainConfig() *domainConfig.AppConfig {
	cfg := domainConfig.DefaultAppConfig()

	setInt(&cfg.Planner.HistoryWindow, a.Planner.HistoryWindow)

	if a.Memory.DedupThreshold != nil {
		cfg.Memory.DedupThreshold = *a.Memory.DedupThreshold
	}
	setInt(&cfg.Memory.DedupWindow, a.Memory.DedupWindow)
	setInt(&cfg.Memory.MaxPerUser, a.Memory.MaxPerUser)

	setDuration(&cfg.Extraction.Timeout, a.Extraction.Timeout)
	setInt(&cfg.Extraction.MaxFacts, a.Extraction.MaxFacts)

	setDuration(&cfg.Thread.SweepInterval, a.Thread.SweepInterval)
	setDuration(&cfg.Thread.IdleTimeout, a.Thread.IdleTimeout)
	setInt(&cfg.Thread.LogSize, a.Thread.LogSize)

	setInt(&cfg.Agent.MaxIterations, a.Agent.MaxIterations)

	return cfg
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*domainConfig.AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var file AppConfig
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config", goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	cfg := file.ToDomainConfig()
	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "config validation failed", goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	return cfg, nil
}
