package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound   = goerr.New("configuration file not found")
	ErrInvalidConfig    = goerr.New("invalid configuration")
	ErrUnknownBackend   = goerr.New("unknown repository backend")
	ErrUnknownProvider  = goerr.New("unknown provider")
	ErrMissingParameter = goerr.New("required parameter is missing")
	ErrInvalidServer    = goerr.New("invalid MCP server spec, expected name=url")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	BackendKey    = "backend"
	ProviderKey   = "provider"
	ParameterKey  = "parameter"
	ServerSpecKey = "server_spec"
)
