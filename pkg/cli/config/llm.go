package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/service/agent"
	"github.com/urfave/cli/v3"
)

const (
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
)

// LLM holds configuration for the agent runtime and its model provider
type LLM struct {
	provider        string
	geminiProject   string
	geminiLocation  string
	anthropicAPIKey string
	anthropicModel  string
}

// Flags returns CLI flags for LLM configuration
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "Agent runtime provider (gemini or claude)",
			Value:       ProviderGemini,
			Category:    "LLM",
			Sources:     cli.EnvVars("SHOPMATE_LLM_PROVIDER"),
			Destination: &l.provider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Category:    "LLM",
			Sources:     cli.EnvVars("SHOPMATE_GEMINI_PROJECT"),
			Destination: &l.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Category:    "LLM",
			Sources:     cli.EnvVars("SHOPMATE_GEMINI_LOCATION"),
			Destination: &l.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key (claude provider)",
			Category:    "LLM",
			Sources:     cli.EnvVars("SHOPMATE_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"),
			Destination: &l.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "anthropic-model",
			Usage:       "Anthropic model name (claude provider)",
			Value:       agent.DefaultAnthropicModel,
			Category:    "LLM",
			Sources:     cli.EnvVars("SHOPMATE_ANTHROPIC_MODEL"),
			Destination: &l.anthropicModel,
		},
	}
}

// Provider returns the configured provider name
func (l *LLM) Provider() string {
	return l.provider
}

// LogValue omits the API key
func (l LLM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", l.provider),
		slog.String("gemini_project", l.geminiProject),
		slog.String("gemini_location", l.geminiLocation),
		slog.String("anthropic_model", l.anthropicModel),
	)
}

// GeminiClient creates the Gemini client used by the native runtime and
// LLM embeddings. Returns nil when no project is configured.
func (l *LLM) GeminiClient(ctx context.Context) (gollem.LLMClient, error) {
	if l.geminiProject == "" {
		return nil, nil
	}

	client, err := gemini.New(ctx, l.geminiProject, l.geminiLocation)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client")
	}
	return client, nil
}

// Configure builds the agent runner for the configured provider. client is
// the Gemini client from GeminiClient and is only used by the gemini provider.
func (l *LLM) Configure(client gollem.LLMClient, opts ...agent.Option) (interfaces.AgentRunner, error) {
	switch l.provider {
	case "", ProviderGemini:
		if client == nil {
			return nil, goerr.Wrap(ErrMissingParameter, "gemini-project is required for the gemini provider",
				goerr.V(ParameterKey, "gemini-project"))
		}
		return agent.NewGollemRunner(client, opts...), nil

	case ProviderClaude:
		if l.anthropicAPIKey == "" {
			return nil, goerr.Wrap(ErrMissingParameter, "anthropic-api-key is required for the claude provider",
				goerr.V(ParameterKey, "anthropic-api-key"))
		}
		return agent.NewAnthropicRunner(agent.NewAnthropicClient(l.anthropicAPIKey), l.anthropicModel, opts...), nil

	default:
		return nil, goerr.Wrap(ErrUnknownProvider, "invalid llm provider", goerr.V(ProviderKey, l.provider))
	}
}
