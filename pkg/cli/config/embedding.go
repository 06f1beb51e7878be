package config

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/service/embedding"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	EmbeddingLLM    = "llm"
	EmbeddingOllama = "ollama"
	EmbeddingGenAI  = "genai"
	EmbeddingNone   = "none"

	DefaultEmbeddingDimension = 768
)

// Embedding holds CLI flags for the memory embedding provider
type Embedding struct {
	provider    string
	dimension   int
	ollamaURL   string
	ollamaModel string
	genaiAPIKey string
	genaiModel  string
	cacheSize   int
}

func (e *Embedding) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "embedding-provider",
			Usage:       "Embedding provider (llm, ollama, genai or none)",
			Value:       EmbeddingLLM,
			Category:    "Embedding",
			Sources:     cli.EnvVars("SHOPMATE_EMBEDDING_PROVIDER"),
			Destination: &e.provider,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Usage:       "Embedding vector dimension",
			Value:       DefaultEmbeddingDimension,
			Category:    "Embedding",
			Sources:     cli.EnvVars("SHOPMATE_EMBEDDING_DIMENSION"),
			Destination: &e.dimension,
		},
		&cli.StringFlag{
			Name:        "ollama-url",
			Usage:       "Ollama server URL (ollama provider)",
			Value:       "http://localhost:11434",
			Category:    "Embedding",
			Sources:     cli.EnvVars("SHOPMATE_OLLAMA_URL"),
			Destination: &e.ollamaURL,
		},
		&cli.StringFlag{
			Name:        "ollama-model",
			Usage:       "Ollama embedding model (ollama provider)",
			Value:       "nomic-embed-text",
			Category:    "Embedding",
			Sources:     cli.EnvVars("SHOPMATE_OLLAMA_MODEL"),
			Destination: &e.ollamaModel,
		},
		&cli.StringFlag{
			Name:        "genai-api-key",
			Usage:       "Gemini API key (genai provider)",
			Category:    "Embedding",
			Sources:     cli.EnvVars("SHOPMATE_GENAI_API_KEY", "GEMINI_API_KEY"),
			Destination: &e.genaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "genai-model",
			Usage:       "Gemini embedding model (genai provider)",
			Value:       "gemini-embedding-001",
			Category:    "Embedding",
			Sources:     cli.EnvVars("SHOPMATE_GENAI_MODEL"),
			Destination: &e.genaiModel,
		},
		&cli.IntFlag{
			Name:        "embedding-cache-size",
			Usage:       "Number of embeddings cached in process",
			Value:       10000,
			Category:    "Embedding",
			Sources:     cli.EnvVars("SHOPMATE_EMBEDDING_CACHE_SIZE"),
			Destination: &e.cacheSize,
		},
	}
}

// Provider returns the configured provider name
func (e *Embedding) Provider() string {
	return e.provider
}

func (e *Embedding) namespace(model string) string {
	return fmt.Sprintf("%s/%s/%d", e.provider, model, e.dimension)
}

// Configure builds the embedder wrapped in the two level cache. It returns
// nil for the none provider, leaving memory search on word overlap. llm may
// be nil unless the llm provider is selected. l2 may be nil.
func (e *Embedding) Configure(ctx context.Context, llm gollem.LLMClient, l2 interfaces.EmbeddingCacheRepository) (*embedding.Cached, error) {
	var inner interfaces.Embedder
	var model string

	switch e.provider {
	case EmbeddingNone:
		logging.Default().Info("Embeddings disabled, memory search uses word overlap")
		return nil, nil

	case "", EmbeddingLLM:
		if llm == nil {
			return nil, goerr.Wrap(ErrMissingParameter, "llm embedding provider requires gemini-project",
				goerr.V(ParameterKey, "gemini-project"))
		}
		inner = embedding.NewLLM(llm, e.dimension)
		model = "gemini"

	case EmbeddingOllama:
		emb, err := embedding.NewOllama(e.ollamaURL, e.ollamaModel, nil)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure ollama embeddings")
		}
		inner = emb
		model = e.ollamaModel

	case EmbeddingGenAI:
		if e.genaiAPIKey == "" {
			return nil, goerr.Wrap(ErrMissingParameter, "genai-api-key is required for the genai provider",
				goerr.V(ParameterKey, "genai-api-key"))
		}
		emb, err := embedding.NewGenAI(ctx, e.genaiAPIKey, e.genaiModel, e.dimension)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure genai embeddings")
		}
		inner = emb
		model = e.genaiModel

	default:
		return nil, goerr.Wrap(ErrUnknownProvider, "invalid embedding provider", goerr.V(ProviderKey, e.provider))
	}

	cached, err := embedding.NewCached(inner, e.namespace(model), int64(e.cacheSize), l2)
	if err != nil {
		return nil, err
	}
	logging.Default().Info("Embeddings enabled", "provider", e.provider, "model", model, "dimension", e.dimension)
	return cached, nil
}
