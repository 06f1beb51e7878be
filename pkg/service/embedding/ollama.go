package embedding

import (
	"context"
	"net/http"
	"net/url"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ollama/ollama/api"
)

// Ollama generates embeddings with a local Ollama server
type Ollama struct {
	client *api.Client
	model  string
}

func NewOllama(baseURL, model string, httpClient *http.Client) (*Ollama, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid ollama URL", goerr.V("url", baseURL))
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if model == "" {
		model = "nomic-embed-text"
	}

	return &Ollama{
		client: api.NewClient(u, httpClient),
		model:  model,
	}, nil
}

func (e *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: text,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "ollama embed failed", goerr.V("model", e.model))
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, goerr.Wrap(ErrEmptyEmbedding, "ollama embedding", goerr.V("model", e.model))
	}
	return resp.Embeddings[0], nil
}
