package embedding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// LLM generates embeddings through a gollem LLM client
type LLM struct {
	client    gollem.LLMClient
	dimension int
}

func NewLLM(client gollem.LLMClient, dimension int) *LLM {
	return &LLM{client: client, dimension: dimension}
}

func (e *LLM) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.client.GenerateEmbedding(ctx, e.dimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding", goerr.V("dimension", e.dimension))
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.Wrap(ErrEmptyEmbedding, "llm embedding")
	}
	return toFloat32(embeddings[0]), nil
}
