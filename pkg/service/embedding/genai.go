package embedding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// GenAI generates embeddings with the Gemini API using an API key
type GenAI struct {
	client    *genai.Client
	model     string
	taskType  string
	dimension int32
}

func NewGenAI(ctx context.Context, apiKey, model string, dimension int) (*GenAI, error) {
	if apiKey == "" {
		return nil, goerr.New("genai API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	return &GenAI{
		client:    client,
		model:     model,
		taskType:  "SEMANTIC_SIMILARITY",
		dimension: int32(dimension),
	}, nil
}

func (e *GenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	cfg := &genai.EmbedContentConfig{TaskType: e.taskType}
	if e.dimension > 0 {
		dim := e.dimension
		cfg.OutputDimensionality = &dim
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		cfg,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "genai embed failed", goerr.V("model", e.model))
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, goerr.Wrap(ErrEmptyEmbedding, "genai embedding", goerr.V("model", e.model))
	}
	return result.Embeddings[0].Values, nil
}
