package memory

import (
	"context"
	"sync"
)

type embeddingCacheRepository struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

func newEmbeddingCacheRepository() *embeddingCacheRepository {
	return &embeddingCacheRepository{
		vectors: make(map[string][]float32),
	}
}

func (r *embeddingCacheRepository) Get(ctx context.Context, hash string) ([]float32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.vectors[hash]
	if !ok {
		return nil, nil
	}
	copied := make([]float32, len(v))
	copy(copied, v)
	return copied, nil
}

func (r *embeddingCacheRepository) Put(ctx context.Context, hash string, vector []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := make([]float32, len(vector))
	copy(copied, vector)
	r.vectors[hash] = copied
	return nil
}
