package interfaces

import (
	"context"

	"github.com/shopmate-ai/shopmate/pkg/domain/model"
)

// MemoryRepository defines the interface for per-user Memory persistence
type MemoryRepository interface {
	// Create stores a new memory. A missing key is generated.
	Create(ctx context.Context, mem *model.Memory) (*model.Memory, error)

	// Get retrieves a memory by key
	Get(ctx context.Context, userID string, key model.MemoryKey) (*model.Memory, error)

	// Update replaces content, metadata and embedding of an existing memory
	Update(ctx context.Context, mem *model.Memory) (*model.Memory, error)

	// Delete hard-deletes a memory by key
	Delete(ctx context.Context, userID string, key model.MemoryKey) error

	// List retrieves all memories of a user, newest first
	List(ctx context.Context, userID string) ([]*model.Memory, error)

	// ListRecent retrieves at most limit memories of a user, newest first
	ListRecent(ctx context.Context, userID string, limit int) ([]*model.Memory, error)

	// Count returns the number of memories of a user
	Count(ctx context.Context, userID string) (int, error)
}

// EmbeddingCacheRepository stores embeddings keyed by a content hash
type EmbeddingCacheRepository interface {
	// Get returns nil without error when the hash is not cached
	Get(ctx context.Context, hash string) ([]float32, error)
	Put(ctx context.Context, hash string, vector []float32) error
}
