package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
)

type memoryRepository struct {
	mu      sync.RWMutex
	entries map[string]map[model.MemoryKey]*model.Memory
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		entries: make(map[string]map[model.MemoryKey]*model.Memory),
	}
}

func (r *memoryRepository) Create(ctx context.Context, mem *model.Memory) (*model.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[mem.UserID]; !exists {
		r.entries[mem.UserID] = make(map[model.MemoryKey]*model.Memory)
	}

	created := mem.Copy()
	if created.Key == "" {
		created.Key = model.NewMemoryKey()
	}
	now := time.Now().UTC()
	if created.Metadata.CreatedAt.IsZero() {
		created.Metadata.CreatedAt = now
	}
	created.UpdatedAt = now

	r.entries[mem.UserID][created.Key] = created
	return created.Copy(), nil
}

func (r *memoryRepository) Get(ctx context.Context, userID string, key model.MemoryKey) (*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mem, exists := r.entries[userID][key]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "memory not found", goerr.V(model.UserIDKey, userID), goerr.V(model.MemoryKeyKey, key))
	}
	return mem.Copy(), nil
}

func (r *memoryRepository) Update(ctx context.Context, mem *model.Memory) (*model.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.entries[mem.UserID][mem.Key]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "memory not found", goerr.V(model.UserIDKey, mem.UserID), goerr.V(model.MemoryKeyKey, mem.Key))
	}

	updated := mem.Copy()
	updated.Metadata.CreatedAt = current.Metadata.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.entries[mem.UserID][mem.Key] = updated
	return updated.Copy(), nil
}

func (r *memoryRepository) Delete(ctx context.Context, userID string, key model.MemoryKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[userID][key]; !exists {
		return goerr.Wrap(model.ErrNotFound, "memory not found", goerr.V(model.UserIDKey, userID), goerr.V(model.MemoryKeyKey, key))
	}
	delete(r.entries[userID], key)
	return nil
}

func (r *memoryRepository) List(ctx context.Context, userID string) ([]*model.Memory, error) {
	return r.ListRecent(ctx, userID, 0)
}

func (r *memoryRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.entries[userID]
	result := make([]*model.Memory, 0, len(bucket))
	for _, m := range bucket {
		result = append(result, m.Copy())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Metadata.CreatedAt.After(result[j].Metadata.CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *memoryRepository) Count(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries[userID]), nil
}
