package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
)

// memoryValue is the value_json column of user_memories
type memoryValue struct {
	Content   string               `json:"content"`
	Metadata  model.MemoryMetadata `json:"metadata"`
	Embedding []float32            `json:"embedding,omitempty"`
}

type memoryRepository struct {
	db *sql.DB
}

const memoryColumns = `user_id, key, value_json, updated_at`

func scanMemory(scan func(dest ...any) error) (*model.Memory, error) {
	var (
		mem       model.Memory
		key       string
		raw       string
		updatedAt int64
	)
	if err := scan(&mem.UserID, &key, &raw, &updatedAt); err != nil {
		return nil, err
	}

	var v memoryValue
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal memory value", goerr.V(model.MemoryKeyKey, key))
	}
	mem.Key = model.MemoryKey(key)
	mem.Content = v.Content
	mem.Metadata = v.Metadata
	mem.Embedding = v.Embedding
	mem.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &mem, nil
}

func marshalMemoryValue(mem *model.Memory) (string, error) {
	raw, err := json.Marshal(memoryValue{
		Content:   mem.Content,
		Metadata:  mem.Metadata,
		Embedding: mem.Embedding,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal memory value", goerr.V(model.MemoryKeyKey, mem.Key))
	}
	return string(raw), nil
}

func (r *memoryRepository) Create(ctx context.Context, mem *model.Memory) (*model.Memory, error) {
	created := mem.Copy()
	if created.Key == "" {
		created.Key = model.NewMemoryKey()
	}
	now := time.Now().UTC()
	if created.Metadata.CreatedAt.IsZero() {
		created.Metadata.CreatedAt = now
	}
	created.UpdatedAt = now

	raw, err := marshalMemoryValue(created)
	if err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO user_memories(user_id, key, value_json, created_at, updated_at) VALUES(?, ?, ?, ?, ?)`,
		created.UserID, string(created.Key), raw, created.Metadata.CreatedAt.UnixNano(), now.UnixNano()); err != nil {
		return nil, goerr.Wrap(err, "failed to insert memory", goerr.V(model.UserIDKey, created.UserID))
	}
	return created, nil
}

func (r *memoryRepository) Get(ctx context.Context, userID string, key model.MemoryKey) (*model.Memory, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memoryColumns+` FROM user_memories WHERE user_id = ? AND key = ?`, userID, string(key))
	mem, err := scanMemory(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(model.ErrNotFound, "memory not found", goerr.V(model.UserIDKey, userID), goerr.V(model.MemoryKeyKey, key))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V(model.UserIDKey, userID), goerr.V(model.MemoryKeyKey, key))
	}
	return mem, nil
}

func (r *memoryRepository) Update(ctx context.Context, mem *model.Memory) (*model.Memory, error) {
	current, err := r.Get(ctx, mem.UserID, mem.Key)
	if err != nil {
		return nil, err
	}

	updated := mem.Copy()
	updated.Metadata.CreatedAt = current.Metadata.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	raw, err := marshalMemoryValue(updated)
	if err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE user_memories SET value_json = ?, updated_at = ? WHERE user_id = ? AND key = ?`,
		raw, updated.UpdatedAt.UnixNano(), updated.UserID, string(updated.Key)); err != nil {
		return nil, goerr.Wrap(err, "failed to update memory", goerr.V(model.MemoryKeyKey, updated.Key))
	}
	return updated, nil
}

func (r *memoryRepository) Delete(ctx context.Context, userID string, key model.MemoryKey) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_memories WHERE user_id = ? AND key = ?`, userID, string(key))
	if err != nil {
		return goerr.Wrap(err, "failed to delete memory", goerr.V(model.MemoryKeyKey, key))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return goerr.Wrap(model.ErrNotFound, "memory not found", goerr.V(model.UserIDKey, userID), goerr.V(model.MemoryKeyKey, key))
	}
	return nil
}

func (r *memoryRepository) List(ctx context.Context, userID string) ([]*model.Memory, error) {
	return r.ListRecent(ctx, userID, -1)
}

func (r *memoryRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*model.Memory, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+memoryColumns+` FROM user_memories WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V(model.UserIDKey, userID))
	}
	defer rows.Close()

	result := make([]*model.Memory, 0)
	for rows.Next() {
		mem, err := scanMemory(rows.Scan)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan memory")
		}
		result = append(result, mem)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate memories")
	}
	return result, nil
}

func (r *memoryRepository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_memories WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, goerr.Wrap(err, "failed to count memories", goerr.V(model.UserIDKey, userID))
	}
	return n, nil
}

type embeddingCacheRepository struct {
	db *sql.DB
}

func (r *embeddingCacheRepository) Get(ctx context.Context, hash string) ([]float32, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT vector_json FROM embedding_cache WHERE hash = ?`, hash).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get cached embedding", goerr.V("hash", hash))
	}

	var vector []float32
	if err := json.Unmarshal([]byte(raw), &vector); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal cached embedding", goerr.V("hash", hash))
	}
	return vector, nil
}

func (r *embeddingCacheRepository) Put(ctx context.Context, hash string, vector []float32) error {
	raw, err := json.Marshal(vector)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal embedding", goerr.V("hash", hash))
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO embedding_cache(hash, vector_json, created_at) VALUES(?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET vector_json = excluded.vector_json`,
		hash, string(raw), time.Now().UTC().UnixNano()); err != nil {
		return goerr.Wrap(err, "failed to cache embedding", goerr.V("hash", hash))
	}
	return nil
}
