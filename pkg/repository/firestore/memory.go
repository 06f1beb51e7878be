package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// memoryDoc is the Firestore document representation of model.Memory.
// Embedding is stored as firestore.Vector32 so a vector index can serve it.
type memoryDoc struct {
	Key            string             `firestore:"Key"`
	UserID         string             `firestore:"UserID"`
	Content        string             `firestore:"Content"`
	Category       string             `firestore:"Category"`
	Importance     string             `firestore:"Importance"`
	Source         string             `firestore:"Source"`
	ConversationID int64              `firestore:"ConversationID"`
	Embedding      firestore.Vector32 `firestore:"Embedding,omitempty"`
	CreatedAt      time.Time          `firestore:"CreatedAt"`
	UpdatedAt      time.Time          `firestore:"UpdatedAt"`
}

func toMemoryDoc(m *model.Memory) *memoryDoc {
	doc := &memoryDoc{
		Key:            string(m.Key),
		UserID:         m.UserID,
		Content:        m.Content,
		Category:       string(m.Metadata.Category),
		Importance:     string(m.Metadata.Importance),
		Source:         string(m.Metadata.Source),
		ConversationID: m.Metadata.ConversationID,
		CreatedAt:      m.Metadata.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if len(m.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(m.Embedding)
	}
	return doc
}

func fromMemoryDoc(d *memoryDoc) *model.Memory {
	m := &model.Memory{
		Key:     model.MemoryKey(d.Key),
		UserID:  d.UserID,
		Content: d.Content,
		Metadata: model.MemoryMetadata{
			Category:       types.MemoryCategory(d.Category),
			Importance:     types.Importance(d.Importance),
			Source:         types.MemorySource(d.Source),
			ConversationID: d.ConversationID,
			CreatedAt:      d.CreatedAt,
		},
		UpdatedAt: d.UpdatedAt,
	}
	if len(d.Embedding) > 0 {
		m.Embedding = []float32(d.Embedding)
	}
	return m
}

type memoryRepository struct {
	client *firestore.Client
	cols   *collections
}

// memoriesCollection returns users/{userID}/memories
func (r *memoryRepository) memoriesCollection(userID string) *firestore.CollectionRef {
	return r.client.Collection(r.cols.users()).Doc(userID).Collection("memories")
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

	if _, err := r.memoriesCollection(created.UserID).Doc(string(created.Key)).Create(ctx, toMemoryDoc(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create memory", goerr.V(model.UserIDKey, created.UserID))
	}
	return created, nil
}

func (r *memoryRepository) Get(ctx context.Context, userID string, key model.MemoryKey) (*model.Memory, error) {
	snap, err := r.memoriesCollection(userID).Doc(string(key)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "memory not found", goerr.V(model.UserIDKey, userID), goerr.V(model.MemoryKeyKey, key))
		}
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V(model.MemoryKeyKey, key))
	}

	var d memoryDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal memory", goerr.V(model.MemoryKeyKey, key))
	}
	return fromMemoryDoc(&d), nil
}

func (r *memoryRepository) Update(ctx context.Context, mem *model.Memory) (*model.Memory, error) {
	current, err := r.Get(ctx, mem.UserID, mem.Key)
	if err != nil {
		return nil, err
	}

	updated := mem.Copy()
	updated.Metadata.CreatedAt = current.Metadata.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := r.memoriesCollection(updated.UserID).Doc(string(updated.Key)).Set(ctx, toMemoryDoc(updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update memory", goerr.V(model.MemoryKeyKey, updated.Key))
	}
	return updated, nil
}

func (r *memoryRepository) Delete(ctx context.Context, userID string, key model.MemoryKey) error {
	docRef := r.memoriesCollection(userID).Doc(string(key))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrNotFound, "memory not found", goerr.V(model.UserIDKey, userID), goerr.V(model.MemoryKeyKey, key))
		}
		return goerr.Wrap(err, "failed to get memory", goerr.V(model.MemoryKeyKey, key))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete memory", goerr.V(model.MemoryKeyKey, key))
	}
	return nil
}

func (r *memoryRepository) List(ctx context.Context, userID string) ([]*model.Memory, error) {
	return r.ListRecent(ctx, userID, 0)
}

func (r *memoryRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*model.Memory, error) {
	q := r.memoriesCollection(userID).OrderBy("CreatedAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	memories := make([]*model.Memory, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memories", goerr.V(model.UserIDKey, userID))
		}

		var d memoryDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal memory")
		}
		memories = append(memories, fromMemoryDoc(&d))
	}
	return memories, nil
}

func (r *memoryRepository) Count(ctx context.Context, userID string) (int, error) {
	result, err := r.memoriesCollection(userID).NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count memories", goerr.V(model.UserIDKey, userID))
	}

	v, ok := result["total"]
	if !ok {
		return 0, goerr.New("count aggregation result missing", goerr.V(model.UserIDKey, userID))
	}
	return countValue(v)
}

type embeddingCacheDoc struct {
	Vector    firestore.Vector32 `firestore:"Vector"`
	CreatedAt time.Time          `firestore:"CreatedAt"`
}

type embeddingCacheRepository struct {
	client *firestore.Client
	cols   *collections
}

func (r *embeddingCacheRepository) Get(ctx context.Context, hash string) ([]float32, error) {
	snap, err := r.client.Collection(r.cols.embeddingCache()).Doc(hash).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get cached embedding", goerr.V("hash", hash))
	}

	var d embeddingCacheDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode cached embedding", goerr.V("hash", hash))
	}
	return []float32(d.Vector), nil
}

func (r *embeddingCacheRepository) Put(ctx context.Context, hash string, vector []float32) error {
	if _, err := r.client.Collection(r.cols.embeddingCache()).Doc(hash).Set(ctx, embeddingCacheDoc{
		Vector:    firestore.Vector32(vector),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return goerr.Wrap(err, "failed to cache embedding", goerr.V("hash", hash))
	}
	return nil
}
