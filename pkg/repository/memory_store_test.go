package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

func runMemoryRepositoryTest(t *testing.T, newRepo repoFactory) {
	t.Helper()

	newUserID := func() string {
		return fmt.Sprintf("user-%d", time.Now().UnixNano())
	}

	t.Run("Create assigns key and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()

		created, err := repo.Memory().Create(ctx, &model.Memory{
			UserID:  userID,
			Content: "Prefers prices rounded to .99",
			Metadata: model.MemoryMetadata{
				Category:       types.MemoryCategoryPreference,
				Importance:     types.ImportanceHigh,
				Source:         types.MemorySourceExtraction,
				ConversationID: 7,
			},
			Embedding: []float32{0.1, 0.2, 0.3},
		})
		gt.NoError(t, err).Required()

		gt.String(t, string(created.Key)).NotEqual("")
		gt.Bool(t, created.Metadata.CreatedAt.IsZero()).False()
		gt.Bool(t, created.UpdatedAt.IsZero()).False()

		got, err := repo.Memory().Get(ctx, userID, created.Key)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Content).Equal("Prefers prices rounded to .99")
		gt.Value(t, got.Metadata.Category).Equal(types.MemoryCategoryPreference)
		gt.Value(t, got.Metadata.Importance).Equal(types.ImportanceHigh)
		gt.Value(t, got.Metadata.Source).Equal(types.MemorySourceExtraction)
		gt.Value(t, got.Metadata.ConversationID).Equal(int64(7))
		gt.Array(t, got.Embedding).Length(3)
		gt.Value(t, got.Embedding[1]).Equal(float32(0.2))
	})

	t.Run("Create keeps absent embedding absent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()

		created, err := repo.Memory().Create(ctx, &model.Memory{UserID: userID, Content: "Store is in EU"})
		gt.NoError(t, err).Required()

		got, err := repo.Memory().Get(ctx, userID, created.Key)
		gt.NoError(t, err).Required()
		gt.Value(t, len(got.Embedding)).Equal(0)
	})

	t.Run("Get is scoped by user", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()

		created, err := repo.Memory().Create(ctx, &model.Memory{UserID: userID, Content: "fact"})
		gt.NoError(t, err).Required()

		_, err = repo.Memory().Get(ctx, "someone-else", created.Key)
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()
	})

	t.Run("Update replaces content and keeps creation time", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()

		created, err := repo.Memory().Create(ctx, &model.Memory{UserID: userID, Content: "Ships from Berlin"})
		gt.NoError(t, err).Required()

		upd := created.Copy()
		upd.Content = "Ships from Munich"
		upd.Embedding = []float32{1, 0}
		_, err = repo.Memory().Update(ctx, upd)
		gt.NoError(t, err).Required()

		got, err := repo.Memory().Get(ctx, userID, created.Key)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Content).Equal("Ships from Munich")
		gt.Array(t, got.Embedding).Length(2)
		gt.Bool(t, got.Metadata.CreatedAt.Equal(created.Metadata.CreatedAt)).True()
	})

	t.Run("Update returns not found for missing memory", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Memory().Update(context.Background(), &model.Memory{UserID: newUserID(), Key: "missing", Content: "x"})
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()
	})

	t.Run("Delete removes memory", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()

		created, err := repo.Memory().Create(ctx, &model.Memory{UserID: userID, Content: "Temporary"})
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Memory().Delete(ctx, userID, created.Key)).Required()

		_, err = repo.Memory().Get(ctx, userID, created.Key)
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()

		err = repo.Memory().Delete(ctx, userID, created.Key)
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()
	})

	t.Run("List and ListRecent return newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()

		var keys []model.MemoryKey
		for i := 0; i < 3; i++ {
			m, err := repo.Memory().Create(ctx, &model.Memory{UserID: userID, Content: fmt.Sprintf("fact %d", i)})
			gt.NoError(t, err).Required()
			keys = append(keys, m.Key)
			time.Sleep(5 * time.Millisecond)
		}
		_, err := repo.Memory().Create(ctx, &model.Memory{UserID: "other-" + userID, Content: "other"})
		gt.NoError(t, err).Required()

		all, err := repo.Memory().List(ctx, userID)
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(3)
		gt.Value(t, all[0].Key).Equal(keys[2])
		gt.Value(t, all[2].Key).Equal(keys[0])

		recent, err := repo.Memory().ListRecent(ctx, userID, 2)
		gt.NoError(t, err).Required()
		gt.Array(t, recent).Length(2)
		gt.Value(t, recent[0].Key).Equal(keys[2])
		gt.Value(t, recent[1].Key).Equal(keys[1])

		n, err := repo.Memory().Count(ctx, userID)
		gt.NoError(t, err).Required()
		gt.Value(t, n).Equal(3)
	})

	t.Run("List returns empty for unknown user", func(t *testing.T) {
		repo := newRepo(t)
		memories, err := repo.Memory().List(context.Background(), newUserID())
		gt.NoError(t, err).Required()
		gt.Array(t, memories).Length(0)
	})

	t.Run("Embedding cache round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		hash := fmt.Sprintf("hash-%d", time.Now().UnixNano())

		got, err := repo.EmbeddingCache().Get(ctx, hash)
		gt.NoError(t, err).Required()
		gt.Value(t, got == nil).Equal(true)

		gt.NoError(t, repo.EmbeddingCache().Put(ctx, hash, []float32{0.5, 0.25})).Required()
		got, err = repo.EmbeddingCache().Get(ctx, hash)
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(2)
		gt.Value(t, got[1]).Equal(float32(0.25))
	})
}

func TestMemoryRepository(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, newRepo repoFactory) {
		runMemoryRepositoryTest(t, newRepo)
	})
}
