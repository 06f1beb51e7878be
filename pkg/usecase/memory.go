package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/agent/tool/core"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/model/config"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
)

// MemoryUseCase is the per-user semantic memory store. It deduplicates facts
// at write time, ranks them by similarity on read and prunes by importance.
type MemoryUseCase struct {
	repo     interfaces.Repository
	embedder interfaces.Embedder
	cfg      config.MemoryConfig
	now      func() time.Time
}

var _ core.MemoryService = (*MemoryUseCase)(nil)

// NewMemoryUseCase creates a MemoryUseCase. embedder may be nil, in which case
// memories are stored without embeddings and compared by word overlap.
func NewMemoryUseCase(repo interfaces.Repository, embedder interfaces.Embedder, cfg config.MemoryConfig) *MemoryUseCase {
	return &MemoryUseCase{
		repo:     repo,
		embedder: embedder,
		cfg:      cfg,
		now:      time.Now,
	}
}

// embed returns nil when no embedder is configured or the provider fails
func (uc *MemoryUseCase) embed(ctx context.Context, text string) []float32 {
	if uc.embedder == nil {
		return nil
	}
	vec, err := uc.embedder.Embed(ctx, text)
	if err != nil {
		logging.From(ctx).Warn("embedding unavailable, continuing without vector", "error", err.Error())
		return nil
	}
	return vec
}

// Add stores content unless a near-duplicate exists among the user's recent
// memories, in which case the existing memory is returned with created=false.
func (uc *MemoryUseCase) Add(ctx context.Context, userID, content string, meta model.MemoryMetadata) (*model.Memory, bool, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, false, goerr.Wrap(ErrEmptyContent, "cannot add memory", goerr.V(model.UserIDKey, userID))
	}

	now := uc.now()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	mem := &model.Memory{
		UserID:    userID,
		Content:   content,
		Metadata:  meta,
		UpdatedAt: now,
	}
	if err := mem.Validate(); err != nil {
		return nil, false, err
	}

	mem.Embedding = uc.embed(ctx, content)

	recent, err := uc.repo.Memory().ListRecent(ctx, userID, uc.cfg.DedupWindow)
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to list recent memories", goerr.V(model.UserIDKey, userID))
	}
	for _, existing := range recent {
		sim := contentSimilarity(content, mem.Embedding, existing.Content, existing.Embedding)
		if sim >= uc.cfg.DedupThreshold {
			logging.From(ctx).Debug("duplicate memory skipped",
				"user_id", userID,
				"existing_key", existing.Key,
				"similarity", sim)
			return existing, false, nil
		}
	}

	created, err := uc.repo.Memory().Create(ctx, mem)
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to create memory", goerr.V(model.UserIDKey, userID))
	}

	pruned, err := uc.prune(ctx, userID, uc.cfg.MaxPerUser)
	if err != nil {
		logging.From(ctx).Warn("failed to prune memories", "user_id", userID, "error", err.Error())
	}
	if slices.Contains(pruned, created.Key) {
		return nil, false, goerr.Wrap(ErrMemoryPruned, "memory store is full of higher ranked memories",
			goerr.V(model.UserIDKey, userID),
			goerr.V(model.MemoryKeyKey, created.Key),
			goerr.V("importance", created.Metadata.Importance))
	}

	return created, true, nil
}

type scoredMemory struct {
	mem   *model.Memory
	score float64
}

// Search returns up to limit memories relevant to query. Without a query
// embedding it falls back to substring matching, then to word overlap.
func (uc *MemoryUseCase) Search(ctx context.Context, query, userID string, limit int) ([]*model.Memory, error) {
	all, err := uc.repo.Memory().List(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V(model.UserIDKey, userID))
	}
	if limit <= 0 {
		limit = len(all)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return truncate(all, limit), nil
	}

	qvec := uc.embed(ctx, query)
	if len(qvec) == 0 {
		return textSearch(all, query, limit), nil
	}

	scored := make([]scoredMemory, len(all))
	for i, m := range all {
		scored[i] = scoredMemory{mem: m, score: CosineSimilarity(qvec, m.Embedding)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	results := make([]*model.Memory, 0, limit)
	for i := 0; i < len(scored) && i < limit; i++ {
		results = append(results, scored[i].mem)
	}
	return results, nil
}

// textSearch expects memories newest first
func textSearch(all []*model.Memory, query string, limit int) []*model.Memory {
	needle := strings.ToLower(query)
	var hits []*model.Memory
	for _, m := range all {
		if strings.Contains(strings.ToLower(m.Content), needle) {
			hits = append(hits, m)
		}
	}
	if len(hits) > 0 {
		return truncate(hits, limit)
	}

	var scored []scoredMemory
	for _, m := range all {
		if s := JaccardSimilarity(query, m.Content); s > 0 {
			scored = append(scored, scoredMemory{mem: m, score: s})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	results := make([]*model.Memory, 0, len(scored))
	for _, s := range scored {
		results = append(results, s.mem)
	}
	return truncate(results, limit)
}

func truncate(memories []*model.Memory, limit int) []*model.Memory {
	if limit >= 0 && len(memories) > limit {
		return memories[:limit]
	}
	return memories
}

// Prune keeps the max most important memories (newest first within the same
// importance) and deletes the rest
func (uc *MemoryUseCase) Prune(ctx context.Context, userID string, max int) (int, error) {
	deleted, err := uc.prune(ctx, userID, max)
	return len(deleted), err
}

// prune returns the keys it deleted, including those deleted before a failure
func (uc *MemoryUseCase) prune(ctx context.Context, userID string, max int) ([]model.MemoryKey, error) {
	if max < 0 {
		return nil, goerr.New("max must not be negative", goerr.V("max", max))
	}

	count, err := uc.repo.Memory().Count(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count memories", goerr.V(model.UserIDKey, userID))
	}
	if count <= max {
		return nil, nil
	}

	all, err := uc.repo.Memory().List(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V(model.UserIDKey, userID))
	}

	sort.SliceStable(all, func(i, j int) bool {
		ri, rj := all[i].Metadata.Importance.Rank(), all[j].Metadata.Importance.Rank()
		if ri != rj {
			return ri > rj
		}
		return all[i].Metadata.CreatedAt.After(all[j].Metadata.CreatedAt)
	})

	var deleted []model.MemoryKey
	for _, m := range all[max:] {
		if err := uc.repo.Memory().Delete(ctx, userID, m.Key); err != nil {
			return deleted, goerr.Wrap(err, "failed to delete memory", goerr.V(model.MemoryKeyKey, m.Key))
		}
		deleted = append(deleted, m.Key)
	}

	logging.From(ctx).Info("pruned memories", "user_id", userID, "deleted", len(deleted), "max", max)
	return deleted, nil
}

// MemoryUpdate carries the fields to replace. Empty fields are left unchanged.
type MemoryUpdate struct {
	Content  string
	Metadata model.MemoryMetadata
}

// Update replaces the given fields and re-embeds when the content changed
func (uc *MemoryUseCase) Update(ctx context.Context, userID string, key model.MemoryKey, upd MemoryUpdate) (*model.Memory, error) {
	mem, err := uc.Get(ctx, userID, key)
	if err != nil {
		return nil, err
	}

	if content := strings.TrimSpace(upd.Content); content != "" && content != mem.Content {
		mem.Content = content
		mem.Embedding = uc.embed(ctx, content)
	}
	if upd.Metadata.Category != "" {
		mem.Metadata.Category = upd.Metadata.Category
	}
	if upd.Metadata.Importance != "" {
		mem.Metadata.Importance = upd.Metadata.Importance
	}
	mem.UpdatedAt = uc.now()

	if err := mem.Validate(); err != nil {
		return nil, err
	}

	updated, err := uc.repo.Memory().Update(ctx, mem)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update memory", goerr.V(model.MemoryKeyKey, key))
	}
	return updated, nil
}

func (uc *MemoryUseCase) Delete(ctx context.Context, userID string, key model.MemoryKey) error {
	if err := uc.repo.Memory().Delete(ctx, userID, key); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return goerr.Wrap(ErrMemoryNotFound, "cannot delete memory", goerr.V(model.MemoryKeyKey, key))
		}
		return goerr.Wrap(err, "failed to delete memory", goerr.V(model.MemoryKeyKey, key))
	}
	return nil
}

func (uc *MemoryUseCase) Get(ctx context.Context, userID string, key model.MemoryKey) (*model.Memory, error) {
	mem, err := uc.repo.Memory().Get(ctx, userID, key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(ErrMemoryNotFound, "cannot get memory", goerr.V(model.MemoryKeyKey, key))
		}
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V(model.MemoryKeyKey, key))
	}
	return mem, nil
}

// List returns all memories of the user, newest first
func (uc *MemoryUseCase) List(ctx context.Context, userID string) ([]*model.Memory, error) {
	memories, err := uc.repo.Memory().List(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V(model.UserIDKey, userID))
	}
	return memories, nil
}

// Context renders memories relevant to query as a bullet list for prompts.
// It returns an empty string when nothing is found or the lookup fails.
func (uc *MemoryUseCase) Context(ctx context.Context, userID, query string, limit int) string {
	memories, err := uc.Search(ctx, query, userID, limit)
	if err != nil {
		logging.From(ctx).Warn("memory context unavailable", "user_id", userID, "error", err.Error())
		return ""
	}
	if len(memories) == 0 {
		return ""
	}

	var b strings.Builder
	for _, m := range memories {
		fmt.Fprintf(&b, "- [%s] %s\n", m.Metadata.Category, m.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
