package core_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/shopmate-ai/shopmate/pkg/agent/tool"
	"github.com/shopmate-ai/shopmate/pkg/agent/tool/core"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

func newCtxWithProgressCapture() (context.Context, *[]string) {
	var messages []string
	ctx := tool.WithProgress(context.Background(), func(_ context.Context, msg string) {
		messages = append(messages, msg)
	})
	return ctx, &messages
}

type mockMemoryService struct {
	mu       sync.Mutex
	added    []*model.Memory
	deleted  []model.MemoryKey
	addFn    func(ctx context.Context, userID, content string, meta model.MemoryMetadata) (*model.Memory, bool, error)
	searchFn func(ctx context.Context, query, userID string, limit int) ([]*model.Memory, error)
}

func (m *mockMemoryService) Add(ctx context.Context, userID, content string, meta model.MemoryMetadata) (*model.Memory, bool, error) {
	if m.addFn != nil {
		return m.addFn(ctx, userID, content, meta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mem := &model.Memory{Key: model.NewMemoryKey(), UserID: userID, Content: content, Metadata: meta}
	m.added = append(m.added, mem)
	return mem, true, nil
}

func (m *mockMemoryService) Search(ctx context.Context, query, userID string, limit int) ([]*model.Memory, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, userID, limit)
	}
	return nil, nil
}

func (m *mockMemoryService) List(ctx context.Context, userID string) ([]*model.Memory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.added, nil
}

func (m *mockMemoryService) Delete(ctx context.Context, userID string, key model.MemoryKey) error {
	m.deleted = append(m.deleted, key)
	return nil
}

func findTool(t *testing.T, tools []gollem.Tool, name string) gollem.Tool {
	t.Helper()
	for _, tl := range tools {
		if tl.Spec().Name == name {
			return tl
		}
	}
	t.Fatalf("tool %s not found", name)
	return nil
}

func TestMemoryTools(t *testing.T) {
	t.Run("create stores with tool source", func(t *testing.T) {
		svc := &mockMemoryService{}
		tools := core.NewMemoryTools(svc, "u1", 7)
		ctx, progress := newCtxWithProgressCapture()

		out, err := findTool(t, tools, "core__create_memory").Run(ctx, map[string]any{
			"content":    "Ships only to EU",
			"category":   "constraint",
			"importance": "HIGH",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, out["created"]).Equal(any(true))
		gt.Array(t, svc.added).Length(1)
		gt.Value(t, svc.added[0].Metadata.Source).Equal(types.MemorySourceTool)
		gt.Value(t, svc.added[0].Metadata.Importance).Equal(types.ImportanceHigh)
		gt.Value(t, svc.added[0].Metadata.ConversationID).Equal(int64(7))
		gt.Array(t, *progress).Length(1)
	})

	t.Run("create rejects invalid category", func(t *testing.T) {
		svc := &mockMemoryService{}
		_, err := findTool(t, core.NewMemoryTools(svc, "u1", 0), "core__create_memory").Run(context.Background(), map[string]any{
			"content":  "x",
			"category": "gossip",
		})
		gt.Error(t, err)
		gt.Array(t, svc.added).Length(0)
	})

	t.Run("search passes limit", func(t *testing.T) {
		var gotLimit int
		svc := &mockMemoryService{searchFn: func(ctx context.Context, query, userID string, limit int) ([]*model.Memory, error) {
			gotLimit = limit
			return []*model.Memory{{Key: "k1", Content: "Prefers dark mode", Metadata: model.MemoryMetadata{CreatedAt: time.Now()}}}, nil
		}}
		out, err := findTool(t, core.NewMemoryTools(svc, "u1", 0), "core__search_memory").Run(context.Background(), map[string]any{
			"query": "theme",
			"limit": float64(3),
		})
		gt.NoError(t, err).Required()
		gt.Value(t, gotLimit).Equal(3)
		items := out["memories"].([]map[string]any)
		gt.Array(t, items).Length(1)
		gt.Value(t, items[0]["key"]).Equal(any("k1"))
	})

	t.Run("delete requires key", func(t *testing.T) {
		svc := &mockMemoryService{}
		del := findTool(t, core.NewMemoryTools(svc, "u1", 0), "core__delete_memory")
		_, err := del.Run(context.Background(), map[string]any{})
		gt.Error(t, err)

		_, err = del.Run(context.Background(), map[string]any{"key": "k9"})
		gt.NoError(t, err)
		gt.Value(t, svc.deleted[0]).Equal(model.MemoryKey("k9"))
	})
}

func TestFactTool(t *testing.T) {
	t.Run("caps calls per run", func(t *testing.T) {
		svc := &mockMemoryService{}
		ft := core.NewFactTool(svc, "u1", 3, 5)
		ctx := context.Background()

		for i := 0; i < 7; i++ {
			_, err := ft.Run(ctx, map[string]any{"content": strings.Repeat("f", i+1)})
			if i < 5 {
				gt.NoError(t, err)
			} else {
				gt.Error(t, err).Is(core.ErrFactLimit)
			}
		}
		gt.Array(t, svc.added).Length(5)
		gt.Value(t, ft.Created()).Equal(5)
		gt.Value(t, svc.added[0].Metadata.Source).Equal(types.MemorySourceExtraction)
	})

	t.Run("duplicates are not counted as created", func(t *testing.T) {
		svc := &mockMemoryService{addFn: func(ctx context.Context, userID, content string, meta model.MemoryMetadata) (*model.Memory, bool, error) {
			return &model.Memory{Key: "existing"}, false, nil
		}}
		ft := core.NewFactTool(svc, "u1", 3, 5)
		out, err := ft.Run(context.Background(), map[string]any{"content": "Prefers EUR"})
		gt.NoError(t, err).Required()
		gt.Value(t, out["duplicate"]).Equal(any(true))
		gt.Value(t, ft.Created()).Equal(0)
	})
}
