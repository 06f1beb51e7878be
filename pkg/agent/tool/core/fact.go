package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

// ErrFactLimit is returned to the model once the per-run fact budget is spent
var ErrFactLimit = goerr.New("fact limit reached for this extraction run")

// FactTool records facts found by the extraction agent. One instance serves
// one extraction run; calls beyond the limit are rejected without writing.
type FactTool struct {
	svc            MemoryService
	userID         string
	conversationID int64
	limit          int

	mu      sync.Mutex
	calls   int
	created int
}

var _ gollem.Tool = &FactTool{}

func NewFactTool(svc MemoryService, userID string, conversationID int64, limit int) *FactTool {
	return &FactTool{svc: svc, userID: userID, conversationID: conversationID, limit: limit}
}

func (t *FactTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "core__create_fact",
		Description: fmt.Sprintf("Record one durable fact about the user learned from the conversation. At most %d facts per conversation.", t.limit),
		Parameters: map[string]*gollem.Parameter{
			"content": {
				Type:        gollem.TypeString,
				Description: "A self-contained statement that makes sense without the conversation",
				Required:    true,
			},
			"category":   categoryParameter(),
			"importance": importanceParameter(),
		},
	}
}

func (t *FactTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	t.mu.Lock()
	t.calls++
	over := t.calls > t.limit
	t.mu.Unlock()
	if over {
		return nil, goerr.Wrap(ErrFactLimit, "fact rejected", goerr.V("limit", t.limit))
	}

	content, _ := args["content"].(string)
	if content == "" {
		return nil, fmt.Errorf("content is required")
	}
	meta, err := parseMetadata(args)
	if err != nil {
		return nil, err
	}
	meta.Source = types.MemorySourceExtraction
	meta.ConversationID = t.conversationID

	mem, created, err := t.svc.Add(ctx, t.userID, content, meta)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store fact", goerr.V(model.UserIDKey, t.userID))
	}

	if created {
		t.mu.Lock()
		t.created++
		t.mu.Unlock()
	}
	return map[string]any{"key": string(mem.Key), "duplicate": !created}, nil
}

// Created returns the number of new memories written by this run
func (t *FactTool) Created() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.created
}
