package core

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/shopmate-ai/shopmate/pkg/agent/tool"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

const defaultSearchLimit = 5

// createMemoryTool stores a fact the user explicitly asked the assistant to remember
type createMemoryTool struct {
	svc            MemoryService
	userID         string
	conversationID int64
}

func (t *createMemoryTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "core__create_memory",
		Description: "Remember a durable fact about the user, such as a store setting, preference or business constraint. Near-duplicates of existing memories are not stored twice.",
		Parameters: map[string]*gollem.Parameter{
			"content": {
				Type:        gollem.TypeString,
				Description: "A self-contained statement of the fact",
				Required:    true,
			},
			"category":   categoryParameter(),
			"importance": importanceParameter(),
		},
	}
}

func (t *createMemoryTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	content, _ := args["content"].(string)
	if content == "" {
		return nil, fmt.Errorf("content is required")
	}
	meta, err := parseMetadata(args)
	if err != nil {
		return nil, err
	}
	meta.Source = types.MemorySourceTool
	meta.ConversationID = t.conversationID

	tool.Progress(ctx, "Saving memory...")

	mem, created, err := t.svc.Add(ctx, t.userID, content, meta)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create memory", goerr.V(model.UserIDKey, t.userID))
	}

	return map[string]any{
		"key":     string(mem.Key),
		"content": mem.Content,
		"created": created,
	}, nil
}

// searchMemoryTool finds memories relevant to a query
type searchMemoryTool struct {
	svc    MemoryService
	userID string
}

func (t *searchMemoryTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "core__search_memory",
		Description: "Search remembered facts about the user by meaning",
		Parameters: map[string]*gollem.Parameter{
			"query": {
				Type:        gollem.TypeString,
				Description: "Search query text",
				Required:    true,
			},
			"limit": {
				Type:        gollem.TypeInteger,
				Description: "Maximum number of results to return (default: 5)",
			},
		},
	}
}

func (t *searchMemoryTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	limit := defaultSearchLimit
	if v, err := extractInt64(args, "limit"); err == nil && v > 0 {
		limit = int(v)
	}

	tool.Progress(ctx, fmt.Sprintf("Searching memories: %s", query))

	results, err := t.svc.Search(ctx, query, t.userID, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search memories", goerr.V(model.UserIDKey, t.userID))
	}
	return map[string]any{"memories": memoryItems(results)}, nil
}

// listMemoriesTool lists every memory of the user
type listMemoriesTool struct {
	svc    MemoryService
	userID string
}

func (t *listMemoriesTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "core__list_memories",
		Description: "List all remembered facts about the user, newest first",
		Parameters:  map[string]*gollem.Parameter{},
	}
}

func (t *listMemoriesTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	tool.Progress(ctx, "Listing memories...")

	memories, err := t.svc.List(ctx, t.userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V(model.UserIDKey, t.userID))
	}

	items := memoryItems(memories)
	return map[string]any{"memories": items, "count": len(items)}, nil
}

// deleteMemoryTool forgets a memory by key
type deleteMemoryTool struct {
	svc    MemoryService
	userID string
}

func (t *deleteMemoryTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "core__delete_memory",
		Description: "Forget a remembered fact by its key. Use when the user says a fact is outdated or wrong.",
		Parameters: map[string]*gollem.Parameter{
			"key": {
				Type:        gollem.TypeString,
				Description: "The key of the memory to delete",
				Required:    true,
			},
		},
	}
}

func (t *deleteMemoryTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	key, _ := args["key"].(string)
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}

	tool.Progress(ctx, fmt.Sprintf("Deleting memory %s...", key))

	if err := t.svc.Delete(ctx, t.userID, model.MemoryKey(key)); err != nil {
		return nil, goerr.Wrap(err, "failed to delete memory", goerr.V(model.MemoryKeyKey, key))
	}
	return map[string]any{"deleted": true}, nil
}
