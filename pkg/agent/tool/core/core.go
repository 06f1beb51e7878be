// Package core provides the in-process tools offered to agents alongside the
// remote tool servers: per-user memory management and fact extraction.
package core

import (
	"context"
	"fmt"

	"github.com/m-mizutani/gollem"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

// MemoryService is the memory store surface the tools need
type MemoryService interface {
	Add(ctx context.Context, userID, content string, meta model.MemoryMetadata) (*model.Memory, bool, error)
	Search(ctx context.Context, query, userID string, limit int) ([]*model.Memory, error)
	List(ctx context.Context, userID string) ([]*model.Memory, error)
	Delete(ctx context.Context, userID string, key model.MemoryKey) error
}

// NewMemoryTools builds the memory tools for the primary agent, bound to one user
func NewMemoryTools(svc MemoryService, userID string, conversationID int64) []gollem.Tool {
	return []gollem.Tool{
		&createMemoryTool{svc: svc, userID: userID, conversationID: conversationID},
		&searchMemoryTool{svc: svc, userID: userID},
		&listMemoriesTool{svc: svc, userID: userID},
		&deleteMemoryTool{svc: svc, userID: userID},
	}
}

func extractInt64(args map[string]any, key string) (int64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s is required", key)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%s must be an integer, got %T", key, v)
	}
}

// parseMetadata reads the optional category and importance arguments
func parseMetadata(args map[string]any) (model.MemoryMetadata, error) {
	var meta model.MemoryMetadata

	category, _ := args["category"].(string)
	c, err := types.ParseMemoryCategory(category)
	if err != nil {
		return meta, err
	}
	meta.Category = c

	importance, _ := args["importance"].(string)
	if importance == "" {
		meta.Importance = types.ImportanceMedium
	} else {
		imp, err := types.ParseImportance(importance)
		if err != nil {
			return meta, err
		}
		meta.Importance = imp
	}
	return meta, nil
}

func categoryParameter() *gollem.Parameter {
	enum := make([]string, 0, len(types.AllMemoryCategories()))
	for _, c := range types.AllMemoryCategories() {
		enum = append(enum, c.String())
	}
	return &gollem.Parameter{
		Type:        gollem.TypeString,
		Description: "Kind of fact. Defaults to other.",
		Enum:        enum,
	}
}

func importanceParameter() *gollem.Parameter {
	return &gollem.Parameter{
		Type:        gollem.TypeString,
		Description: "How much the fact matters for future requests. Defaults to medium.",
		Enum: []string{
			types.ImportanceHigh.String(),
			types.ImportanceMedium.String(),
			types.ImportanceLow.String(),
		},
	}
}

func memoryItems(memories []*model.Memory) []map[string]any {
	items := make([]map[string]any, len(memories))
	for i, m := range memories {
		items[i] = map[string]any{
			"key":        string(m.Key),
			"content":    m.Content,
			"category":   m.Metadata.Category.String(),
			"importance": m.Metadata.Importance.String(),
			"created_at": m.Metadata.CreatedAt.String(),
		}
	}
	return items
}
