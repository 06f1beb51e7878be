package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

// MemoryKey is a UUID-based identifier for Memory, unique per user
type MemoryKey string

// NewMemoryKey generates a new UUID v4 MemoryKey
func NewMemoryKey() MemoryKey {
	return MemoryKey(uuid.New().String())
}

// MemoryMetadata describes where a memory came from and how much it matters
type MemoryMetadata struct {
	Category       types.MemoryCategory `json:"category"`
	Importance     types.Importance     `json:"importance"`
	Source         types.MemorySource   `json:"source,omitempty"`
	ConversationID int64                `json:"conversation_id,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// Memory is a single durable, self-contained fact about a user.
// Embedding is nil when the embedding provider was unavailable at write time.
type Memory struct {
	Key       MemoryKey      `json:"key"`
	UserID    string         `json:"user_id"`
	Content   string         `json:"content"`
	Metadata  MemoryMetadata `json:"metadata"`
	Embedding []float32      `json:"embedding,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Validate checks required fields and normalizes metadata defaults
func (m *Memory) Validate() error {
	m.Content = strings.TrimSpace(m.Content)
	if m.UserID == "" {
		return goerr.Wrap(ErrMissingRequired, "memory user ID is empty")
	}
	if m.Content == "" {
		return goerr.Wrap(ErrMissingRequired, "memory content is empty", goerr.V(UserIDKey, m.UserID))
	}
	if m.Metadata.Category == "" {
		m.Metadata.Category = types.MemoryCategoryOther
	}
	if !m.Metadata.Category.IsValid() {
		return goerr.Wrap(ErrInvalidValue, "invalid memory category", goerr.V("category", m.Metadata.Category))
	}
	m.Metadata.Importance = m.Metadata.Importance.Normalize()
	if !m.Metadata.Importance.IsValid() {
		return goerr.Wrap(ErrInvalidValue, "invalid memory importance", goerr.V("importance", m.Metadata.Importance))
	}
	return nil
}

// Copy returns a deep copy so stored records cannot be mutated through callers
func (m *Memory) Copy() *Memory {
	copied := *m
	if m.Embedding != nil {
		copied.Embedding = make([]float32, len(m.Embedding))
		copy(copied.Embedding, m.Embedding)
	}
	return &copied
}
