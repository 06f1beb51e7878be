package interfaces

import (
	"context"

	"github.com/shopmate-ai/shopmate/pkg/domain/model"
)

// ConversationRepository persists conversations
type ConversationRepository interface {
	// Create assigns a new ID and creation time
	Create(ctx context.Context, conv *model.Conversation) (*model.Conversation, error)
	Get(ctx context.Context, id int64) (*model.Conversation, error)
	UpdateTitle(ctx context.Context, id int64, title string) error
	// ListByUser returns the user's conversations, newest first
	ListByUser(ctx context.Context, userID string) ([]*model.Conversation, error)
}

// MessageRepository persists the append-only message log of each conversation
type MessageRepository interface {
	// Append assigns a new ID greater than every existing message ID
	Append(ctx context.Context, msg *model.Message) (*model.Message, error)
	// List returns all messages of a conversation in insertion order
	List(ctx context.Context, conversationID int64) ([]*model.Message, error)
}

// AgentRunRepository persists one task snapshot per turn
type AgentRunRepository interface {
	Create(ctx context.Context, run *model.AgentRun) (*model.AgentRun, error)
	// ListByConversation returns runs in insertion order
	ListByConversation(ctx context.Context, conversationID int64) ([]*model.AgentRun, error)
}
