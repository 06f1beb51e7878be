package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
)

// ConversationUseCase serves read access to a user's conversations
type ConversationUseCase struct {
	repo interfaces.Repository
}

func NewConversationUseCase(repo interfaces.Repository) *ConversationUseCase {
	return &ConversationUseCase{repo: repo}
}

// List returns the user's conversations, newest first
func (uc *ConversationUseCase) List(ctx context.Context, userID string) ([]*model.Conversation, error) {
	convs, err := uc.repo.Conversation().ListByUser(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list conversations", goerr.V(model.UserIDKey, userID))
	}
	return convs, nil
}

// owned returns the conversation when it belongs to userID. A conversation of
// another user is reported as not found.
func (uc *ConversationUseCase) owned(ctx context.Context, userID string, id int64) (*model.Conversation, error) {
	conv, err := uc.repo.Conversation().Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(ErrConversationNotFound, "unknown conversation", goerr.V(model.ConversationIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get conversation", goerr.V(model.ConversationIDKey, id))
	}
	if conv.UserID != userID {
		return nil, goerr.Wrap(ErrConversationNotFound, "conversation owned by another user",
			goerr.V(model.ConversationIDKey, id),
			goerr.V(model.UserIDKey, userID))
	}
	return conv, nil
}

// Messages returns the message log of a conversation in insertion order
func (uc *ConversationUseCase) Messages(ctx context.Context, userID string, id int64) ([]*model.Message, error) {
	if _, err := uc.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	msgs, err := uc.repo.Message().List(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list messages", goerr.V(model.ConversationIDKey, id))
	}
	return msgs, nil
}

// Runs returns the per-turn task snapshots of a conversation
func (uc *ConversationUseCase) Runs(ctx context.Context, userID string, id int64) ([]*model.AgentRun, error) {
	if _, err := uc.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	runs, err := uc.repo.AgentRun().ListByConversation(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list agent runs", goerr.V(model.ConversationIDKey, id))
	}
	return runs, nil
}
