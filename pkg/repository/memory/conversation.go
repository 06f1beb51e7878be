package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
)

type conversationRepository struct {
	mu     sync.RWMutex
	nextID int64
	convs  map[int64]*model.Conversation
}

func newConversationRepository() *conversationRepository {
	return &conversationRepository{
		nextID: 1,
		convs:  make(map[int64]*model.Conversation),
	}
}

func (r *conversationRepository) Create(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *conv
	created.ID = r.nextID
	created.CreatedAt = time.Now().UTC()
	r.nextID++

	r.convs[created.ID] = &created
	result := created
	return &result, nil
}

func (r *conversationRepository) Get(ctx context.Context, id int64) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.convs[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "conversation not found", goerr.V(model.ConversationIDKey, id))
	}
	result := *conv
	return &result, nil
}

func (r *conversationRepository) UpdateTitle(ctx context.Context, id int64, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.convs[id]
	if !ok {
		return goerr.Wrap(model.ErrNotFound, "conversation not found", goerr.V(model.ConversationIDKey, id))
	}
	conv.Title = title
	return nil
}

func (r *conversationRepository) ListByUser(ctx context.Context, userID string) ([]*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Conversation, 0)
	for _, conv := range r.convs {
		if conv.UserID != userID {
			continue
		}
		c := *conv
		result = append(result, &c)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	return result, nil
}

type messageRepository struct {
	mu       sync.RWMutex
	nextID   int64
	messages map[int64][]*model.Message
}

func newMessageRepository() *messageRepository {
	return &messageRepository{
		nextID:   1,
		messages: make(map[int64][]*model.Message),
	}
}

func (r *messageRepository) Append(ctx context.Context, msg *model.Message) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *msg
	created.ID = r.nextID
	created.CreatedAt = time.Now().UTC()
	r.nextID++

	r.messages[created.ConversationID] = append(r.messages[created.ConversationID], &created)
	result := created
	return &result, nil
}

func (r *messageRepository) List(ctx context.Context, conversationID int64) ([]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.messages[conversationID]
	result := make([]*model.Message, 0, len(stored))
	for _, m := range stored {
		msg := *m
		result = append(result, &msg)
	}
	return result, nil
}
