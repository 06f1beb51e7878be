package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type conversationDoc struct {
	ID        int64     `firestore:"ID"`
	UserID    string    `firestore:"UserID"`
	Title     string    `firestore:"Title"`
	CreatedAt time.Time `firestore:"CreatedAt"`
}

type conversationRepository struct {
	client *firestore.Client
	cols   *collections
}

func (r *conversationRepository) doc(id int64) *firestore.DocumentRef {
	return r.client.Collection(r.cols.conversations()).Doc(fmt.Sprintf("%d", id))
}

func (r *conversationRepository) Create(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	id, err := nextID(ctx, r.client, r.cols, "conversation_counter")
	if err != nil {
		return nil, err
	}

	created := *conv
	created.ID = id
	created.CreatedAt = time.Now().UTC()

	if _, err := r.doc(id).Set(ctx, conversationDoc{
		ID:        created.ID,
		UserID:    created.UserID,
		Title:     created.Title,
		CreatedAt: created.CreatedAt,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to create conversation", goerr.V(model.ConversationIDKey, id))
	}
	return &created, nil
}

func (r *conversationRepository) Get(ctx context.Context, id int64) (*model.Conversation, error) {
	snap, err := r.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "conversation not found", goerr.V(model.ConversationIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get conversation", goerr.V(model.ConversationIDKey, id))
	}

	var d conversationDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode conversation", goerr.V(model.ConversationIDKey, id))
	}
	return &model.Conversation{ID: d.ID, UserID: d.UserID, Title: d.Title, CreatedAt: d.CreatedAt}, nil
}

func (r *conversationRepository) UpdateTitle(ctx context.Context, id int64, title string) error {
	if _, err := r.doc(id).Update(ctx, []firestore.Update{{Path: "Title", Value: title}}); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrNotFound, "conversation not found", goerr.V(model.ConversationIDKey, id))
		}
		return goerr.Wrap(err, "failed to update conversation title", goerr.V(model.ConversationIDKey, id))
	}
	return nil
}

func (r *conversationRepository) ListByUser(ctx context.Context, userID string) ([]*model.Conversation, error) {
	iter := r.client.Collection(r.cols.conversations()).
		Where("UserID", "==", userID).
		OrderBy("ID", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	result := make([]*model.Conversation, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate conversations", goerr.V(model.UserIDKey, userID))
		}

		var d conversationDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode conversation")
		}
		result = append(result, &model.Conversation{ID: d.ID, UserID: d.UserID, Title: d.Title, CreatedAt: d.CreatedAt})
	}
	return result, nil
}

type messageDoc struct {
	ID             int64     `firestore:"ID"`
	ConversationID int64     `firestore:"ConversationID"`
	Role           string    `firestore:"Role"`
	Content        string    `firestore:"Content"`
	CreatedAt      time.Time `firestore:"CreatedAt"`
}

type messageRepository struct {
	client *firestore.Client
	cols   *collections
}

// messagesCollection returns conversations/{conversationID}/messages
func (r *messageRepository) messagesCollection(conversationID int64) *firestore.CollectionRef {
	return r.client.Collection(r.cols.conversations()).Doc(fmt.Sprintf("%d", conversationID)).Collection("messages")
}

func (r *messageRepository) Append(ctx context.Context, msg *model.Message) (*model.Message, error) {
	id, err := nextID(ctx, r.client, r.cols, "message_counter")
	if err != nil {
		return nil, err
	}

	created := *msg
	created.ID = id
	created.CreatedAt = time.Now().UTC()

	if _, err := r.messagesCollection(msg.ConversationID).Doc(fmt.Sprintf("%020d", id)).Set(ctx, messageDoc{
		ID:             created.ID,
		ConversationID: created.ConversationID,
		Role:           string(created.Role),
		Content:        created.Content,
		CreatedAt:      created.CreatedAt,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to append message", goerr.V(model.ConversationIDKey, msg.ConversationID))
	}
	return &created, nil
}

func (r *messageRepository) List(ctx context.Context, conversationID int64) ([]*model.Message, error) {
	iter := r.messagesCollection(conversationID).OrderBy("ID", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	result := make([]*model.Message, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate messages", goerr.V(model.ConversationIDKey, conversationID))
		}

		var d messageDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode message")
		}
		result = append(result, &model.Message{
			ID:             d.ID,
			ConversationID: d.ConversationID,
			Role:           types.Role(d.Role),
			Content:        d.Content,
			CreatedAt:      d.CreatedAt,
		})
	}
	return result, nil
}
