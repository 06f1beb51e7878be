package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

type conversationRepository struct {
	db *sql.DB
}

func (r *conversationRepository) Create(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations(user_id, title, created_at) VALUES(?, ?, ?)`,
		conv.UserID, conv.Title, now.UnixNano())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert conversation", goerr.V(model.UserIDKey, conv.UserID))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get conversation ID")
	}

	created := *conv
	created.ID = id
	created.CreatedAt = now
	return &created, nil
}

func (r *conversationRepository) Get(ctx context.Context, id int64) (*model.Conversation, error) {
	var (
		conv      model.Conversation
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, created_at FROM conversations WHERE id = ?`, id).
		Scan(&conv.ID, &conv.UserID, &conv.Title, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(model.ErrNotFound, "conversation not found", goerr.V(model.ConversationIDKey, id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get conversation", goerr.V(model.ConversationIDKey, id))
	}
	conv.CreatedAt = time.Unix(0, createdAt).UTC()
	return &conv, nil
}

func (r *conversationRepository) UpdateTitle(ctx context.Context, id int64, title string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE conversations SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return goerr.Wrap(err, "failed to update conversation title", goerr.V(model.ConversationIDKey, id))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return goerr.Wrap(model.ErrNotFound, "conversation not found", goerr.V(model.ConversationIDKey, id))
	}
	return nil
}

func (r *conversationRepository) ListByUser(ctx context.Context, userID string) ([]*model.Conversation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, created_at FROM conversations WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list conversations", goerr.V(model.UserIDKey, userID))
	}
	defer rows.Close()

	result := make([]*model.Conversation, 0)
	for rows.Next() {
		var (
			conv      model.Conversation
			createdAt int64
		)
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &createdAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan conversation")
		}
		conv.CreatedAt = time.Unix(0, createdAt).UTC()
		result = append(result, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate conversations")
	}
	return result, nil
}

type messageRepository struct {
	db *sql.DB
}

func (r *messageRepository) Append(ctx context.Context, msg *model.Message) (*model.Message, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO messages(conv_id, role, content, created_at) VALUES(?, ?, ?, ?)`,
		msg.ConversationID, string(msg.Role), msg.Content, now.UnixNano())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert message", goerr.V(model.ConversationIDKey, msg.ConversationID))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get message ID")
	}

	created := *msg
	created.ID = id
	created.CreatedAt = now
	return &created, nil
}

func (r *messageRepository) List(ctx context.Context, conversationID int64) ([]*model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conv_id, role, content, created_at FROM messages WHERE conv_id = ? ORDER BY id ASC`, conversationID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list messages", goerr.V(model.ConversationIDKey, conversationID))
	}
	defer rows.Close()

	result := make([]*model.Message, 0)
	for rows.Next() {
		var (
			msg       model.Message
			role      string
			createdAt int64
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &createdAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan message")
		}
		msg.Role = types.Role(role)
		msg.CreatedAt = time.Unix(0, createdAt).UTC()
		result = append(result, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate messages")
	}
	return result, nil
}
