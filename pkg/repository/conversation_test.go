package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

func runConversationRepositoryTest(t *testing.T, newRepo repoFactory) {
	t.Helper()

	t.Run("Create and Get conversation", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := fmt.Sprintf("user-%d", time.Now().UnixNano())

		created, err := repo.Conversation().Create(ctx, &model.Conversation{UserID: userID, Title: "Price update"})
		gt.NoError(t, err).Required()
		gt.Bool(t, created.ID > 0).True()

		got, err := repo.Conversation().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.UserID).Equal(userID)
		gt.Value(t, got.Title).Equal("Price update")

		gt.NoError(t, repo.Conversation().UpdateTitle(ctx, created.ID, "SKU123 repricing")).Required()
		got, err = repo.Conversation().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("SKU123 repricing")
	})

	t.Run("Get returns not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Conversation().Get(context.Background(), 987654321)
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()
	})

	t.Run("ListByUser returns newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := fmt.Sprintf("user-%d", time.Now().UnixNano())

		c1, err := repo.Conversation().Create(ctx, &model.Conversation{UserID: userID, Title: "first"})
		gt.NoError(t, err).Required()
		c2, err := repo.Conversation().Create(ctx, &model.Conversation{UserID: userID, Title: "second"})
		gt.NoError(t, err).Required()
		_, err = repo.Conversation().Create(ctx, &model.Conversation{UserID: "other-" + userID, Title: "other"})
		gt.NoError(t, err).Required()

		convs, err := repo.Conversation().ListByUser(ctx, userID)
		gt.NoError(t, err).Required()
		gt.Array(t, convs).Length(2)
		gt.Value(t, convs[0].ID).Equal(c2.ID)
		gt.Value(t, convs[1].ID).Equal(c1.ID)
	})

	t.Run("Messages are listed in insertion order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		conv, err := repo.Conversation().Create(ctx, &model.Conversation{UserID: "u", Title: "t"})
		gt.NoError(t, err).Required()

		contents := []string{"hello", "hi, how can I help?", "update SKU123"}
		roles := []types.Role{types.RoleUser, types.RoleAssistant, types.RoleUser}
		var lastID int64
		for i := range contents {
			msg, err := repo.Message().Append(ctx, &model.Message{ConversationID: conv.ID, Role: roles[i], Content: contents[i]})
			gt.NoError(t, err).Required()
			gt.Bool(t, msg.ID > lastID).True()
			lastID = msg.ID
		}

		msgs, err := repo.Message().List(ctx, conv.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(3)
		for i, m := range msgs {
			gt.Value(t, m.Content).Equal(contents[i])
			gt.Value(t, m.Role).Equal(roles[i])
		}
	})

	t.Run("AgentRun snapshot round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		conv, err := repo.Conversation().Create(ctx, &model.Conversation{UserID: "u", Title: "t"})
		gt.NoError(t, err).Required()

		tasks := model.NewTasks(model.NewPlan([]model.PlannedTask{
			{Name: "update_price", Args: map[string]any{"sku": "SKU123", "price": 49.99}},
			{Name: "get_inventory", Args: map[string]any{"sku": "SKU123"}},
		}))
		tasks[0].Finish(model.TaskCompleted{Output: "price set to 49.99"})
		tasks[1].Finish(model.TaskFailed{Err: errors.New("inventory service unavailable")})

		_, err = repo.AgentRun().Create(ctx, &model.AgentRun{
			ConversationID: conv.ID,
			Status:         types.TurnStatusComplete,
			Tasks:          tasks,
		})
		gt.NoError(t, err).Required()

		runs, err := repo.AgentRun().ListByConversation(ctx, conv.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, runs).Length(1)
		gt.Value(t, runs[0].Status).Equal(types.TurnStatusComplete)
		gt.Array(t, runs[0].Tasks).Length(2)
		gt.Value(t, runs[0].Tasks[0].Status).Equal(types.TaskStatusCompleted)
		gt.Value(t, runs[0].Tasks[0].Args["sku"]).Equal(any("SKU123"))
		gt.Value(t, runs[0].Tasks[1].Output()).Equal("inventory service unavailable")
		gt.Value(t, runs[0].CountByStatus(types.TaskStatusError)).Equal(1)
	})
}

func TestConversationRepository(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, newRepo repoFactory) {
		runConversationRepositoryTest(t, newRepo)
	})
}
