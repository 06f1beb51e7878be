package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

func TestPlannedTask_Describe(t *testing.T) {
	p := model.PlannedTask{Name: "update_price", Args: map[string]any{"sku": "SKU123", "price": 49.99}}
	gt.Value(t, p.Describe()).Equal(`update_price({"price":49.99,"sku":"SKU123"})`)

	gt.Value(t, model.PlannedTask{Name: "list_products"}.Describe()).Equal("list_products()")
}

func TestPlan(t *testing.T) {
	degraded := model.DegradedPlan("malformed output")
	gt.Bool(t, degraded.IsDegraded()).True()
	gt.Bool(t, degraded.IsEmpty()).True()

	ok := model.NewPlan(nil)
	gt.Bool(t, ok.IsDegraded()).False()
	gt.Array(t, ok.Tasks).Length(0)
}

func TestTask_Finish(t *testing.T) {
	plan := model.NewPlan([]model.PlannedTask{{Name: "a"}, {Name: "b"}})
	tasks := model.NewTasks(plan)
	gt.Array(t, tasks).Length(2)
	gt.Value(t, tasks[1].Index).Equal(1)
	gt.Value(t, tasks[0].Status).Equal(types.TaskStatusPending)

	tasks[0].Start()
	gt.Value(t, tasks[0].Status).Equal(types.TaskStatusInProgress)
	tasks[0].Finish(model.TaskCompleted{Output: "price updated"})
	gt.Value(t, tasks[0].Status).Equal(types.TaskStatusCompleted)
	gt.Value(t, tasks[0].Output()).Equal("price updated")

	tasks[1].Finish(model.TaskFailed{Err: errors.New("tool not found")})
	gt.Value(t, tasks[1].Status).Equal(types.TaskStatusError)
	gt.Array(t, tasks[1].Subtasks).Length(1)
	gt.Value(t, tasks[1].Subtasks[0].Status).Equal(types.TaskStatusError)
	gt.Value(t, tasks[1].Output()).Equal("tool not found")
}

func TestDeriveTitle(t *testing.T) {
	gt.Value(t, model.DeriveTitle("  Update   SKU123 price ")).Equal("Update SKU123 price")
	gt.Value(t, model.DeriveTitle("")).Equal("New conversation")

	long := ""
	for i := 0; i < 20; i++ {
		long += "abcdef "
	}
	title := model.DeriveTitle(long)
	gt.Bool(t, len([]rune(title)) <= 60).True()
}

func TestRecentMessages(t *testing.T) {
	msgs := []*model.Message{{ID: 1}, {ID: 2}, {ID: 3}}
	recent := model.RecentMessages(msgs, 2)
	gt.Array(t, recent).Length(2)
	gt.Value(t, recent[0].ID).Equal(int64(2))
	gt.Array(t, model.RecentMessages(msgs, 10)).Length(3)
}
