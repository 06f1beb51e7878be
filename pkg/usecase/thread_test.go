package usecase_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
	"github.com/shopmate-ai/shopmate/pkg/usecase"
)

// answer simulates one confirmation round trip the way the turn controller drives it
func answer(tr *usecase.ThreadTracker, convID int64, reply string) {
	question := "Shall I update the price of SKU-1 to 19.99?"
	tr.Observe(convID, types.RoleAssistant, question)
	tr.MarkPending(convID, question)
	tr.Observe(convID, types.RoleUser, reply)
}

func TestThreadTracker_Autonomy(t *testing.T) {
	t.Run("defaults to medium", func(t *testing.T) {
		tr := usecase.NewThreadTracker(50)
		gt.Value(t, tr.Autonomy(1)).Equal(types.AutonomyMedium)

		answer(tr, 1, "yes")
		answer(tr, 1, "yes")
		gt.Value(t, tr.Autonomy(1)).Equal(types.AutonomyMedium)
	})

	t.Run("high after consistent confirmations", func(t *testing.T) {
		tr := usecase.NewThreadTracker(50)
		for _, r := range []string{"yes", "go ahead", "Sure, do it", "sounds good"} {
			answer(tr, 1, r)
		}
		gt.Value(t, tr.Autonomy(1)).Equal(types.AutonomyHigh)
	})

	t.Run("medium between 0.7 and 0.9", func(t *testing.T) {
		tr := usecase.NewThreadTracker(50)
		for _, r := range []string{"yes", "yes", "yes", "no"} {
			answer(tr, 1, r)
		}
		gt.Value(t, tr.Autonomy(1)).Equal(types.AutonomyMedium)
	})

	t.Run("low after rejections", func(t *testing.T) {
		tr := usecase.NewThreadTracker(50)
		for _, r := range []string{"no", "wait", "cancel that", "yes"} {
			answer(tr, 1, r)
		}
		gt.Value(t, tr.Autonomy(1)).Equal(types.AutonomyLow)
	})

	t.Run("answers without a pending operation are ignored", func(t *testing.T) {
		tr := usecase.NewThreadTracker(50)
		for i := 0; i < 5; i++ {
			tr.Observe(1, types.RoleUser, "no")
		}
		gt.Value(t, tr.Autonomy(1)).Equal(types.AutonomyMedium)
	})

	t.Run("a pending operation is consumed by one answer", func(t *testing.T) {
		tr := usecase.NewThreadTracker(50)
		tr.MarkPending(1, "bulk price update")
		tr.Observe(1, types.RoleUser, "no")
		tr.Observe(1, types.RoleUser, "no")
		tr.Observe(1, types.RoleUser, "no")
		gt.Value(t, tr.Autonomy(1)).Equal(types.AutonomyMedium)
	})

	t.Run("an assistant question alone does not open a pending operation", func(t *testing.T) {
		tr := usecase.NewThreadTracker(50)
		for i := 0; i < 3; i++ {
			tr.Observe(1, types.RoleAssistant, "Shall I update the price?")
			tr.Observe(1, types.RoleUser, "no")
		}
		gt.Value(t, tr.Autonomy(1)).Equal(types.AutonomyMedium)
	})

	t.Run("explicit preference overrides the ratio", func(t *testing.T) {
		tr := usecase.NewThreadTracker(50)
		for i := 0; i < 4; i++ {
			answer(tr, 1, "no")
		}
		tr.Observe(1, types.RoleUser, "Just do it from now on, please")
		gt.Value(t, tr.Autonomy(1)).Equal(types.AutonomyHigh)

		tr.Observe(1, types.RoleUser, "Actually, always confirm with me")
		gt.Value(t, tr.Autonomy(1)).Equal(types.AutonomyLow)
	})

	t.Run("explicit statement does not count as an answer", func(t *testing.T) {
		tr := usecase.NewThreadTracker(50)
		tr.MarkPending(1, "op")
		tr.Observe(1, types.RoleUser, "Stop asking and do it")
		gt.Value(t, tr.Autonomy(1)).Equal(types.AutonomyHigh)
	})

	t.Run("conversations are independent", func(t *testing.T) {
		tr := usecase.NewThreadTracker(50)
		tr.Observe(1, types.RoleUser, "don't ask me again")
		gt.Value(t, tr.Autonomy(1)).Equal(types.AutonomyHigh)
		gt.Value(t, tr.Autonomy(2)).Equal(types.AutonomyMedium)
	})
}

func TestAsksConfirmation(t *testing.T) {
	gt.Bool(t, usecase.AsksConfirmation("Should I apply the 10% discount?")).True()
	gt.Bool(t, usecase.AsksConfirmation("Would you like me to restock SKU-9?")).True()
	gt.Bool(t, usecase.AsksConfirmation("Ready to proceed?")).True()
	gt.Bool(t, usecase.AsksConfirmation("Inventory for SKU-9 is 42 units.")).False()
}

func TestThreadTracker_Rebuild(t *testing.T) {
	tr := usecase.NewThreadTracker(50)
	msgs := []*model.Message{}
	for i := 0; i < 3; i++ {
		msgs = append(msgs,
			&model.Message{Role: types.RoleAssistant, Content: "Do you want me to publish the listing?"},
			&model.Message{Role: types.RoleUser, Content: "yep"},
		)
	}

	gt.Bool(t, tr.Has(9)).False()
	tr.Rebuild(9, msgs)
	gt.Bool(t, tr.Has(9)).True()
	gt.Value(t, tr.Autonomy(9)).Equal(types.AutonomyHigh)
}

func TestThreadTracker_Ensure(t *testing.T) {
	persisted := []*model.Message{
		{Role: types.RoleAssistant, Content: "Should I archive the old listing?"},
		{Role: types.RoleUser, Content: "no"},
	}

	t.Run("rebuilds an evicted conversation", func(t *testing.T) {
		tr := usecase.NewThreadTracker(50)
		gt.Bool(t, tr.Ensure(3, persisted)).True()
		gt.Bool(t, tr.Has(3)).True()
	})

	t.Run("keeps live state", func(t *testing.T) {
		tr := usecase.NewThreadTracker(50)
		tr.Observe(3, types.RoleUser, "don't ask me again")

		gt.Bool(t, tr.Ensure(3, persisted)).False()
		gt.Value(t, tr.Autonomy(3)).Equal(types.AutonomyHigh)
	})

	t.Run("concurrent callers rebuild once", func(t *testing.T) {
		tr := usecase.NewThreadTracker(50)
		var (
			wg       sync.WaitGroup
			rebuilds atomic.Int32
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if tr.Ensure(4, persisted) {
					rebuilds.Add(1)
				}
				tr.Observe(4, types.RoleUser, "stop asking")
			}()
		}
		wg.Wait()

		gt.Value(t, rebuilds.Load()).Equal(int32(1))
		gt.Value(t, tr.Autonomy(4)).Equal(types.AutonomyHigh)
	})
}

func TestThreadTracker_Sweep(t *testing.T) {
	tr := usecase.NewThreadTracker(50)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tr.SetNow(func() time.Time { return start })
	tr.Observe(1, types.RoleUser, "hello")

	tr.SetNow(func() time.Time { return start.Add(2 * time.Hour) })
	tr.Observe(2, types.RoleUser, "hello")

	evicted := tr.Sweep(start.Add(150*time.Minute), time.Hour)
	gt.Value(t, evicted).Equal(1)
	gt.Bool(t, tr.Has(1)).False()
	gt.Bool(t, tr.Has(2)).True()
}
