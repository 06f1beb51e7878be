package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/shopmate-ai/shopmate/pkg/service/worker"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockSweeper struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (m *mockSweeper) Sweep(now time.Time, idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, idle)
	return 1
}

func (m *mockSweeper) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func TestThreadSweeper(t *testing.T) {
	t.Run("sweeps on every tick", func(t *testing.T) {
		target := &mockSweeper{}
		w := worker.NewThreadSweeper(target, 10*time.Millisecond, time.Hour)
		w.Start(context.Background())

		deadline := time.Now().Add(2 * time.Second)
		for target.count() < 2 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		w.Stop()

		gt.Bool(t, target.count() >= 2).True()
		gt.Value(t, target.calls[0]).Equal(time.Hour)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		target := &mockSweeper{}
		w := worker.NewThreadSweeper(target, time.Hour, time.Hour)
		w.Start(ctx)
		cancel()
		w.Stop()

		gt.Value(t, target.count()).Equal(0)
	})

	t.Run("passes the clock to the target", func(t *testing.T) {
		fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		var got time.Time
		var mu sync.Mutex
		target := sweepFunc(func(now time.Time, idle time.Duration) int {
			mu.Lock()
			defer mu.Unlock()
			got = now
			return 0
		})

		w := worker.NewThreadSweeper(target, 5*time.Millisecond, time.Minute)
		w.SetNow(func() time.Time { return fixed })
		w.Start(context.Background())

		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			mu.Lock()
			done := !got.IsZero()
			mu.Unlock()
			if done {
				break
			}
			time.Sleep(5 * time.Millisecond)
		}
		w.Stop()

		mu.Lock()
		defer mu.Unlock()
		gt.Value(t, got).Equal(fixed)
	})
}

type sweepFunc func(now time.Time, idle time.Duration) int

func (f sweepFunc) Sweep(now time.Time, idle time.Duration) int {
	return f(now, idle)
}
