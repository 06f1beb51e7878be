package worker

import (
	"context"
	"time"

	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
)

// IdleSweeper evicts state that has been idle for longer than idle
type IdleSweeper interface {
	Sweep(now time.Time, idle time.Duration) int
}

// ThreadSweeper periodically evicts idle conversation threads from memory.
// Evicted threads are rebuilt from persisted messages on the next turn.
type ThreadSweeper struct {
	target   IdleSweeper
	interval time.Duration
	idle     time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewThreadSweeper(target IdleSweeper, interval, idle time.Duration) *ThreadSweeper {
	return &ThreadSweeper{
		target:   target,
		interval: interval,
		idle:     idle,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop and returns immediately
func (w *ThreadSweeper) Start(ctx context.Context) {
	logging.Default().Info("thread sweeper starting",
		"interval", w.interval.String(),
		"idle_timeout", w.idle.String())

	go w.run(ctx)
}

// Stop signals the loop to exit and waits for it
func (w *ThreadSweeper) Stop() {
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("thread sweeper stopped")
}

func (w *ThreadSweeper) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep()

		case <-w.stopCh:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (w *ThreadSweeper) sweep() {
	if n := w.target.Sweep(w.now(), w.idle); n > 0 {
		logging.Default().Info("evicted idle threads", "count", n)
	}
}
