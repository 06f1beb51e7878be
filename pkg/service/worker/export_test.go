package worker

import "time"

func (w *ThreadSweeper) SetNow(fn func() time.Time) {
	w.now = fn
}
