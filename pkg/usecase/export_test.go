package usecase

import (
	"context"
	"time"

	"github.com/shopmate-ai/shopmate/pkg/domain/model"
)

// ParsePlan is exported for testing. It returns the kept tasks and the dropped names.
func ParsePlan(text string, allowed []string) ([]model.PlannedTask, []string, error) {
	p, err := parsePlan(text, allowed)
	if err != nil {
		return nil, nil, err
	}
	return p.tasks, p.dropped, nil
}

var ExtractJSON = extractJSON
var ContentSimilarity = contentSimilarity
var CleanTitle = cleanTitle
var ErrPlanFormat = errPlanFormat

func (uc *MemoryUseCase) SetNow(fn func() time.Time) {
	uc.now = fn
}

func (t *ThreadTracker) SetNow(fn func() time.Time) {
	t.now = fn
}

// Has reports whether state for the conversation is held in memory
func (t *ThreadTracker) Has(convID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.threads[convID]
	return ok
}

// RunBackgroundInline makes background work run synchronously on the calling goroutine
func (uc *TurnUseCase) RunBackgroundInline() {
	uc.dispatch = func(ctx context.Context, name string, handler func(ctx context.Context) error) {
		_ = handler(ctx)
	}
}

// DisableBackground drops background work
func (uc *TurnUseCase) DisableBackground() {
	uc.dispatch = func(ctx context.Context, name string, handler func(ctx context.Context) error) {}
}
