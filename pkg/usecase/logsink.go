package usecase

import (
	"context"

	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
)

// SlogSink writes turn lifecycle events as structured log records
type SlogSink struct{}

var _ interfaces.LogSink = SlogSink{}

func (SlogSink) Record(ctx context.Context, event string, attrs ...any) {
	logging.From(ctx).Info("turn event", append([]any{"event", event}, attrs...)...)
}
