package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
)

// Close closes closer and logs a failure. A nil closer is ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.Any("error", err))
	}
}

// CloseFunc calls fn and logs a failure. Used for clients whose Close
// method does not satisfy io.Closer.
func CloseFunc(ctx context.Context, name string, fn func() error) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.String("target", name), slog.Any("error", err))
	}
}

// Write writes data to w and logs a failure. Returns false when the write
// failed so callers can treat the peer as gone.
func Write(ctx context.Context, w io.Writer, data []byte) bool {
	if w == nil {
		return false
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Debug("Failed to write", slog.Any("error", err))
		return false
	}
	return true
}
