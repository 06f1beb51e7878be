package tool

import "context"

// ProgressFunc reports what a tool is doing while it runs. The turn controller
// forwards these messages to the client as task progress.
type ProgressFunc func(ctx context.Context, message string)

type progressKey struct{}

// WithProgress returns a context carrying fn
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// Progress calls the ProgressFunc in ctx. It is a no-op when none is set.
func Progress(ctx context.Context, message string) {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok && fn != nil {
		fn(ctx, message)
	}
}
