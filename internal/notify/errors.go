package notify

import (
	"context"
	"errors"
)

// Sentinel errors for the notification engine.
var (
	// ErrUIContext indicates Update was invoked on a context marked as
	// belonging to the UI execution path. The whole pipeline performs
	// blocking store and image work and must run on a background worker.
	ErrUIContext = errors.New("notify: update invoked on a UI context")

	// ErrEmptyShelfEntry indicates the shelf returned an active notification
	// that carries no rendered lines. The entry is unusable as merge ground
	// truth.
	ErrEmptyShelfEntry = errors.New("notify: active notification has no lines")
)

type uiContextKey struct{}

// WithUIContext marks ctx as belonging to the UI execution path. Dispatcher
// entry points fail fast with ErrUIContext when handed such a context.
func WithUIContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, uiContextKey{}, true)
}

func isUIContext(ctx context.Context) bool {
	v, _ := ctx.Value(uiContextKey{}).(bool)
	return v
}
