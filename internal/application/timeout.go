package application

import (
	"context"
	"time"
)

// DefaultUpstreamTimeout bounds a single call to a repository or external collaborator.
const DefaultUpstreamTimeout = 8 * time.Second

// withTimeout derives a context bounded by d. A non-positive d only adds cancellation.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
