package shared

import "context"

// Invalidator drops any cached state derived from mutated records. Mutation
// paths that can change assignment resolution call it after a successful
// write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// NoopInvalidator satisfies Invalidator without a backing cache.
type NoopInvalidator struct{}

// Invalidate does nothing.
func (NoopInvalidator) Invalidate(context.Context) error { return nil }
