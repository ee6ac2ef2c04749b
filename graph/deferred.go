package graph

import (
	"context"
	"sync"
)

// Deferred is a force-once handle for an apply result.
//
// Applying a graph builds a Deferred without evaluating anything; Get
// forces the computation, at most once, and caches the outcome.
// Concurrent Get calls share the single evaluation.
type Deferred struct {
	once  sync.Once
	force func(ctx context.Context) (any, error)
	value any
	err   error
}

// NewDeferred wraps a computation in a force-once handle.
func NewDeferred(force func(ctx context.Context) (any, error)) *Deferred {
	return &Deferred{force: force}
}

// Get forces the computation and returns the cached outcome. The context
// of the first caller drives the evaluation.
func (d *Deferred) Get(ctx context.Context) (any, error) {
	d.once.Do(func() {
		d.value, d.err = d.force(ctx)
	})
	return d.value, d.err
}
