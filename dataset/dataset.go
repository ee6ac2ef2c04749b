package dataset

import (
	"context"
	"sync"
)

// ElementFunc transforms a single element. Implementations must be pure:
// backends may re-execute the function and evaluate elements in any order.
type ElementFunc func(ctx context.Context, v any) (any, error)

// Collection is a lazily evaluated sequence of elements.
type Collection interface {
	// Transform returns a new collection with fn applied to every element.
	// The receiver is unchanged; no work happens until Collect.
	Transform(fn ElementFunc) Collection
	// Collect evaluates all pending stages and returns the elements in
	// source order.
	Collect(ctx context.Context) ([]any, error)
	// Len returns the element count if known without evaluating.
	Len() (int, bool)
}

// Iterator provides pull-based sequential access to source elements.
type Iterator interface {
	// Next returns the next element. Returns (nil, false, nil) when exhausted.
	Next(ctx context.Context) (any, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Local is the in-process Collection backend.
//
// The source factory is invoked on every Collect, so a Local collection
// can be forced more than once. Transform stages are recorded and applied
// at Collect time, sequentially by default or with a bounded worker pool
// when configured via WithParallel.
type Local struct {
	source   func(ctx context.Context) Iterator
	stages   []ElementFunc
	length   int
	sized    bool
	parallel int
}

// FromSlice creates a collection over the given elements.
func FromSlice(items []any) *Local {
	return &Local{
		source: func(_ context.Context) Iterator {
			return &sliceIter{items: items}
		},
		length: len(items),
		sized:  true,
	}
}

// FromFunc creates a collection from a factory that produces a fresh
// Iterator per evaluation. The element count is unknown.
func FromFunc(fn func(ctx context.Context) Iterator) *Local {
	return &Local{source: fn}
}

// WithParallel returns a copy of the collection that evaluates transform
// stages with up to n workers. Result order is preserved. n <= 1 keeps
// sequential evaluation.
func (l *Local) WithParallel(n int) *Local {
	out := l.clone()
	out.parallel = n
	return out
}

// Transform implements Collection.
func (l *Local) Transform(fn ElementFunc) Collection {
	out := l.clone()
	out.stages = append(out.stages, fn)
	return out
}

// Len implements Collection.
func (l *Local) Len() (int, bool) {
	return l.length, l.sized
}

// Collect implements Collection.
func (l *Local) Collect(ctx context.Context) ([]any, error) {
	items, err := l.drain(ctx)
	if err != nil {
		return nil, err
	}
	if len(l.stages) == 0 || len(items) == 0 {
		return items, nil
	}
	if l.parallel > 1 && len(items) > 1 {
		return l.collectParallel(ctx, items)
	}

	out := make([]any, len(items))
	for i, v := range items {
		r, err := l.apply(ctx, v)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// clone copies the collection so stage lists never alias.
func (l *Local) clone() *Local {
	out := *l
	out.stages = make([]ElementFunc, len(l.stages), len(l.stages)+1)
	copy(out.stages, l.stages)
	return &out
}

// drain materializes the raw source elements.
func (l *Local) drain(ctx context.Context) ([]any, error) {
	iter := l.source(ctx)
	defer iter.Close()

	var items []any
	for {
		val, ok, err := iter.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return items, nil
		}
		items = append(items, val)
	}
}

// apply runs the stage chain over a single element.
func (l *Local) apply(ctx context.Context, v any) (any, error) {
	var err error
	for _, fn := range l.stages {
		v, err = fn(ctx, v)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// collectParallel evaluates the stage chain with a bounded worker pool,
// writing each result back at its source index.
func (l *Local) collectParallel(ctx context.Context, items []any) ([]any, error) {
	workers := l.parallel
	if workers > len(items) {
		workers = len(items)
	}

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([]any, len(items))
	indexes := make(chan int)
	errCh := make(chan error, workers)
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				r, err := l.apply(workCtx, items[i])
				if err != nil {
					select {
					case errCh <- err:
					default:
					}
					cancel()
					return
				}
				out[i] = r
			}
		}()
	}

	go func() {
		defer close(indexes)
		for i := range items {
			select {
			case indexes <- i:
			case <-workCtx.Done():
				return
			}
		}
	}()

	wg.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type sliceIter struct {
	items []any
	index int
}

func (it *sliceIter) Next(_ context.Context) (any, bool, error) {
	if it.index >= len(it.items) {
		return nil, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter) Close() error { return nil }
