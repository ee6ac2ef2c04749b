package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/flowkit/dataset"
	"github.com/kbukum/flowkit/graph"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
)

// options collects the settings shared by every Pipeline instantiation.
type options struct {
	training dataset.Collection
	optimize bool
	log      *logger.Logger
}

// Option configures a Pipeline.
type Option func(*options)

// WithTraining binds the training collection consumed by fitting. A
// pipeline whose graph contains estimators cannot fit without one.
func WithTraining(c dataset.Collection) Option {
	return func(o *options) { o.training = c }
}

// WithOptimize toggles graph rewrites before evaluation. Enabled by
// default; fitted pipelines always evaluate without optimization.
func WithOptimize(enabled bool) Option {
	return func(o *options) { o.optimize = enabled }
}

// WithLogger sets the logger used for fit and apply diagnostics.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// Pipeline is the typed facade over a graph that may still contain
// estimators. Fitting happens at most once per Pipeline, on the first
// Apply, ApplyCollection, or Fit call; concurrent callers share it.
type Pipeline[A, B any] struct {
	g    *graph.Graph
	opts options

	fitOnce sync.Once
	fitted  *FittedPipeline[A, B]
	exec    *graph.Executor
	fitErr  error
}

// New creates a Pipeline over g. The graph is validated eagerly;
// structural problems abort construction.
func New[A, B any](g *graph.Graph, opts ...Option) (*Pipeline[A, B], error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	o := options{optimize: true, log: logger.GetGlobalLogger().WithComponent("pipeline")}
	for _, opt := range opts {
		opt(&o)
	}
	return &Pipeline[A, B]{g: g, opts: o}, nil
}

// Fit resolves every estimator exactly once and returns the resulting
// FittedPipeline. Repeated calls return the same instance.
func (p *Pipeline[A, B]) Fit(ctx context.Context) (*FittedPipeline[A, B], error) {
	p.fitOnce.Do(func() {
		ctx, span := observability.StartSpan(ctx, observability.SpanFit)
		defer span.End()

		tg, err := graph.Fit(ctx, p.g, p.opts.training)
		if err != nil {
			observability.SetSpanError(ctx, err)
			p.fitErr = err
			p.opts.log.Error("pipeline fit failed", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
			return
		}
		p.fitted = newFitted[A, B](tg, p.opts.log)
		p.exec = graph.NewExecutor(tg, p.opts.optimize)
		p.opts.log.Debug("pipeline fitted", map[string]interface{}{
			"nodes": len(tg.Graph().Nodes),
		})
	})
	return p.fitted, p.fitErr
}

// Apply binds a to the source and returns a deferred typed result.
// Fitting, if still pending, happens here; evaluation waits until the
// result is forced.
func (p *Pipeline[A, B]) Apply(ctx context.Context, a A) *Result[B] {
	if _, err := p.Fit(ctx); err != nil {
		return errResult[B](err)
	}
	return newResult[B](p.exec.Apply(a))
}

// ApplyCollection maps the pipeline over a collection. The returned
// collection is lazy; nothing runs until the caller collects it.
func (p *Pipeline[A, B]) ApplyCollection(ctx context.Context, c dataset.Collection) (dataset.Collection, error) {
	if _, err := p.Fit(ctx); err != nil {
		return nil, err
	}
	return p.exec.ApplyCollection(c)
}

// Result is a deferred, typed apply outcome. Get forces the underlying
// evaluation exactly once and caches it.
type Result[B any] struct {
	d   *graph.Deferred
	err error
}

func newResult[B any](d *graph.Deferred) *Result[B] {
	return &Result[B]{d: d}
}

func errResult[B any](err error) *Result[B] {
	return &Result[B]{err: err}
}

// Get forces the evaluation and returns the sink value as B.
func (r *Result[B]) Get(ctx context.Context) (B, error) {
	var zero B
	if r.err != nil {
		return zero, r.err
	}
	v, err := r.d.Get(ctx)
	if err != nil {
		return zero, err
	}
	b, ok := v.(B)
	if !ok {
		return zero, fmt.Errorf("pipeline: sink produced %T, expected %T", v, zero)
	}
	return b, nil
}
