package pipeline

import (
	"context"

	"github.com/kbukum/flowkit/dataset"
	"github.com/kbukum/flowkit/graph"
	"github.com/kbukum/flowkit/logger"
)

// FittedPipeline wraps a transformer-only graph. It is produced only by
// fitting (or by decoding a persisted pipeline), is immutable, and is
// safe to share across any number of concurrent readers.
type FittedPipeline[A, B any] struct {
	tg  *graph.TransformerGraph
	log *logger.Logger
}

func newFitted[A, B any](tg *graph.TransformerGraph, log *logger.Logger) *FittedPipeline[A, B] {
	return &FittedPipeline[A, B]{tg: tg, log: log}
}

// Graph returns the underlying transformer graph. Read-only.
func (f *FittedPipeline[A, B]) Graph() *graph.TransformerGraph {
	return f.tg
}

// ToPipeline wraps the held graph in a fresh non-optimizing pipeline,
// reusing source and sink. Pure conversion: no re-fitting, no rewrites,
// so apply behavior is stable across serialization boundaries.
func (f *FittedPipeline[A, B]) ToPipeline() *Pipeline[A, B] {
	p := &Pipeline[A, B]{
		g:    f.tg.Graph(),
		opts: options{optimize: false, log: f.log},
	}
	// Already fit; seed the once so Apply never walks the fit path.
	p.fitOnce.Do(func() {
		p.fitted = f
		p.exec = graph.NewExecutor(f.tg, false)
	})
	return p
}

// Apply evaluates the pipeline for a single item and forces the result.
func (f *FittedPipeline[A, B]) Apply(ctx context.Context, a A) (B, error) {
	return f.ToPipeline().Apply(ctx, a).Get(ctx)
}

// ApplyCollection maps the pipeline over a collection. The result stays
// lazy until the caller collects it.
func (f *FittedPipeline[A, B]) ApplyCollection(ctx context.Context, c dataset.Collection) (dataset.Collection, error) {
	return f.ToPipeline().ApplyCollection(ctx, c)
}
