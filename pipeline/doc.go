// Package pipeline provides the typed entry point over the graph
// engine: Pipeline composes a possibly-unfit graph with its training
// binding and fits on demand, exactly once; FittedPipeline wraps the
// resulting transformer-only graph and is the only serializable form.
//
// Application is deferred: Pipeline.Apply returns a Result forced by
// Get, and ApplyCollection returns a lazy collection forced by Collect.
// FittedPipeline application converts to a non-optimizing pipeline,
// evaluates, and forces, so a fitted pipeline never re-fits and never
// re-optimizes.
//
//	p, err := pipeline.New[float64, float64](g,
//	    pipeline.WithTraining(dataset.FromSlice(rows)))
//	fitted, err := p.Fit(ctx)
//	out, err := fitted.Apply(ctx, 5.0)
//
//	data, err := fitted.Encode()
//	restored, err := pipeline.Decode[float64, float64](data, graph.DefaultRegistry)
package pipeline
