// Package graph implements the workflow-compilation core: a DAG of
// estimator and transformer nodes, the fitting engine that resolves
// estimators into transformers exactly once, and the executor that
// evaluates the resulting transformer-only graph.
//
// A Node is a tagged union over Op. Source nodes mark where runtime
// input enters; transformer nodes hold a pure apply function; estimator
// nodes hold a fit function that must run against training data before
// the node can process input. Fitting produces a TransformerGraph, a
// checked wrapper guaranteeing every node is applicable.
//
// Executors evaluate a TransformerGraph either strictly in dependency
// order or after semantics-preserving rewrites (dead-node pruning,
// linear chain fusion). Single-item apply and collection apply both
// route through one derived per-element function, so the two modes
// produce identical results for identical inputs.
//
//	g := graph.New()
//	src := g.Add(graph.Source())
//	est := g.Add(graph.Estimator(1, fitMean))
//	g.Connect(src, est, 0)
//	g.SetSource(src)
//	g.SetSink(est)
//
//	tg, err := graph.Fit(ctx, g, training)
//	exec := graph.NewExecutor(tg, true)
//	out, err := exec.Apply(5.0).Get(ctx)
package graph
