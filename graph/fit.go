package graph

import (
	"context"
	"fmt"

	"github.com/kbukum/flowkit/dataset"
	"github.com/kbukum/flowkit/errors"
)

// Fit resolves every estimator in g into a transformer and returns the
// resulting TransformerGraph. Each estimator's fit function runs exactly
// once per call, memoized by node identity in a map scoped to this call;
// the replacement transformer is installed under the estimator's original
// identity, so shared subgraphs keep sharing.
//
// The training collection is bound to the source. It is materialized at
// most once, and only the nodes some estimator depends on are evaluated
// to propagate training values downstream.
//
// Fit never mutates g. Fitting the same graph instance concurrently is
// not supported; the returned TransformerGraph is immutable and freely
// shareable.
func Fit(ctx context.Context, g *Graph, training dataset.Collection) (*TransformerGraph, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	estimators := 0
	for _, n := range g.Nodes {
		if n.Op == OpEstimator {
			estimators++
		}
	}
	if estimators == 0 {
		return g.AsTransformerGraph()
	}
	if training == nil {
		return nil, errors.UnboundSource(string(g.Source))
	}

	rows, err := training.Collect(ctx)
	if err != nil {
		return nil, errors.FittingFailed(string(g.Source), err)
	}

	order, err := topoOrder(g)
	if err != nil {
		return nil, err
	}

	// Training values are needed only where an estimator depends on them.
	needed := make(map[NodeID]bool)
	for id, n := range g.Nodes {
		if n.Op != OpEstimator {
			continue
		}
		for a := range ancestorsOf(g, id) {
			if a != id {
				needed[a] = true
			}
		}
	}

	values := make(map[NodeID][]any, len(needed))
	fitted := make(map[NodeID]*Node, estimators)

	for _, id := range order {
		n := g.Nodes[id]
		switch n.Op {
		case OpSource:
			if needed[id] {
				values[id] = rows
			}

		case OpTransformer:
			if !needed[id] {
				continue
			}
			cols := inputColumns(g, values, id)
			out, err := applyColumns(ctx, n.Apply, cols, len(rows))
			if err != nil {
				return nil, evalError(id, err)
			}
			values[id] = out

		case OpEstimator:
			cols := inputColumns(g, values, id)
			repl, err := n.Fit(ctx, cols...)
			if err != nil {
				return nil, errors.FittingFailed(string(id), err)
			}
			if repl == nil {
				return nil, errors.FittingFailed(string(id), fmt.Errorf("estimator returned no replacement node"))
			}
			if repl.Op != OpTransformer || repl.Apply == nil {
				return nil, errors.FittingFailed(string(id), fmt.Errorf("estimator returned a %s node", repl.Op))
			}
			if repl.In != n.In {
				return nil, errors.FittingFailed(string(id), fmt.Errorf("replacement arity %d does not match estimator arity %d", repl.In, n.In))
			}

			keyed := *repl
			keyed.ID = id
			fitted[id] = &keyed

			if needed[id] {
				out, err := applyColumns(ctx, keyed.Apply, cols, len(rows))
				if err != nil {
					return nil, evalError(id, err)
				}
				values[id] = out
			}
		}
	}

	nodes := make(map[NodeID]*Node, len(g.Nodes))
	for id, n := range g.Nodes {
		if repl, ok := fitted[id]; ok {
			nodes[id] = repl
		} else {
			nodes[id] = n
		}
	}
	edges := make([]Edge, len(g.Edges))
	copy(edges, g.Edges)

	return &TransformerGraph{g: &Graph{
		Nodes:  nodes,
		Edges:  edges,
		Source: g.Source,
		Sink:   g.Sink,
	}}, nil
}

// inputColumns gathers the propagated training columns for a node's
// slot-ordered inputs.
func inputColumns(g *Graph, values map[NodeID][]any, id NodeID) [][]any {
	ups := g.Inputs(id)
	cols := make([][]any, len(ups))
	for i, up := range ups {
		cols[i] = values[up]
	}
	return cols
}

// applyColumns applies fn element-wise across aligned training columns.
func applyColumns(ctx context.Context, fn ApplyFunc, cols [][]any, count int) ([]any, error) {
	out := make([]any, count)
	for i := 0; i < count; i++ {
		row := make([]any, len(cols))
		for s := range cols {
			row[s] = cols[s][i]
		}
		v, err := fn(ctx, row...)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
