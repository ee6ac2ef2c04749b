package graph

import (
	"context"
	"sync"

	"github.com/kbukum/flowkit/dataset"
	"github.com/kbukum/flowkit/errors"
)

// Executor binds a TransformerGraph to an evaluation strategy.
//
// The executor never mutates the graph and holds no per-invocation
// state, so one executor serves any number of concurrent applies. With
// optimization enabled, the rewrites run once on first use and the
// optimized form is cached for every later apply.
type Executor struct {
	tg       *TransformerGraph
	optimize bool

	once    sync.Once
	derived dataset.ElementFunc
}

// NewExecutor creates an executor over a transformer graph. When
// optimize is true, semantics-preserving rewrites are applied before
// evaluation; the sink value is unchanged either way.
func NewExecutor(tg *TransformerGraph, optimize bool) *Executor {
	return &Executor{tg: tg, optimize: optimize}
}

// Apply binds input to the source and returns a deferred handle for the
// sink value. Nothing is evaluated until the handle is forced. A nil
// input leaves the source unbound and surfaces as an error on Get.
func (e *Executor) Apply(input any) *Deferred {
	fn := e.elementFunc()
	return NewDeferred(func(ctx context.Context) (any, error) {
		return fn(ctx, input)
	})
}

// ApplyCollection maps the graph over a collection. The result is lazy:
// the derived per-element function is handed to the collection's
// Transform primitive and runs only when the caller collects.
//
// Single-item Apply routes through the same derived function, which is
// what guarantees the two modes agree element for element.
func (e *Executor) ApplyCollection(c dataset.Collection) (dataset.Collection, error) {
	if c == nil {
		return nil, errors.UnboundSource(string(e.tg.Graph().Source))
	}
	return c.Transform(e.elementFunc()), nil
}

// elementFunc returns the per-element evaluation function, deriving it
// on first use and caching it for the executor's lifetime. The derived
// function rejects nil elements as an unbound source, so single applies
// and collection elements agree on the nil edge too.
func (e *Executor) elementFunc() dataset.ElementFunc {
	e.once.Do(func() {
		g := e.tg.Graph()
		if e.optimize {
			g = optimize(g)
		}
		source := string(g.Source)
		order, err := topoOrder(g)
		if err != nil {
			// Unreachable for a validated graph; surface on force.
			e.derived = func(context.Context, any) (any, error) { return nil, err }
			return
		}
		eval := evalFunc(g, order)
		e.derived = func(ctx context.Context, v any) (any, error) {
			if v == nil {
				return nil, errors.UnboundSource(source)
			}
			return eval(ctx, v)
		}
	})
	return e.derived
}

// evalFunc compiles the graph into a single per-element function: a
// dependency-order walk that binds v to the source and reads the result
// at the sink.
func evalFunc(g *Graph, order []NodeID) dataset.ElementFunc {
	inputs := make(map[NodeID][]NodeID, len(g.Nodes))
	for id := range g.Nodes {
		inputs[id] = g.Inputs(id)
	}

	return func(ctx context.Context, v any) (any, error) {
		values := make(map[NodeID]any, len(order))
		for _, id := range order {
			n := g.Nodes[id]
			if n.Op == OpSource {
				values[id] = v
				continue
			}
			args := make([]any, len(inputs[id]))
			for i, up := range inputs[id] {
				args[i] = values[up]
			}
			out, err := n.Apply(ctx, args...)
			if err != nil {
				return nil, evalError(id, err)
			}
			values[id] = out
		}
		return values[g.Sink], nil
	}
}

// evalError attributes a node failure to its identity, passing through
// failures already attributed by an inner (fused) node.
func evalError(id NodeID, err error) error {
	if ae, ok := errors.AsAppError(err); ok && ae.Code == errors.ErrCodeEvaluationFailed {
		return err
	}
	return errors.EvaluationFailed(string(id), err)
}
