package graph

import (
	"fmt"

	"github.com/kbukum/flowkit/errors"
)

// TransformerGraph is a validated, estimator-free graph.
//
// Values are produced only by Fit and AsTransformerGraph, never built
// directly. The underlying structure is immutable after construction and
// safe to share across any number of concurrent readers.
type TransformerGraph struct {
	g *Graph
}

// Graph returns the underlying graph. Callers must treat it as read-only.
func (tg *TransformerGraph) Graph() *Graph { return tg.g }

// Validate checks the structural invariants and returns an
// errors.MalformedGraph error on the first violation: empty graph,
// unknown source or sink, non-source node marked as source, extra
// source nodes, missing node functions, arity or slot mismatches,
// cycles, and nodes fed by the source that never reach the sink.
//
// Validate is side-effect free and does not require the graph to be
// estimator-free; use AsTransformerGraph for that stronger check.
func (g *Graph) Validate() error {
	if len(g.Nodes) == 0 {
		return errors.MalformedGraph("graph has no nodes")
	}
	src, ok := g.Nodes[g.Source]
	if !ok {
		return errors.MalformedGraph(fmt.Sprintf("source %q is not in the node set", g.Source))
	}
	if _, ok := g.Nodes[g.Sink]; !ok {
		return errors.MalformedGraph(fmt.Sprintf("sink %q is not in the node set", g.Sink))
	}
	if src.Op != OpSource {
		return errors.MalformedGraph(fmt.Sprintf("source %q is a %s node", g.Source, src.Op))
	}
	for id, n := range g.Nodes {
		if n.Op == OpSource && id != g.Source {
			return errors.MalformedGraph(fmt.Sprintf("node %q is a second source", id))
		}
	}

	if err := g.checkNodes(); err != nil {
		return err
	}
	if err := g.checkEdges(); err != nil {
		return err
	}
	if _, err := topoOrder(g); err != nil {
		return err
	}
	return g.checkReachability()
}

// AsTransformerGraph validates the graph and asserts it contains no
// estimator nodes.
func (g *Graph) AsTransformerGraph() (*TransformerGraph, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	for id, n := range g.Nodes {
		if n.Op == OpEstimator {
			return nil, errors.MalformedGraph(fmt.Sprintf("node %q is an unfit estimator", id))
		}
	}
	return &TransformerGraph{g: g}, nil
}

func (g *Graph) checkNodes() error {
	for id, n := range g.Nodes {
		switch n.Op {
		case OpSource:
			if n.In != 0 {
				return errors.MalformedGraph(fmt.Sprintf("source %q declares %d input slots", id, n.In))
			}
		case OpTransformer:
			if n.In < 0 {
				return errors.MalformedGraph(fmt.Sprintf("node %q declares negative arity", id))
			}
			if n.Apply == nil {
				return errors.MalformedGraph(fmt.Sprintf("transformer %q has no apply function", id))
			}
		case OpEstimator:
			if n.In < 1 {
				return errors.MalformedGraph(fmt.Sprintf("estimator %q declares no training inputs", id))
			}
			if n.Fit == nil {
				return errors.MalformedGraph(fmt.Sprintf("estimator %q has no fit function", id))
			}
		default:
			return errors.MalformedGraph(fmt.Sprintf("node %q has unknown op %d", id, int(n.Op)))
		}
	}
	return nil
}

func (g *Graph) checkEdges() error {
	filled := make(map[NodeID]map[int]bool)
	for _, e := range g.Edges {
		if _, ok := g.Nodes[e.From]; !ok {
			return errors.MalformedGraph(fmt.Sprintf("edge references unknown node %q", e.From))
		}
		to, ok := g.Nodes[e.To]
		if !ok {
			return errors.MalformedGraph(fmt.Sprintf("edge references unknown node %q", e.To))
		}
		if e.To == g.Source {
			return errors.MalformedGraph(fmt.Sprintf("source %q has an incoming edge", e.To))
		}
		if e.From == g.Sink {
			return errors.MalformedGraph(fmt.Sprintf("sink %q has an outgoing edge", e.From))
		}
		if e.Slot < 0 || e.Slot >= to.In {
			return errors.MalformedGraph(fmt.Sprintf("edge into %q uses slot %d outside arity %d", e.To, e.Slot, to.In))
		}
		slots := filled[e.To]
		if slots == nil {
			slots = make(map[int]bool)
			filled[e.To] = slots
		}
		if slots[e.Slot] {
			return errors.MalformedGraph(fmt.Sprintf("node %q slot %d is bound twice", e.To, e.Slot))
		}
		slots[e.Slot] = true
	}

	// Slots are in range and unique, so count == arity means 0..In-1 are
	// each bound exactly once.
	for id, n := range g.Nodes {
		if got := len(filled[id]); got != n.In {
			return errors.MalformedGraph(fmt.Sprintf("node %q has %d of %d input slots bound", id, got, n.In))
		}
	}
	return nil
}

// checkReachability rejects nodes fed by the source that never reach the
// sink. Islands disconnected from the source are legal; the optimizer
// prunes the ones the sink does not need.
func (g *Graph) checkReachability() error {
	feeds := ancestorsOf(g, g.Sink)
	for id := range descendantsOf(g, g.Source) {
		if !feeds[id] {
			return errors.MalformedGraph(fmt.Sprintf("node %q is fed by the source but never reaches the sink", id))
		}
	}
	return nil
}

// topoOrder returns the nodes in dependency-first order using Kahn's
// algorithm. Fails when a cycle prevents completion.
func topoOrder(g *Graph) ([]NodeID, error) {
	inDegree := make(map[NodeID]int, len(g.Nodes))
	dependents := make(map[NodeID][]NodeID)

	for id := range g.Nodes {
		inDegree[id] = 0
	}
	for _, e := range g.Edges {
		inDegree[e.To]++
		dependents[e.From] = append(dependents[e.From], e.To)
	}

	queue := make([]NodeID, 0, len(g.Nodes))
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]NodeID, 0, len(g.Nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, dep := range dependents[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		return nil, errors.MalformedGraph(fmt.Sprintf("cycle detected, ordered %d of %d nodes", len(order), len(g.Nodes)))
	}
	return order, nil
}

// ancestorsOf returns the set of nodes that feed id, including id itself.
func ancestorsOf(g *Graph, id NodeID) map[NodeID]bool {
	incoming := make(map[NodeID][]NodeID)
	for _, e := range g.Edges {
		incoming[e.To] = append(incoming[e.To], e.From)
	}
	return walk(id, incoming)
}

// descendantsOf returns the set of nodes fed by id, including id itself.
func descendantsOf(g *Graph, id NodeID) map[NodeID]bool {
	outgoing := make(map[NodeID][]NodeID)
	for _, e := range g.Edges {
		outgoing[e.From] = append(outgoing[e.From], e.To)
	}
	return walk(id, outgoing)
}

func walk(start NodeID, next map[NodeID][]NodeID) map[NodeID]bool {
	seen := map[NodeID]bool{start: true}
	stack := []NodeID{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range next[cur] {
			if !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	return seen
}
