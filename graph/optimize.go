package graph

import "context"

// optimize applies the rewrite rules to a validated transformer graph
// and returns a new graph; the input is untouched. The rules run in a
// fixed order and each preserves the sink value for any source binding:
//
//  1. pruneUnused drops nodes the sink does not depend on.
//  2. fuseChains collapses linear transformer chains into composite
//     nodes so collection applies avoid materializing intermediates.
func optimize(g *Graph) *Graph {
	return fuseChains(pruneUnused(g))
}

// pruneUnused removes nodes that do not feed the sink. Validation
// guarantees such nodes are unreachable from the source, so dropping
// them cannot change the sink value.
func pruneUnused(g *Graph) *Graph {
	keep := ancestorsOf(g, g.Sink)
	if len(keep) == len(g.Nodes) {
		return g
	}

	nodes := make(map[NodeID]*Node, len(keep))
	for id := range keep {
		nodes[id] = g.Nodes[id]
	}
	edges := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if keep[e.From] && keep[e.To] {
			edges = append(edges, e)
		}
	}
	return &Graph{Nodes: nodes, Edges: edges, Source: g.Source, Sink: g.Sink}
}

// fuseChains collapses linear transformer chains into single composite
// nodes. A link fuses when the upstream transformer feeds exactly one
// consumer and that consumer is a single-input transformer. The fused
// node keeps the downstream identity and the upstream's input edges, so
// repeated fusion folds whole chains into one node.
func fuseChains(g *Graph) *Graph {
	out := &Graph{
		Nodes:  make(map[NodeID]*Node, len(g.Nodes)),
		Edges:  make([]Edge, len(g.Edges)),
		Source: g.Source,
		Sink:   g.Sink,
	}
	for id, n := range g.Nodes {
		out.Nodes[id] = n
	}
	copy(out.Edges, g.Edges)

	for fuseOne(out) {
	}
	return out
}

// fuseOne performs a single fusion if any link qualifies.
func fuseOne(g *Graph) bool {
	outDegree := make(map[NodeID]int, len(g.Nodes))
	for _, e := range g.Edges {
		outDegree[e.From]++
	}

	for _, e := range g.Edges {
		up := g.Nodes[e.From]
		down := g.Nodes[e.To]
		if up.Op != OpTransformer || down.Op != OpTransformer {
			continue
		}
		if down.In != 1 || outDegree[e.From] != 1 {
			continue
		}
		fuse(g, e.From, e.To)
		return true
	}
	return false
}

// fuse replaces the pair (a -> b) with one composite node under b's
// identity. Failures inside the composite stay attributed to the node
// that raised them.
func fuse(g *Graph, aID, bID NodeID) {
	a := g.Nodes[aID]
	b := g.Nodes[bID]
	aApply := a.Apply
	bApply := b.Apply

	g.Nodes[bID] = &Node{
		ID: bID,
		Op: OpTransformer,
		In: a.In,
		Apply: func(ctx context.Context, inputs ...any) (any, error) {
			mid, err := aApply(ctx, inputs...)
			if err != nil {
				return nil, evalError(aID, err)
			}
			return bApply(ctx, mid)
		},
	}
	delete(g.Nodes, aID)

	edges := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		switch {
		case e.From == aID && e.To == bID:
			// the fused link disappears
		case e.To == aID:
			edges = append(edges, Edge{From: e.From, To: bID, Slot: e.Slot})
		default:
			edges = append(edges, e)
		}
	}
	g.Edges = edges
}
