package graph

import (
	"context"

	"github.com/google/uuid"
)

// NodeID is the stable identity of a node within a graph. Identity
// memoizes fitting and anchors error reporting.
type NodeID string

// NewNodeID returns a fresh unique node identity.
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

// Op discriminates the node variants.
type Op int

const (
	// OpSource marks the entry point for runtime input. No function.
	OpSource Op = iota
	// OpTransformer holds a directly applicable function.
	OpTransformer
	// OpEstimator holds a fitting function and must be fit before use.
	OpEstimator
)

func (op Op) String() string {
	switch op {
	case OpSource:
		return "source"
	case OpTransformer:
		return "transformer"
	case OpEstimator:
		return "estimator"
	default:
		return "unknown"
	}
}

// ApplyFunc computes a node's output from its slot-ordered inputs.
// Implementations must be pure: evaluation may run concurrently across
// collection elements and may re-execute on retry.
type ApplyFunc func(ctx context.Context, inputs ...any) (any, error)

// FitFunc resolves an estimator against slot-ordered training columns,
// returning the transformer node that replaces it.
type FitFunc func(ctx context.Context, training ...[]any) (*Node, error)

// Node is a unit of computation, a tagged union over Op.
//
// Kind and Params are set when the node was built from a registered
// factory; they are what makes a transformer serializable. Nodes built
// from bare closures have an empty Kind and cannot be encoded.
type Node struct {
	ID     NodeID
	Op     Op
	In     int
	Kind   string
	Params map[string]any
	Apply  ApplyFunc
	Fit    FitFunc
}

// Source returns a fresh runtime-input entry node.
func Source() *Node {
	return &Node{ID: NewNodeID(), Op: OpSource}
}

// Transformer returns a transformer node with the given input arity.
func Transformer(in int, apply ApplyFunc) *Node {
	return &Node{ID: NewNodeID(), Op: OpTransformer, In: in, Apply: apply}
}

// Estimator returns an estimator node with the given input arity.
func Estimator(in int, fit FitFunc) *Node {
	return &Node{ID: NewNodeID(), Op: OpEstimator, In: in, Fit: fit}
}

// Edge is a directed dependency: To consumes From's output at Slot.
// Slots are 0-based and ordered; one producer may feed many consumers.
type Edge struct {
	From NodeID
	To   NodeID
	Slot int
}

// Graph is the pipeline DAG: node set, edge set, and the distinguished
// source and sink identities.
//
// Graph is a plain data structure with no behavior beyond construction
// and lookup. Fitting and evaluation never mutate it.
type Graph struct {
	Nodes  map[NodeID]*Node
	Edges  []Edge
	Source NodeID
	Sink   NodeID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{Nodes: make(map[NodeID]*Node)}
}

// Add inserts a node, assigning an identity if it has none, and returns
// that identity.
func (g *Graph) Add(n *Node) NodeID {
	if n.ID == "" {
		n.ID = NewNodeID()
	}
	g.Nodes[n.ID] = n
	return n.ID
}

// Connect records that to consumes from's output at the given slot.
func (g *Graph) Connect(from, to NodeID, slot int) {
	g.Edges = append(g.Edges, Edge{From: from, To: to, Slot: slot})
}

// SetSource marks the runtime-input entry node.
func (g *Graph) SetSource(id NodeID) { g.Source = id }

// SetSink marks the node whose output is the pipeline result.
func (g *Graph) SetSink(id NodeID) { g.Sink = id }

// Inputs returns the slot-ordered upstream producers of a node. Unbound
// slots are empty; Validate rejects graphs where that can happen.
func (g *Graph) Inputs(id NodeID) []NodeID {
	n, ok := g.Nodes[id]
	if !ok {
		return nil
	}
	in := make([]NodeID, n.In)
	for _, e := range g.Edges {
		if e.To != id {
			continue
		}
		if e.Slot >= 0 && e.Slot < len(in) {
			in[e.Slot] = e.From
		}
	}
	return in
}
