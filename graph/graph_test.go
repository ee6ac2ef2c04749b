package graph

import (
	"context"
	"testing"

	"github.com/kbukum/flowkit/errors"
)

// --- test helpers ---

// addN returns a unary transformer computing x + n.
func addN(n float64) *Node {
	return Transformer(1, func(_ context.Context, inputs ...any) (any, error) {
		return inputs[0].(float64) + n, nil
	})
}

// mulN returns a unary transformer computing x * n.
func mulN(n float64) *Node {
	return Transformer(1, func(_ context.Context, inputs ...any) (any, error) {
		return inputs[0].(float64) * n, nil
	})
}

// pairSum returns a two-input transformer computing a + b.
func pairSum() *Node {
	return Transformer(2, func(_ context.Context, inputs ...any) (any, error) {
		return inputs[0].(float64) + inputs[1].(float64), nil
	})
}

// linearGraph builds source -> nodes[0] -> ... -> nodes[n-1] (sink).
func linearGraph(nodes ...*Node) *Graph {
	g := New()
	src := g.Add(Source())
	g.SetSource(src)

	prev := src
	for _, n := range nodes {
		id := g.Add(n)
		g.Connect(prev, id, 0)
		prev = id
	}
	g.SetSink(prev)
	return g
}

// wantMalformed asserts err is an AppError with the MALFORMED_GRAPH code.
func wantMalformed(t *testing.T, err error) *errors.AppError {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	ae, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if ae.Code != errors.ErrCodeMalformedGraph {
		t.Fatalf("expected MALFORMED_GRAPH, got %s: %v", ae.Code, err)
	}
	return ae
}

// --- construction ---

func TestAdd_AssignsIdentity(t *testing.T) {
	g := New()
	n := &Node{Op: OpTransformer, In: 1, Apply: addN(0).Apply}
	id := g.Add(n)
	if id == "" {
		t.Fatal("expected assigned identity")
	}
	if g.Nodes[id] != n {
		t.Fatal("expected node registered under its identity")
	}
}

func TestAdd_KeepsExistingIdentity(t *testing.T) {
	g := New()
	n := addN(1)
	want := n.ID
	if got := g.Add(n); got != want {
		t.Fatalf("expected identity %q preserved, got %q", want, got)
	}
}

func TestInputs_SlotOrdered(t *testing.T) {
	g := New()
	src := g.Add(Source())
	a := g.Add(addN(1))
	b := g.Add(mulN(2))
	sum := g.Add(pairSum())
	g.Connect(src, a, 0)
	g.Connect(src, b, 0)
	// Connect out of slot order on purpose.
	g.Connect(b, sum, 1)
	g.Connect(a, sum, 0)
	g.SetSource(src)
	g.SetSink(sum)

	in := g.Inputs(sum)
	if len(in) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(in))
	}
	if in[0] != a || in[1] != b {
		t.Fatalf("expected slot order [a b], got %v", in)
	}
}

func TestInputs_UnknownNode(t *testing.T) {
	g := New()
	if in := g.Inputs("missing"); in != nil {
		t.Fatalf("expected nil for unknown node, got %v", in)
	}
}

func TestOp_String(t *testing.T) {
	cases := map[Op]string{
		OpSource:      "source",
		OpTransformer: "transformer",
		OpEstimator:   "estimator",
		Op(99):        "unknown",
	}
	for op, want := range cases {
		if got := op.String(); got != want {
			t.Errorf("Op(%d).String() = %q, want %q", int(op), got, want)
		}
	}
}

// --- validation ---

func TestValidate_Linear(t *testing.T) {
	g := linearGraph(addN(1), mulN(2))
	if err := g.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_SingleNode(t *testing.T) {
	g := New()
	src := g.Add(Source())
	g.SetSource(src)
	g.SetSink(src)
	if err := g.Validate(); err != nil {
		t.Fatalf("identity graph should validate: %v", err)
	}
}

func TestValidate_Empty(t *testing.T) {
	wantMalformed(t, New().Validate())
}

func TestValidate_UnknownSource(t *testing.T) {
	g := New()
	sink := g.Add(addN(1))
	g.SetSource("ghost")
	g.SetSink(sink)
	wantMalformed(t, g.Validate())
}

func TestValidate_UnknownSink(t *testing.T) {
	g := New()
	src := g.Add(Source())
	g.SetSource(src)
	g.SetSink("ghost")
	wantMalformed(t, g.Validate())
}

func TestValidate_SourceWrongOp(t *testing.T) {
	g := New()
	src := g.Add(addN(1))
	g.SetSource(src)
	g.SetSink(src)
	wantMalformed(t, g.Validate())
}

func TestValidate_SecondSource(t *testing.T) {
	g := linearGraph(addN(1))
	g.Add(Source())
	wantMalformed(t, g.Validate())
}

func TestValidate_Cycle(t *testing.T) {
	g := New()
	src := g.Add(Source())
	a := g.Add(pairSum())
	b := g.Add(addN(1))
	c := g.Add(addN(2))
	d := g.Add(addN(3))
	g.Connect(src, a, 0)
	g.Connect(c, a, 1)
	g.Connect(a, b, 0)
	g.Connect(b, c, 0)
	g.Connect(c, d, 0)
	g.SetSource(src)
	g.SetSink(d)
	wantMalformed(t, g.Validate())
}

func TestValidate_MissingSlot(t *testing.T) {
	g := New()
	src := g.Add(Source())
	sum := g.Add(pairSum())
	g.Connect(src, sum, 0)
	g.SetSource(src)
	g.SetSink(sum)
	wantMalformed(t, g.Validate())
}

func TestValidate_DuplicateSlot(t *testing.T) {
	g := New()
	src := g.Add(Source())
	a := g.Add(addN(1))
	sum := g.Add(pairSum())
	g.Connect(src, a, 0)
	g.Connect(src, sum, 0)
	g.Connect(a, sum, 0)
	g.SetSource(src)
	g.SetSink(sum)
	wantMalformed(t, g.Validate())
}

func TestValidate_SlotOutOfRange(t *testing.T) {
	g := New()
	src := g.Add(Source())
	a := g.Add(addN(1))
	g.Connect(src, a, 3)
	g.SetSource(src)
	g.SetSink(a)
	wantMalformed(t, g.Validate())
}

func TestValidate_EdgeIntoSource(t *testing.T) {
	g := linearGraph(addN(1))
	g.Connect(g.Sink, g.Source, 0)
	wantMalformed(t, g.Validate())
}

func TestValidate_EdgeReferencesUnknownNode(t *testing.T) {
	g := linearGraph(addN(1))
	g.Connect("ghost", g.Sink, 0)
	wantMalformed(t, g.Validate())
}

func TestValidate_SourceFedNodeMissesSink(t *testing.T) {
	g := linearGraph(addN(1))
	dangling := g.Add(mulN(2))
	g.Connect(g.Source, dangling, 0)
	wantMalformed(t, g.Validate())
}

func TestValidate_DisconnectedIslandAllowed(t *testing.T) {
	g := linearGraph(addN(1))
	// A constant chain nobody consumes: legal, prunable.
	island := g.Add(Transformer(0, func(_ context.Context, _ ...any) (any, error) {
		return 0.0, nil
	}))
	tail := g.Add(addN(1))
	g.Connect(island, tail, 0)

	if err := g.Validate(); err != nil {
		t.Fatalf("disconnected island should validate: %v", err)
	}
}

func TestValidate_TransformerWithoutApply(t *testing.T) {
	g := linearGraph(&Node{Op: OpTransformer, In: 1})
	wantMalformed(t, g.Validate())
}

func TestValidate_EstimatorWithoutFit(t *testing.T) {
	g := linearGraph(&Node{Op: OpEstimator, In: 1})
	wantMalformed(t, g.Validate())
}

func TestValidate_EstimatorZeroArity(t *testing.T) {
	g := New()
	src := g.Add(Source())
	est := g.Add(&Node{Op: OpEstimator, In: 0, Fit: func(context.Context, ...[]any) (*Node, error) {
		return nil, nil
	}})
	sum := g.Add(pairSum())
	g.Connect(src, sum, 0)
	g.Connect(est, sum, 1)
	g.SetSource(src)
	g.SetSink(sum)
	wantMalformed(t, g.Validate())
}

func TestAsTransformerGraph_RejectsEstimator(t *testing.T) {
	g := linearGraph(Estimator(1, func(context.Context, ...[]any) (*Node, error) {
		return nil, nil
	}))
	_, err := g.AsTransformerGraph()
	wantMalformed(t, err)
}

func TestAsTransformerGraph_AcceptsTransformerOnly(t *testing.T) {
	g := linearGraph(addN(1), mulN(3))
	tg, err := g.AsTransformerGraph()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tg.Graph() != g {
		t.Fatal("expected wrapper around the same graph")
	}
}
