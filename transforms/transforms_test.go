package transforms

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/flowkit/dataset"
	"github.com/kbukum/flowkit/graph"
)

// build constructs a registered kind or fails the test.
func build(t *testing.T, kind string, params map[string]any) *graph.Node {
	t.Helper()
	n, err := graph.DefaultRegistry.Build(kind, params)
	if err != nil {
		t.Fatalf("build %s: %v", kind, err)
	}
	return n
}

// applyOne runs a transformer node on a single set of inputs.
func applyOne(t *testing.T, n *graph.Node, inputs ...any) any {
	t.Helper()
	out, err := n.Apply(context.Background(), inputs...)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	return out
}

func TestAffine(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]any
		in     any
		want   float64
	}{
		{"scale and shift", map[string]any{"scale": 2.0, "shift": 1.0}, 3.0, 7},
		{"defaults to identity", nil, 4.0, 4},
		{"integer params", map[string]any{"scale": 3, "shift": -1}, 2.0, 5},
		{"integer input", map[string]any{"scale": 2.0}, 5, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := build(t, KindAffine, tc.params)
			if got := applyOne(t, n, tc.in); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAffine_NonNumericInput(t *testing.T) {
	n := build(t, KindAffine, nil)
	if _, err := n.Apply(context.Background(), "nope"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestAffine_BadParam(t *testing.T) {
	if _, err := graph.DefaultRegistry.Build(KindAffine, map[string]any{"scale": "big"}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestClamp(t *testing.T) {
	n := build(t, KindClamp, map[string]any{"min": 0.0, "max": 10.0})
	cases := map[float64]float64{-5: 0, 5: 5, 15: 10}
	for in, want := range cases {
		if got := applyOne(t, n, in); got != want {
			t.Fatalf("clamp(%v): expected %v, got %v", in, want, got)
		}
	}
}

func TestClamp_OpenBounds(t *testing.T) {
	n := build(t, KindClamp, map[string]any{"min": 0.0})
	if got := applyOne(t, n, 1e12); got != 1e12 {
		t.Fatalf("expected pass-through, got %v", got)
	}
}

func TestClamp_MinExceedsMax(t *testing.T) {
	if _, err := graph.DefaultRegistry.Build(KindClamp, map[string]any{"min": 2.0, "max": 1.0}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestPairwiseSum(t *testing.T) {
	n := build(t, KindPairwiseSum, nil)
	if got := applyOne(t, n, 2.0, 3.5); got != 5.5 {
		t.Fatalf("expected 5.5, got %v", got)
	}
}

// meanGraph builds source -> mean-center, sink at the estimator.
func meanGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	src := g.Add(graph.Source())
	est := g.Add(build(t, KindMeanCenter, nil))
	g.Connect(src, est, 0)
	g.SetSource(src)
	g.SetSink(est)
	return g
}

func TestMeanCenter_Scenario(t *testing.T) {
	g := meanGraph(t)
	tg, err := graph.Fit(context.Background(), g, dataset.FromSlice([]any{1.0, 2.0, 3.0}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exec := graph.NewExecutor(tg, false)
	out, err := exec.Apply(5.0).Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != 3.0 {
		t.Fatalf("expected 3, got %v", out)
	}

	c, err := exec.ApplyCollection(dataset.FromSlice([]any{1.0, 2.0, 3.0}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	batch, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]any{-1.0, 0.0, 1.0}, batch); diff != "" {
		t.Fatalf("collection mismatch (-want +got):\n%s", diff)
	}
}

func TestMeanCenter_FitsToSerializableAffine(t *testing.T) {
	g := meanGraph(t)
	estID := g.Sink

	tg, err := graph.Fit(context.Background(), g, dataset.FromSlice([]any{2.0, 4.0}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n := tg.Graph().Nodes[estID]
	if n.Kind != KindAffine {
		t.Fatalf("expected fitted node kind %q, got %q", KindAffine, n.Kind)
	}
	if n.Params["shift"] != -3.0 {
		t.Fatalf("expected shift -3, got %v", n.Params["shift"])
	}
}

func TestStandardScaler(t *testing.T) {
	g := graph.New()
	src := g.Add(graph.Source())
	est := g.Add(build(t, KindStandardScaler, nil))
	g.Connect(src, est, 0)
	g.SetSource(src)
	g.SetSink(est)

	// mean 4, population stddev 2
	tg, err := graph.Fit(context.Background(), g, dataset.FromSlice([]any{2.0, 4.0, 6.0}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exec := graph.NewExecutor(tg, false)
	for in, want := range map[float64]float64{4: 0, 6: 1, 0: -2} {
		out, err := exec.Apply(in).Get(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(out.(float64)-want) > 1e-12 {
			t.Fatalf("scale(%v): expected %v, got %v", in, want, out)
		}
	}
}

func TestStandardScaler_ZeroDeviationCenters(t *testing.T) {
	g := graph.New()
	src := g.Add(graph.Source())
	est := g.Add(build(t, KindStandardScaler, nil))
	g.Connect(src, est, 0)
	g.SetSource(src)
	g.SetSink(est)

	tg, err := graph.Fit(context.Background(), g, dataset.FromSlice([]any{5.0, 5.0, 5.0}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := graph.NewExecutor(tg, false).Apply(7.0).Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != 2.0 {
		t.Fatalf("expected 2, got %v", out)
	}
}

func TestEstimators_EmptyTraining(t *testing.T) {
	g := meanGraph(t)
	if _, err := graph.Fit(context.Background(), g, dataset.FromSlice(nil)); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestDefaultRegistry_ListsBuiltins(t *testing.T) {
	kinds := graph.DefaultRegistry.List()
	have := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		have[k] = true
	}
	for _, k := range []string{KindAffine, KindMeanCenter, KindStandardScaler, KindClamp, KindPairwiseSum} {
		if !have[k] {
			t.Fatalf("kind %q not registered", k)
		}
	}
}
