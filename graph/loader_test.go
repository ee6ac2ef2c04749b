package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/util"
)

// scaleFactory builds a unary transformer multiplying by params["factor"].
func scaleFactory(params map[string]any) (*Node, error) {
	raw, ok := params["factor"]
	if !ok {
		return nil, errors.MissingField("factor")
	}
	factor, err := util.ToFloat64(raw)
	if err != nil {
		return nil, errors.InvalidInput("factor", err.Error())
	}
	return Transformer(1, func(_ context.Context, inputs ...any) (any, error) {
		return inputs[0].(float64) * factor, nil
	}), nil
}

func testRegistry() *Registry {
	r := NewRegistry()
	r.Register("scale", scaleFactory)
	return r
}

func TestRegistry_BuildStampsKindAndParams(t *testing.T) {
	r := testRegistry()
	params := map[string]any{"factor": 2.0}

	n, err := r.Build("scale", params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Kind != "scale" {
		t.Fatalf("expected kind stamped, got %q", n.Kind)
	}
	if diff := cmp.Diff(params, n.Params); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_UnknownKind(t *testing.T) {
	_, err := testRegistry().Build("nope", nil)
	ae, ok := errors.AsAppError(err)
	if !ok || ae.Code != errors.ErrCodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	r := NewRegistry()
	r.Register("zeta", scaleFactory)
	r.Register("alpha", scaleFactory)
	r.Register("mid", scaleFactory)

	want := []string{"alpha", "mid", "zeta"}
	if diff := cmp.Diff(want, r.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_FactoryErrorPropagates(t *testing.T) {
	_, err := testRegistry().Build("scale", map[string]any{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

const specYAML = `
name: double-then-shift
source: input
sink: shift
nodes:
  - id: double
    kind: scale
    params:
      factor: 2
    in: [input]
  - id: shift
    kind: scale
    params:
      factor: 0.5
    in: [double]
`

func writeSpec(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}
}

func TestFileGraphLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "double.yaml", specYAML)

	spec, err := NewFileGraphLoader(dir).Load("double")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Name != "double-then-shift" {
		t.Fatalf("unexpected name %q", spec.Name)
	}
	if len(spec.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(spec.Nodes))
	}
}

func TestFileGraphLoader_SearchOrderAndExtensions(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeSpec(t, second, "g.yml", specYAML)

	// Missing in first dir, .yml in second.
	if _, err := NewFileGraphLoader(first, second).Load("g"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFileGraphLoader_NotFound(t *testing.T) {
	_, err := NewFileGraphLoader(t.TempDir()).Load("missing")
	ae, ok := errors.AsAppError(err)
	if !ok || ae.Code != errors.ErrCodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestResolve_BuildsRunnableGraph(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "double.yaml", specYAML)

	spec, err := NewFileGraphLoader(dir).Load("double")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, err := Resolve(spec, testRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tg, err := g.AsTransformerGraph()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := NewExecutor(tg, false).Apply(3.0).Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 3 * 2 * 0.5
	if out != 3.0 {
		t.Fatalf("expected 3, got %v", out)
	}
}

func TestResolve_UnknownKind(t *testing.T) {
	spec := &GraphSpec{
		Name:   "bad",
		Source: "input",
		Sink:   "n",
		Nodes:  []NodeSpec{{ID: "n", Kind: "nope", In: []string{"input"}}},
	}
	_, err := Resolve(spec, testRegistry())
	ae, ok := errors.AsAppError(err)
	if !ok || ae.Code != errors.ErrCodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestResolve_MissingSource(t *testing.T) {
	_, err := Resolve(&GraphSpec{Name: "bad", Sink: "n"}, testRegistry())
	wantMalformed(t, err)
}

func TestResolve_DuplicateNode(t *testing.T) {
	spec := &GraphSpec{
		Name:   "bad",
		Source: "input",
		Sink:   "n",
		Nodes: []NodeSpec{
			{ID: "n", Kind: "scale", Params: map[string]any{"factor": 1.0}, In: []string{"input"}},
			{ID: "n", Kind: "scale", Params: map[string]any{"factor": 1.0}, In: []string{"input"}},
		},
	}
	_, err := Resolve(spec, testRegistry())
	wantMalformed(t, err)
}

func TestResolve_ValidatesResult(t *testing.T) {
	// Sink never receives its declared input.
	spec := &GraphSpec{
		Name:   "bad",
		Source: "input",
		Sink:   "n",
		Nodes:  []NodeSpec{{ID: "n", Kind: "scale", Params: map[string]any{"factor": 1.0}}},
	}
	_, err := Resolve(spec, testRegistry())
	wantMalformed(t, err)
}
