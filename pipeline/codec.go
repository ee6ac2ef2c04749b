package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/graph"
	"github.com/kbukum/flowkit/logger"
)

// formatVersion is bumped when the envelope layout changes.
const formatVersion = 1

// envelope is the persisted form of a fitted pipeline. Only graphs
// whose nodes were built from registered kinds can be encoded; the
// node functions themselves are rebuilt from kind + params on decode.
type envelope struct {
	Version int        `json:"version"`
	Source  string     `json:"source"`
	Sink    string     `json:"sink"`
	Nodes   []nodeSpec `json:"nodes"`
}

type nodeSpec struct {
	ID     string         `json:"id"`
	Kind   string         `json:"kind"`
	Params map[string]any `json:"params,omitempty"`
	In     []string       `json:"in,omitempty"`
}

// Encode serializes the fitted pipeline as a JSON envelope. Nodes built
// from bare closures carry no kind and are rejected; only registry-built
// graphs round-trip.
func (f *FittedPipeline[A, B]) Encode() ([]byte, error) {
	g := f.tg.Graph()

	ids := make([]graph.NodeID, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	env := envelope{
		Version: formatVersion,
		Source:  string(g.Source),
		Sink:    string(g.Sink),
	}
	for _, id := range ids {
		n := g.Nodes[id]
		if n.Op == graph.OpSource {
			continue
		}
		if n.Kind == "" {
			return nil, errors.InvalidInput("node", fmt.Sprintf("node %q was built from a closure and cannot be encoded", id))
		}
		ups := g.Inputs(id)
		in := make([]string, len(ups))
		for i, up := range ups {
			in[i] = string(up)
		}
		env.Nodes = append(env.Nodes, nodeSpec{
			ID:     string(id),
			Kind:   n.Kind,
			Params: n.Params,
			In:     in,
		})
	}

	return json.Marshal(env)
}

// Decode reconstructs a fitted pipeline from its JSON envelope,
// rebuilding every node through the registry. The result is validated
// and guaranteed estimator-free.
func Decode[A, B any](data []byte, registry *graph.Registry) (*FittedPipeline[A, B], error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.InvalidInput("pipeline", err.Error())
	}
	if env.Version != formatVersion {
		return nil, errors.InvalidInput("version", fmt.Sprintf("unsupported format version %d", env.Version))
	}

	spec := &graph.GraphSpec{
		Source: env.Source,
		Sink:   env.Sink,
	}
	for _, n := range env.Nodes {
		spec.Nodes = append(spec.Nodes, graph.NodeSpec{
			ID:     n.ID,
			Kind:   n.Kind,
			Params: n.Params,
			In:     n.In,
		})
	}

	g, err := graph.Resolve(spec, registry)
	if err != nil {
		return nil, err
	}
	tg, err := g.AsTransformerGraph()
	if err != nil {
		return nil, err
	}
	return newFitted[A, B](tg, logger.GetGlobalLogger().WithComponent("pipeline")), nil
}
