// Package transforms provides the built-in node kinds: numeric
// transformers and estimators registered into graph.DefaultRegistry.
// Importing the package (possibly blank) makes the kinds available to
// the YAML loader and the pipeline codec.
//
// All numeric kinds operate on float64 and coerce any numeric input.
// Estimator kinds fit to registry-built transformer nodes, so fitted
// graphs stay serializable.
package transforms

import (
	"context"
	"fmt"
	"math"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/graph"
	"github.com/kbukum/flowkit/util"
)

// Registered kind names.
const (
	KindAffine         = "affine"
	KindMeanCenter     = "mean-center"
	KindStandardScaler = "standard-scaler"
	KindClamp          = "clamp"
	KindPairwiseSum    = "pairwise-sum"
)

func init() {
	graph.DefaultRegistry.Register(KindAffine, newAffine)
	graph.DefaultRegistry.Register(KindMeanCenter, newMeanCenter)
	graph.DefaultRegistry.Register(KindStandardScaler, newStandardScaler)
	graph.DefaultRegistry.Register(KindClamp, newClamp)
	graph.DefaultRegistry.Register(KindPairwiseSum, newPairwiseSum)
}

// paramFloat reads a numeric parameter, falling back when absent.
func paramFloat(params map[string]any, key string, fallback float64) (float64, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	f, err := util.ToFloat64(raw)
	if err != nil {
		return 0, errors.InvalidInput(key, err.Error())
	}
	return f, nil
}

// newAffine builds x*scale + shift. Defaults: scale 1, shift 0.
func newAffine(params map[string]any) (*graph.Node, error) {
	scale, err := paramFloat(params, "scale", 1)
	if err != nil {
		return nil, err
	}
	shift, err := paramFloat(params, "shift", 0)
	if err != nil {
		return nil, err
	}
	return graph.Transformer(1, func(_ context.Context, inputs ...any) (any, error) {
		x, err := util.ToFloat64(inputs[0])
		if err != nil {
			return nil, err
		}
		return x*scale + shift, nil
	}), nil
}

// Affine builds an affine transformer node outside the registry path,
// stamped with its kind and parameters so it stays serializable.
func Affine(scale, shift float64) (*graph.Node, error) {
	return graph.DefaultRegistry.Build(KindAffine, map[string]any{
		"scale": scale,
		"shift": shift,
	})
}

// newMeanCenter builds an estimator that fits the mean of its training
// column and emits an affine transformer subtracting it.
func newMeanCenter(map[string]any) (*graph.Node, error) {
	return graph.Estimator(1, func(_ context.Context, training ...[]any) (*graph.Node, error) {
		mean, _, err := meanStddev(training[0])
		if err != nil {
			return nil, err
		}
		return Affine(1, -mean)
	}), nil
}

// newStandardScaler builds an estimator fitting mean and standard
// deviation, emitting affine{1/σ, -μ/σ}. Zero deviation degrades to
// plain centering.
func newStandardScaler(map[string]any) (*graph.Node, error) {
	return graph.Estimator(1, func(_ context.Context, training ...[]any) (*graph.Node, error) {
		mean, stddev, err := meanStddev(training[0])
		if err != nil {
			return nil, err
		}
		if stddev == 0 {
			return Affine(1, -mean)
		}
		return Affine(1/stddev, -mean/stddev)
	}), nil
}

// newClamp bounds values to [min, max]. Defaults: unbounded.
func newClamp(params map[string]any) (*graph.Node, error) {
	lo, err := paramFloat(params, "min", math.Inf(-1))
	if err != nil {
		return nil, err
	}
	hi, err := paramFloat(params, "max", math.Inf(1))
	if err != nil {
		return nil, err
	}
	if lo > hi {
		return nil, errors.InvalidInput("min", fmt.Sprintf("min %v exceeds max %v", lo, hi))
	}
	return graph.Transformer(1, func(_ context.Context, inputs ...any) (any, error) {
		x, err := util.ToFloat64(inputs[0])
		if err != nil {
			return nil, err
		}
		return math.Min(math.Max(x, lo), hi), nil
	}), nil
}

// newPairwiseSum adds its two slot inputs.
func newPairwiseSum(map[string]any) (*graph.Node, error) {
	return graph.Transformer(2, func(_ context.Context, inputs ...any) (any, error) {
		a, err := util.ToFloat64(inputs[0])
		if err != nil {
			return nil, err
		}
		b, err := util.ToFloat64(inputs[1])
		if err != nil {
			return nil, err
		}
		return a + b, nil
	}), nil
}

// meanStddev computes the population mean and standard deviation of a
// training column.
func meanStddev(col []any) (float64, float64, error) {
	if len(col) == 0 {
		return 0, 0, fmt.Errorf("empty training column")
	}
	vals, err := util.ToFloat64Slice(col)
	if err != nil {
		return 0, 0, err
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))

	var sq float64
	for _, v := range vals {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(vals))), nil
}
