// Package dataset provides the collection abstraction consumed and
// produced by pipelines.
//
// A Collection is a lazily evaluated sequence: Transform records a
// per-element stage without executing it, and Collect forces every
// pending stage and returns the elements in source order. Element
// functions must be pure. A backend may re-execute them and may
// evaluate elements in any order, so observable behavior must depend
// only on the element value.
//
// The Local backend evaluates in process. Sources are re-created on
// every Collect (FromSlice, FromFunc), so a collection can be forced
// more than once. WithParallel enables bounded concurrent evaluation
// of the stage chain with order-preserving reassembly.
//
// # Usage
//
//	c := dataset.FromSlice([]any{1.0, 2.0, 3.0})
//	doubled := c.Transform(func(_ context.Context, v any) (any, error) {
//	    return v.(float64) * 2, nil
//	})
//	results, err := doubled.Collect(ctx)
package dataset
