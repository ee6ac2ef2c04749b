package graph

import (
	"context"
	"time"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
)

// WithTracing returns a copy of the node whose apply function records an
// OpenTelemetry span per execution. Nodes without an apply function are
// returned unchanged.
func WithTracing(n *Node) *Node {
	if n.Apply == nil {
		return n
	}
	inner := n.Apply
	out := *n
	out.Apply = func(ctx context.Context, inputs ...any) (any, error) {
		ctx, span := observability.StartSpan(ctx, observability.SpanNodeApply)
		defer span.End()

		observability.SetSpanAttribute(ctx, observability.AttrNodeID, string(out.ID))
		if out.Kind != "" {
			observability.SetSpanAttribute(ctx, observability.AttrNodeKind, out.Kind)
		}

		result, err := inner(ctx, inputs...)
		if err != nil {
			observability.SetSpanError(ctx, err)
		}
		return result, err
	}
	return &out
}

// WithMetrics returns a copy of the node whose apply function records
// per-node application metrics.
func WithMetrics(n *Node, metrics *observability.Metrics) *Node {
	if n.Apply == nil {
		return n
	}
	inner := n.Apply
	out := *n
	out.Apply = func(ctx context.Context, inputs ...any) (any, error) {
		start := time.Now()
		result, err := inner(ctx, inputs...)
		duration := time.Since(start)

		status := "ok"
		if err != nil {
			status = "error"
			metrics.RecordError(ctx, "apply", string(out.ID))
		}
		metrics.RecordNodeApply(ctx, string(out.ID), out.Kind, status, duration)

		return result, err
	}
	return &out
}

// WithLogging returns a copy of the node whose apply function logs each
// execution with its duration and outcome.
func WithLogging(n *Node, log *logger.Logger) *Node {
	if n.Apply == nil {
		return n
	}
	inner := n.Apply
	out := *n
	out.Apply = func(ctx context.Context, inputs ...any) (any, error) {
		start := time.Now()
		result, err := inner(ctx, inputs...)
		duration := time.Since(start)

		fields := map[string]interface{}{
			logger.FieldNodeID:   string(out.ID),
			logger.FieldDuration: duration.Milliseconds(),
		}
		if out.Kind != "" {
			fields[logger.FieldKind] = out.Kind
		}

		if err != nil {
			fields[logger.FieldError] = err.Error()
			log.Error("node apply failed", fields)
		} else {
			log.Debug("node apply completed", fields)
		}

		return result, err
	}
	return &out
}
