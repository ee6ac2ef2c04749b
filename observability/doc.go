// Package observability provides OpenTelemetry tracing and metrics integration
// for the pipeline engine and its serving layer.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("scoring"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanFit)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("scoring"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("scoring"))
//	metrics.RecordRequestEnd(ctx, "scoring", "POST /v1/apply", "ok", duration)
//
// Health Checks:
//
//	health := observability.NewServiceHealth("scoring", "1.0.0")
//	health.AddComponent(checker.CheckHealth(ctx))
package observability
