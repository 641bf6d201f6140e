// Package observability wires OpenTelemetry tracing and metrics for the
// authenticator.
//
//	tp, err := observability.InitTracer(ctx, cfg, "authenticator", version.Version, log)
//	defer tp.Shutdown(ctx)
//
//	metrics, err := observability.NewAuthMetrics(observability.Meter("authenticator"))
//	metrics.RecordLogin(ctx, observability.ResultSuccess, elapsed)
//
// Health checks aggregate component status for the /health endpoint.
package observability
