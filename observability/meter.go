package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/authkit/logger"
)

// Login and refresh outcomes recorded as the "result" attribute.
const (
	ResultSuccess     = "success"
	ResultRejected    = "rejected"
	ResultRateLimited = "rate_limited"
	ResultError       = "error"
)

// InitMeter installs a global OTLP/HTTP meter provider. The returned
// provider must be shut down on exit.
func InitMeter(ctx context.Context, cfg Config, service, version string, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(service, version, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	log.Info("meter initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// AuthMetrics holds the instruments recorded by the authenticator.
type AuthMetrics struct {
	logins        metric.Int64Counter
	refreshes     metric.Int64Counter
	duration      metric.Float64Histogram
	rateLimited   metric.Int64Counter
	revocations   metric.Int64Counter
	errorsByClass metric.Int64Counter
}

// NewAuthMetrics creates the authenticator instruments on meter.
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	logins, err := meter.Int64Counter("auth.login.total",
		metric.WithDescription("Login attempts by result"))
	if err != nil {
		return nil, fmt.Errorf("creating auth.login.total counter: %w", err)
	}
	refreshes, err := meter.Int64Counter("auth.refresh.total",
		metric.WithDescription("Refresh attempts by result"))
	if err != nil {
		return nil, fmt.Errorf("creating auth.refresh.total counter: %w", err)
	}
	duration, err := meter.Float64Histogram("auth.operation.duration",
		metric.WithDescription("Duration of login and refresh operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating auth.operation.duration histogram: %w", err)
	}
	rateLimited, err := meter.Int64Counter("auth.ratelimit.rejections",
		metric.WithDescription("Requests rejected by a rate limiter"))
	if err != nil {
		return nil, fmt.Errorf("creating auth.ratelimit.rejections counter: %w", err)
	}
	revocations, err := meter.Int64Counter("auth.refresh.revocations",
		metric.WithDescription("Refresh tokens revoked by rotation"))
	if err != nil {
		return nil, fmt.Errorf("creating auth.refresh.revocations counter: %w", err)
	}
	errorsByClass, err := meter.Int64Counter("auth.error.total",
		metric.WithDescription("Internal errors by component"))
	if err != nil {
		return nil, fmt.Errorf("creating auth.error.total counter: %w", err)
	}

	return &AuthMetrics{
		logins:        logins,
		refreshes:     refreshes,
		duration:      duration,
		rateLimited:   rateLimited,
		revocations:   revocations,
		errorsByClass: errorsByClass,
	}, nil
}

// RecordLogin records one login attempt. Nil receivers are no-ops.
func (m *AuthMetrics) RecordLogin(ctx context.Context, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("operation", "login")))
}

// RecordRefresh records one refresh attempt.
func (m *AuthMetrics) RecordRefresh(ctx context.Context, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("operation", "refresh")))
}

// RecordRateLimited records a rejection by the named limiter.
func (m *AuthMetrics) RecordRateLimited(ctx context.Context, limiter string) {
	if m == nil {
		return
	}
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("limiter", limiter)))
}

// RecordRevocation records a rotated refresh token.
func (m *AuthMetrics) RecordRevocation(ctx context.Context) {
	if m == nil {
		return
	}
	m.revocations.Add(ctx, 1)
}

// RecordError records an internal error in component.
func (m *AuthMetrics) RecordError(ctx context.Context, component string) {
	if m == nil {
		return
	}
	m.errorsByClass.Add(ctx, 1, metric.WithAttributes(attribute.String("component", component)))
}
