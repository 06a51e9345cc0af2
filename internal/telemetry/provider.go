package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const instrumentationName = "github.com/cuihairu/faultline"

// Config is the Telemetry section of the service configuration. An empty
// Endpoint keeps the global no-op providers.
type Config struct {
	ServiceName    string        `json:",default=faultline"`
	ServiceVersion string        `json:",default=dev"`
	Environment    string        `json:",default=development"`
	Endpoint       string        `json:",optional"`
	Insecure       bool          `json:",default=true"`
	SampleRatio    float64       `json:",default=1.0"`
	MetricInterval time.Duration `json:",default=30s"`
}

type Provider struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Metrics        *FaultMetrics
}

// NewProvider installs OTLP/HTTP exporters when an endpoint is configured and
// always returns usable metrics.
func NewProvider(ctx context.Context, c Config) (*Provider, error) {
	p := &Provider{}
	if c.Endpoint != "" {
		res, err := resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceNameKey.String(c.ServiceName),
				semconv.ServiceVersionKey.String(c.ServiceVersion),
				semconv.DeploymentEnvironmentKey.String(c.Environment),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create resource: %w", err)
		}
		if p.TracerProvider, err = initTracing(ctx, res, c); err != nil {
			return nil, fmt.Errorf("failed to init tracing: %w", err)
		}
		otel.SetTracerProvider(p.TracerProvider)
		if p.MeterProvider, err = initMetrics(ctx, res, c); err != nil {
			return nil, fmt.Errorf("failed to init metrics: %w", err)
		}
		otel.SetMeterProvider(p.MeterProvider)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	m, err := NewFaultMetrics(otel.Meter(instrumentationName))
	if err != nil {
		return nil, fmt.Errorf("failed to create fault metrics: %w", err)
	}
	p.Metrics = m
	return p, nil
}

func initTracing(ctx context.Context, res *resource.Resource, c Config) (*trace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(c.Endpoint), otlptracehttp.WithURLPath("/v1/traces")}
	if c.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	ratio := c.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	return trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithBatcher(exp,
			trace.WithBatchTimeout(5*time.Second),
			trace.WithMaxExportBatchSize(512),
		),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(ratio))),
	), nil
}

func initMetrics(ctx context.Context, res *resource.Resource, c Config) (*metric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(c.Endpoint), otlpmetrichttp.WithURLPath("/v1/metrics")}
	if c.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exp, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	interval := c.MetricInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(exp, metric.WithInterval(interval))),
	), nil
}

func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown TracerProvider: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown MeterProvider: %w", err))
		}
	}
	return errors.Join(errs...)
}
