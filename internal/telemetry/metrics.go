package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	FaultStatusKey   = attribute.Key("fault.status")
	FaultActionKey   = attribute.Key("fault.action")
	UserRoleKey      = attribute.Key("user.role")
	ImageResultKey   = attribute.Key("image.result")
	ImageFormatKey   = attribute.Key("image.format")
	StorageDriverKey = attribute.Key("storage.driver")
)

// FaultMetrics holds the instruments recorded by the fault service and the
// image pipeline. A nil *FaultMetrics records nothing.
type FaultMetrics struct {
	FaultOps       metric.Int64Counter
	ImagesIngested metric.Int64Counter
	IngestDuration metric.Float64Histogram
	StoredBytes    metric.Int64Histogram
}

func NewFaultMetrics(meter metric.Meter) (*FaultMetrics, error) {
	var err error
	m := &FaultMetrics{}
	if m.FaultOps, err = meter.Int64Counter("faultline.fault.operations",
		metric.WithDescription("Fault lifecycle operations by action"),
		metric.WithUnit("{operations}"),
	); err != nil {
		return nil, err
	}
	if m.ImagesIngested, err = meter.Int64Counter("faultline.image.ingested",
		metric.WithDescription("Images processed by the ingestion pipeline by result"),
		metric.WithUnit("{images}"),
	); err != nil {
		return nil, err
	}
	if m.IngestDuration, err = meter.Float64Histogram("faultline.image.ingest.duration",
		metric.WithDescription("Time to decode, compress and store one image"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.StoredBytes, err = meter.Int64Histogram("faultline.image.stored.bytes",
		metric.WithDescription("Size of compressed images written to storage"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *FaultMetrics) FaultOp(ctx context.Context, action string, attrs ...attribute.KeyValue) {
	if m == nil {
		return
	}
	m.FaultOps.Add(ctx, 1, metric.WithAttributes(append(attrs, FaultActionKey.String(action))...))
}

func (m *FaultMetrics) ImageIngested(ctx context.Context, ok bool, took time.Duration, stored int64) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.ImagesIngested.Add(ctx, 1, metric.WithAttributes(ImageResultKey.String(result)))
	m.IngestDuration.Record(ctx, float64(took.Microseconds())/1000, metric.WithAttributes(ImageResultKey.String(result)))
	if ok {
		m.StoredBytes.Record(ctx, stored)
	}
}

// Tracer returns the service tracer from the global provider.
func Tracer() trace.Tracer { return otel.Tracer(instrumentationName) }
