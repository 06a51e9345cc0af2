package telemetry

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFaultMetricsRecord(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewFaultMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.FaultOp(ctx, "created")
	m.ImageIngested(ctx, true, 20*time.Millisecond, 1234)
	m.ImageIngested(ctx, false, time.Millisecond, 0)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	seen := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			seen[md.Name] = true
			if md.Name == "faultline.image.ingested" {
				sum := md.Data.(metricdata.Sum[int64])
				var total int64
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
				if total != 2 {
					t.Fatalf("expected 2 ingested images, got %d", total)
				}
			}
		}
	}
	for _, name := range []string{"faultline.fault.operations", "faultline.image.ingested", "faultline.image.ingest.duration", "faultline.image.stored.bytes"} {
		if !seen[name] {
			t.Errorf("metric %s not recorded", name)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *FaultMetrics
	m.FaultOp(context.Background(), "closed")
	m.ImageIngested(context.Background(), true, time.Second, 1)
}

func TestProviderWithoutEndpoint(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{ServiceName: "t"})
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	if p.TracerProvider != nil || p.MeterProvider != nil || p.Metrics == nil {
		t.Fatalf("unexpected provider state %+v", p)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
