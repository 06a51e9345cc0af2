package events

import (
	"context"
	"testing"
)

func TestNewDrivers(t *testing.T) {
	p, err := New(Config{})
	if err != nil {
		t.Fatalf("noop: %v", err)
	}
	if _, ok := p.(*Noop); !ok {
		t.Fatalf("empty driver should be noop, got %T", p)
	}
	if err := p.Publish(context.Background(), Event{Type: FaultCreated, FaultID: 1}); err != nil {
		t.Fatalf("noop publish: %v", err)
	}

	if _, err := New(Config{Driver: "kafka"}); err == nil {
		t.Fatalf("kafka without brokers must fail")
	}
	if _, err := New(Config{Driver: "mqtt"}); err == nil {
		t.Fatalf("mqtt without broker must fail")
	}
	if _, err := New(Config{Driver: "nats"}); err == nil {
		t.Fatalf("unknown driver must fail")
	}
	if _, err := New(Config{Driver: "redis", RedisURL: "::bad"}); err == nil {
		t.Fatalf("bad redis url must fail")
	}

	k, err := New(Config{Driver: "kafka", Brokers: []string{"127.0.0.1:9"}, Topic: "t"})
	if err != nil {
		t.Fatalf("kafka: %v", err)
	}
	if _, ok := k.(*kafkaPublisher); !ok {
		t.Fatalf("expected kafka publisher, got %T", k)
	}
	_ = k.Close()
}
