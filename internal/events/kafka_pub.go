package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

type kafkaPublisher struct {
	w       *kafka.Writer
	timeout time.Duration
}

func NewKafka(brokers []string, topic string, timeout time.Duration) Publisher {
	if len(brokers) == 0 {
		return NewNoop()
	}
	if topic == "" {
		topic = "faultline.faults"
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	// Writers are safe for concurrent use
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireOne,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &kafkaPublisher{w: w, timeout: timeout}
}

// Publish keys messages by fault id so one fault's events stay ordered on a partition.
func (p *kafkaPublisher) Publish(ctx context.Context, evt Event) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:     []byte(strconv.FormatUint(uint64(evt.FaultID), 10)),
		Value:   b,
		Headers: []kafka.Header{{Key: "type", Value: []byte(evt.Type)}},
	})
}

func (p *kafkaPublisher) Close() error { return p.w.Close() }
