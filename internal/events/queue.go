// Package events publishes fault lifecycle events to a message bus.
// Consumers (notifications, reporting) are outside this service.
package events

import (
	"context"
	"time"
)

const (
	FaultCreated      = "fault.created"
	FaultUpdated      = "fault.updated"
	FaultClosed       = "fault.closed"
	FaultDeleted      = "fault.deleted"
	FaultImageDeleted = "fault.image_deleted"
)

type Event struct {
	Type       string         `json:"type"`
	FaultID    uint           `json:"faultId"`
	ActorID    uint           `json:"actorId"`
	ChiefdomID uint           `json:"chiefdomId,omitempty"`
	At         time.Time      `json:"at"`
	Data       map[string]any `json:"data,omitempty"`
}

// Publisher is safe for concurrent use. Publish failures are reported to the
// caller, which logs them; a committed change is never rolled back for them.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

type Config struct {
	Driver       string        `json:",default=noop,options=noop|kafka|redis|mqtt"`
	Brokers      []string      `json:",optional"`
	Topic        string        `json:",default=faultline.faults"`
	RedisURL     string        `json:",optional"`
	Stream       string        `json:",default=faultline:faults"`
	MaxLen       int64         `json:",default=100000"`
	WriteTimeout time.Duration `json:",default=2s"`
	MQTTBroker   string        `json:",optional"`
	MQTTClientID string        `json:",optional"`
	MQTTUsername string        `json:",optional"`
	MQTTPassword string        `json:",optional"`
	MQTTTopic    string        `json:",default=faultline/faults"`
	MQTTQoS      int           `json:",default=1,range=[0:2]"`
}
