package events

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
)

// New builds a Publisher for c.Driver. An empty driver yields Noop.
func New(c Config) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case "kafka":
		if len(c.Brokers) == 0 {
			return nil, fmt.Errorf("events: kafka driver needs brokers")
		}
		logx.Infof("[events] kafka publisher enabled: brokers=%s topic=%s", strings.Join(c.Brokers, ","), c.Topic)
		return NewKafka(c.Brokers, c.Topic, c.WriteTimeout), nil
	case "redis":
		url := c.RedisURL
		if url == "" {
			url = "redis://localhost:6379/0"
		}
		p, err := NewRedis(url, c.Stream, c.MaxLen, c.WriteTimeout)
		if err != nil {
			return nil, fmt.Errorf("events: %w", err)
		}
		logx.Infof("[events] redis stream publisher enabled: stream=%s", c.Stream)
		return p, nil
	case "mqtt":
		if c.MQTTBroker == "" {
			return nil, fmt.Errorf("events: mqtt driver needs a broker")
		}
		p, err := NewMQTT(c)
		if err != nil {
			return nil, fmt.Errorf("events: %w", err)
		}
		logx.Infof("[events] mqtt publisher enabled: broker=%s topic=%s/+/+", c.MQTTBroker, c.MQTTTopic)
		return p, nil
	case "", "noop":
		return NewNoop(), nil
	default:
		return nil, fmt.Errorf("events: unsupported driver %q", c.Driver)
	}
}
