package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type mqttPublisher struct {
	cli     mqtt.Client
	prefix  string
	qos     byte
	timeout time.Duration
}

// NewMQTT connects to broker before returning so a bad address fails at startup.
func NewMQTT(c Config) (Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.MQTTBroker)
	clientID := c.MQTTClientID
	if clientID == "" {
		clientID = "faultline-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	opts.SetClientID(clientID)
	if c.MQTTUsername != "" {
		opts.SetUsername(c.MQTTUsername)
	}
	if c.MQTTPassword != "" {
		opts.SetPassword(c.MQTTPassword)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(5 * time.Second)

	cli := mqtt.NewClient(opts)
	if tok := cli.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", c.MQTTBroker, tok.Error())
	}
	return newMQTTWithClient(cli, c.MQTTTopic, c.MQTTQoS, c.WriteTimeout), nil
}

func newMQTTWithClient(cli mqtt.Client, prefix string, qos int, timeout time.Duration) *mqttPublisher {
	if prefix == "" {
		prefix = "faultline/faults"
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if qos < 0 || qos > 2 {
		qos = 1
	}
	return &mqttPublisher{cli: cli, prefix: strings.TrimRight(prefix, "/"), qos: byte(qos), timeout: timeout}
}

// topic is {prefix}/{chiefdomId}/{type} so subscribers can filter per chiefdom
// with a single-level wildcard.
func (p *mqttPublisher) topic(evt Event) string {
	return p.prefix + "/" + strconv.FormatUint(uint64(evt.ChiefdomID), 10) + "/" + evt.Type
}

func (p *mqttPublisher) Publish(ctx context.Context, evt Event) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	tok := p.cli.Publish(p.topic(evt), p.qos, false, b)
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.timeout):
		return fmt.Errorf("mqtt publish %s: timed out after %s", evt.Type, p.timeout)
	}
}

func (p *mqttPublisher) Close() error {
	p.cli.Disconnect(250)
	return nil
}
