package events

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type redisPublisher struct {
	cli     *redis.Client
	stream  string
	maxLen  int64
	timeout time.Duration
}

func NewRedis(url, stream string, maxLen int64, timeout time.Duration) (Publisher, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return newRedisWithClient(redis.NewClient(opt), stream, maxLen, timeout), nil
}

func newRedisWithClient(cli *redis.Client, stream string, maxLen int64, timeout time.Duration) *redisPublisher {
	if stream == "" {
		stream = "faultline:faults"
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &redisPublisher{cli: cli, stream: stream, maxLen: maxLen, timeout: timeout}
}

func (p *redisPublisher) Close() error { return p.cli.Close() }

// Publish stores the event as a single 'data' field so the schema can evolve.
func (p *redisPublisher) Publish(ctx context.Context, evt Event) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	args := &redis.XAddArgs{Stream: p.stream, Values: map[string]any{"type": evt.Type, "data": string(b)}}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	return p.cli.XAdd(ctx, args).Err()
}
