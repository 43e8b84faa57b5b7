// Package events publishes audit events to Redis pub/sub channels so
// external consumers (indexers, notification services) can follow the
// state machine in near real time.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Publisher interface {
	Publish(ctx context.Context, kind string, payload any) error
	Close() error
}

// RedisPublisher publishes JSON payloads to "<namespace>.<kind>" channels.
type RedisPublisher struct {
	client    *redis.Client
	namespace string
}

func NewRedisPublisher(addr, namespace string) *RedisPublisher {
	return &RedisPublisher{
		client:    redis.NewClient(&redis.Options{Addr: addr}),
		namespace: namespace,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, kind string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("event marshal error: %w", err)
	}

	if err := p.client.Publish(ctx, p.namespace+"."+kind, raw).Err(); err != nil {
		return fmt.Errorf("event publish error: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// NopPublisher drops every event. Used when no Redis address is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error                               { return nil }
