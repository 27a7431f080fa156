package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type DispatchProducer struct {
	client    *redis.Client
	dedupeTTL time.Duration
}

// NewDispatchProducer constructs a Redis stream producer. An occurrence is
// published at most once per dedupeTTL.
func NewDispatchProducer(client *redis.Client, dedupeTTL time.Duration) *DispatchProducer {
	return &DispatchProducer{client: client, dedupeTTL: dedupeTTL}
}

// Publish pushes a dispatch message onto the stream. It reports false when
// the same occurrence was already published within the dedupe window.
func (p *DispatchProducer) Publish(ctx context.Context, msg DispatchMessage) (bool, error) {
	fresh, err := p.client.SetNX(ctx, msg.dedupeKey(), 1, p.dedupeTTL).Result()
	if err != nil {
		return false, fmt.Errorf("mark %d as published: %w", msg.MailingID, err)
	}
	if !fresh {
		return false, nil
	}

	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamName,
		Values: msg.values(),
	}).Result()
	if err != nil {
		_ = p.client.Del(ctx, msg.dedupeKey()).Err()
		return false, fmt.Errorf("xadd to %s: %w", StreamName, err)
	}
	return true, nil
}
