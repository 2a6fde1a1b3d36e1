// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisChannel delivers events through Redis Pub/Sub so instances in
// different processes stay in sync. Payloads are JSON-encoded events.
type RedisChannel struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisChannel creates a channel on an existing client. The client is not
// closed by the channel.
func NewRedisChannel(client *redis.Client, prefix string, logger *slog.Logger) *RedisChannel {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisChannel{client: client, prefix: prefix, logger: logger}
}

func (c *RedisChannel) channel(topic string) string {
	return c.prefix + topic
}

// Publish implements Channel.
func (c *RedisChannel) Publish(ctx context.Context, topic string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	return c.client.Publish(ctx, c.channel(topic), payload).Err()
}

// Subscribe implements Channel. It returns once Redis confirms the
// subscription; events are delivered on a dedicated goroutine until the
// subscription is closed.
func (c *RedisChannel) Subscribe(ctx context.Context, topic string, fn Handler) (Subscription, error) {
	ps := c.client.Subscribe(ctx, c.channel(topic))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	s := &redisSub{ps: ps, done: make(chan struct{})}
	go s.run(c.logger, fn)
	return s, nil
}

type redisSub struct {
	ps   *redis.PubSub
	done chan struct{}
	once sync.Once
	err  error
}

func (s *redisSub) run(logger *slog.Logger, fn Handler) {
	defer close(s.done)
	for msg := range s.ps.Channel() {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			logger.Warn("dropping malformed broadcast event", "channel", msg.Channel, "error", err)
			continue
		}
		fn(ev)
	}
}

// Close unsubscribes and waits for the delivery goroutine to exit.
func (s *redisSub) Close() error {
	s.once.Do(func() {
		s.err = s.ps.Close()
		<-s.done
	})
	return s.err
}

var _ Channel = (*RedisChannel)(nil)
