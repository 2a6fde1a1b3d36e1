// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package preference

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps preferences in Redis. Preferences never expire.
type RedisStore struct {
	client *redis.Client
	prefix string
	closed atomic.Bool

	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
}

// RedisOptions configures the Redis store.
type RedisOptions struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// Prefix is prepended to all keys (e.g., "themesync:pref:")
	Prefix string

	PoolSize       int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DefaultRedisOptions returns sensible defaults.
func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Prefix:         "themesync:pref:",
		PoolSize:       10,
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    3 * time.Second,
		WriteTimeout:   3 * time.Second,
	}
}

// NewRedisClient parses opts and returns a connected client.
func NewRedisClient(opts RedisOptions) (*redis.Client, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, err
	}
	if opts.PoolSize > 0 {
		redisOpts.PoolSize = opts.PoolSize
	}
	if opts.ConnectTimeout > 0 {
		redisOpts.DialTimeout = opts.ConnectTimeout
	}
	if opts.ReadTimeout > 0 {
		redisOpts.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		redisOpts.WriteTimeout = opts.WriteTimeout
	}

	client := redis.NewClient(redisOpts)

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// NewRedisStore connects to Redis and returns a store that owns the client.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	client, err := NewRedisClient(opts)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: client, prefix: opts.Prefix}, nil
}

// NewRedisStoreFromURL creates a Redis store from just a URL with default options.
func NewRedisStoreFromURL(url, prefix string) (*RedisStore, error) {
	opts := DefaultRedisOptions()
	opts.URL = url
	if prefix != "" {
		opts.Prefix = prefix
	}
	return NewRedisStore(opts)
}

func (s *RedisStore) prefixKey(key string) string {
	return s.prefix + key
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}

	val, err := s.client.Get(ctx, s.prefixKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.misses.Add(1)
			return "", ErrNotFound
		}
		return "", err
	}

	s.hits.Add(1)
	return val, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.client.Set(ctx, s.prefixKey(key), value, 0).Err(); err != nil {
		return err
	}
	s.sets.Add(1)
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.client.Del(ctx, s.prefixKey(key)).Err(); err != nil {
		return err
	}
	s.deletes.Add(1)
	return nil
}

// Ping checks if the Redis connection is healthy.
func (s *RedisStore) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.client.Ping(ctx).Err()
}

// Client returns the underlying client, e.g. to share it with a broadcast channel.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close implements Store.
func (s *RedisStore) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		return s.client.Close()
	}
	return nil
}

// Stats implements StatsProvider. Items is not tracked for Redis.
func (s *RedisStore) Stats() Stats {
	return Stats{
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Sets:    s.sets.Load(),
		Deletes: s.deletes.Load(),
	}
}

// ResetStats implements StatsProvider.
func (s *RedisStore) ResetStats() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.sets.Store(0)
	s.deletes.Store(0)
}

var (
	_ Store         = (*RedisStore)(nil)
	_ StatsProvider = (*RedisStore)(nil)
)
