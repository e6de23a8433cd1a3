// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/monitoring"
	"github.com/canonical/center-service/internal/tracing"
	"github.com/canonical/center-service/internal/types"
)

const (
	defaultTimeout = 5 * time.Second
	codeKeyPrefix  = "center:code:"
)

var ErrCacheMiss = errors.New("cache miss")

type Config struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// Connect initialises a Redis client and validates connectivity with a ping
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

var _ CodeCacheInterface = (*RedisCache)(nil)

type RedisCache struct {
	client RedisClientInterface
	ttl    time.Duration

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (c *RedisCache) key(code string) string {
	return codeKeyPrefix + code
}

func (c *RedisCache) GetCode(ctx context.Context, code string) (*types.InvitationCode, error) {
	ctx, span := c.tracer.Start(ctx, "cache.RedisCache.GetCode")
	defer span.End()

	val, err := c.client.Get(ctx, c.key(code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}

	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", code, err)
	}

	ic := new(types.InvitationCode)
	if err := json.Unmarshal([]byte(val), ic); err != nil {
		return nil, fmt.Errorf("failed to decode cached code: %w", err)
	}

	return ic, nil
}

func (c *RedisCache) SetCode(ctx context.Context, ic *types.InvitationCode) error {
	ctx, span := c.tracer.Start(ctx, "cache.RedisCache.SetCode")
	defer span.End()

	data, err := json.Marshal(ic)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	return c.client.Set(ctx, c.key(ic.Code), data, c.ttl).Err()
}

func NewRedisCache(client RedisClientInterface, ttl time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *RedisCache {
	c := new(RedisCache)

	c.client = client
	c.ttl = ttl

	c.tracer = tracer
	c.monitor = monitor
	c.logger = logger

	return c
}
