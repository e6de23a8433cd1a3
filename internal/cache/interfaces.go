// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/canonical/center-service/internal/types"
)

// CodeCacheInterface caches invitation codes by value, codes never change
// once issued so entries are never invalidated
type CodeCacheInterface interface {
	GetCode(ctx context.Context, code string) (*types.InvitationCode, error)
	SetCode(ctx context.Context, c *types.InvitationCode) error
}

// RedisClientInterface is the subset of *redis.Client used here
type RedisClientInterface interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}
