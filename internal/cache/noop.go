// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cache

import (
	"context"

	"github.com/canonical/center-service/internal/types"
)

var _ CodeCacheInterface = (*NoopCache)(nil)

// NoopCache always misses
type NoopCache struct{}

func (c *NoopCache) GetCode(context.Context, string) (*types.InvitationCode, error) {
	return nil, ErrCacheMiss
}

func (c *NoopCache) SetCode(context.Context, *types.InvitationCode) error {
	return nil
}

func NewNoopCache() *NoopCache {
	return new(NoopCache)
}
