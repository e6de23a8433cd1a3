// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package kratos

import (
	"context"

	ory "github.com/ory/client-go"
)

// NoopClient is used when no Kratos admin URL is configured, emails are then
// left out of member listings
type NoopClient struct{}

func (c *NoopClient) GetIdentity(ctx context.Context, id string) (*ory.Identity, error) {
	return &ory.Identity{Id: id, SchemaId: "default", Traits: map[string]interface{}{}}, nil
}

func (c *NoopClient) GetEmail(ctx context.Context, id string) (string, error) {
	return "", nil
}

func NewNoopClient() *NoopClient {
	return new(NoopClient)
}
