// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
)

// PingerInterface is implemented by every dependency whose reachability is
// reported on the status endpoint
type PingerInterface interface {
	Ping(context.Context) error
}

// PingFunc adapts a plain function to PingerInterface
type PingFunc func(context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}
