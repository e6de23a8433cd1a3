// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package transaction

import (
	"context"
)

// TransactorInterface runs fn atomically, every storage call made with the
// context handed to fn takes part in the same transaction
type TransactorInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

type RunnerInterface interface {
	Run(ctx context.Context, operation string, fn func(context.Context) error) error
}
