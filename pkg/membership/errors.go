// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

import (
	"context"
	"errors"

	"github.com/canonical/center-service/internal/storage"
	"github.com/canonical/center-service/internal/transaction"
	"github.com/canonical/center-service/internal/types"
)

// translate maps what comes out of the transaction runner onto the error
// kinds returned to callers, typed errors raised by validation pass through
func translate(err error) error {
	if err == nil {
		return nil
	}

	var typed *types.Error
	if errors.As(err, &typed) {
		return err
	}

	switch {
	case errors.Is(err, transaction.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return types.WrapError(types.KindTimeout, err, "operation deadline exceeded")
	case errors.Is(err, transaction.ErrContention):
		return types.WrapError(types.KindContention, err, "too many concurrent changes")
	case errors.Is(err, storage.ErrNotFound):
		return types.WrapError(types.KindNotFound, err, "center not found")
	default:
		return types.WrapError(types.KindStoreUnavailable, err, "store unavailable")
	}
}

// notFound turns a missing tenant read inside a transaction into the typed
// error, anything else is left for the runner to classify
func notFound(err error, kind *types.Error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return kind
	}

	return err
}
