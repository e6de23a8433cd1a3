// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors for storage operations.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrDuplicateKey        = errors.New("duplicate key violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	// ErrConflict means the data read by the transaction changed before commit
	ErrConflict = errors.New("concurrent modification conflict")
	// ErrUnavailable means the store could not be reached, the attempt can be retried
	ErrUnavailable = errors.New("store unavailable")
)

// PostgreSQL error codes
const (
	pgErrCodeUniqueViolation      = "23505"
	pgErrCodeForeignKeyViolation  = "23503"
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation.
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, ErrDuplicateKey) || pgErrCode(err) == pgErrCodeUniqueViolation
}

// IsForeignKeyViolation checks if the error is a PostgreSQL foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return errors.Is(err, ErrForeignKeyViolation) || pgErrCode(err) == pgErrCodeForeignKeyViolation
}

// IsConflict reports whether a transaction lost a race and can be retried
func IsConflict(err error) bool {
	if errors.Is(err, ErrConflict) {
		return true
	}

	switch pgErrCode(err) {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	}

	return false
}

// IsUnavailable reports connection level failures that happened before the
// server could have applied anything
func IsUnavailable(err error) bool {
	if errors.Is(err, ErrUnavailable) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	return pgconn.SafeToRetry(err)
}

// WrapDuplicateKeyError wraps a duplicate key error with context about which constraint was violated.
func WrapDuplicateKeyError(err error, context string) error {
	if !IsDuplicateKeyError(err) {
		return err
	}
	return fmt.Errorf("%s: %w", context, ErrDuplicateKey)
}

// WrapForeignKeyError wraps a foreign key violation with context.
func WrapForeignKeyError(err error, context string) error {
	if !IsForeignKeyViolation(err) {
		return err
	}
	return fmt.Errorf("%s: %w", context, ErrForeignKeyViolation)
}

// classify maps driver errors onto the storage sentinels while keeping the cause
func classify(err error, action string) error {
	switch {
	case IsConflict(err):
		return fmt.Errorf("failed to %s: %w: %w", action, ErrConflict, err)
	case IsUnavailable(err):
		return fmt.Errorf("failed to %s: %w: %w", action, ErrUnavailable, err)
	case IsDuplicateKeyError(err):
		return fmt.Errorf("failed to %s: %w: %w", action, ErrDuplicateKey, err)
	case IsForeignKeyViolation(err):
		return fmt.Errorf("failed to %s: %w: %w", action, ErrForeignKeyViolation, err)
	}

	return fmt.Errorf("failed to %s: %w", action, err)
}
