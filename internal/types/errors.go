// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine readable failure category returned to callers
type ErrorKind string

const (
	KindAuth             ErrorKind = "AuthError"
	KindInvalidCode      ErrorKind = "InvalidCode"
	KindAlreadyMember    ErrorKind = "AlreadyMember"
	KindForbidden        ErrorKind = "Forbidden"
	KindInvalidTarget    ErrorKind = "InvalidTarget"
	KindNoOp             ErrorKind = "NoOp"
	KindNotAMember       ErrorKind = "NotAMember"
	KindOwnerCannotLeave ErrorKind = "OwnerCannotLeave"
	KindContention       ErrorKind = "Contention"
	KindTimeout          ErrorKind = "Timeout"
	KindStoreUnavailable ErrorKind = "StoreUnavailable"
	KindInvalidArgument  ErrorKind = "InvalidArgument"
	KindStaleRole        ErrorKind = "StaleRole"
	KindNotFound         ErrorKind = "NotFound"
)

// Error is a typed membership failure, two errors are equal under errors.Is
// when their kinds match
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind
}

func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WrapError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

var (
	ErrAuth             = &Error{Kind: KindAuth, Message: "caller identity could not be resolved"}
	ErrInvalidCode      = &Error{Kind: KindInvalidCode, Message: "invitation code not recognised"}
	ErrAlreadyMember    = &Error{Kind: KindAlreadyMember, Message: "caller is already a member of this center"}
	ErrForbidden        = &Error{Kind: KindForbidden, Message: "only the owner can perform this action"}
	ErrInvalidTarget    = &Error{Kind: KindInvalidTarget, Message: "the owner role cannot be targeted"}
	ErrNoOp             = &Error{Kind: KindNoOp, Message: "nothing to change"}
	ErrNotAMember       = &Error{Kind: KindNotAMember, Message: "user is not a member of this center"}
	ErrOwnerCannotLeave = &Error{Kind: KindOwnerCannotLeave, Message: "the owner cannot leave the center"}
	ErrContention       = &Error{Kind: KindContention, Message: "too many concurrent changes, try again"}
	ErrTimeout          = &Error{Kind: KindTimeout, Message: "operation deadline exceeded"}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable, Message: "store unavailable"}
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
	ErrStaleRole        = &Error{Kind: KindStaleRole, Message: "member role changed since it was read"}
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "center not found"}
)

// KindOf extracts the kind of a membership error, unknown errors count as
// store failures
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindStoreUnavailable
}
