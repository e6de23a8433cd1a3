// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"

	fga "github.com/openfga/go-sdk"

	"github.com/canonical/center-service/internal/openfga"
	"github.com/canonical/center-service/internal/types"
)

// AuthorizerInterface mirrors committed role changes into OpenFGA, the
// membership tables stay the source of truth
type AuthorizerInterface interface {
	ValidateModel(context.Context) error

	AssignRole(ctx context.Context, tenantID, userID string, role types.Role) error
	RemoveRole(ctx context.Context, tenantID, userID string, role types.Role) error
	MoveRole(ctx context.Context, tenantID, userID string, from, to types.Role) error
}

type AuthzClientInterface interface {
	CompareModel(context.Context, fga.AuthorizationModel) (bool, error)
	WriteTuple(ctx context.Context, user, relation, object string) error
	DeleteTuple(ctx context.Context, user, relation, object string) error
	ReplaceTuple(ctx context.Context, from, to openfga.Tuple) error
}
