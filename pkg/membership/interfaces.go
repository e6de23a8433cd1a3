// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

import (
	"context"

	"github.com/canonical/center-service/internal/types"
)

// StorageInterface is the subset of internal/storage used by the membership
// authority and its query side
type StorageInterface interface {
	CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error)
	GetTenantByID(ctx context.Context, id string) (*types.Tenant, error)
	ListTenantsByUserID(ctx context.Context, userID string) ([]*types.Tenant, error)
	BumpTenantVersion(ctx context.Context, id string, expected int64) (int64, error)

	AddMember(ctx context.Context, tenantID, userID string, role types.Role) error
	UpdateMember(ctx context.Context, tenantID, userID string, role types.Role) error
	RemoveMember(ctx context.Context, tenantID, userID string) error
	GetMemberRole(ctx context.Context, tenantID, userID string) (types.Role, error)
	ListMembersByTenantID(ctx context.Context, tenantID string) ([]*types.Member, error)

	CreateInvitationCode(ctx context.Context, c *types.InvitationCode) (*types.InvitationCode, error)
	GetInvitationCode(ctx context.Context, code string) (*types.InvitationCode, error)
	ListInvitationCodes(ctx context.Context, tenantID string) ([]*types.InvitationCode, error)

	UpsertUser(ctx context.Context, u *types.User) error
	AddUserTenant(ctx context.Context, userID, tenantID string) error
	RemoveUserTenant(ctx context.Context, userID, tenantID string) error
}

type TxRunnerInterface interface {
	Run(ctx context.Context, operation string, fn func(context.Context) error) error
}

type CodeGeneratorInterface interface {
	Generate() (string, error)
}

type CodeCacheInterface interface {
	GetCode(ctx context.Context, code string) (*types.InvitationCode, error)
	SetCode(ctx context.Context, c *types.InvitationCode) error
}

// AuthzInterface mirrors committed role changes into the authorization store
type AuthzInterface interface {
	AssignRole(ctx context.Context, tenantID, userID string, role types.Role) error
	RemoveRole(ctx context.Context, tenantID, userID string, role types.Role) error
	MoveRole(ctx context.Context, tenantID, userID string, from, to types.Role) error
}

type NotifierInterface interface {
	Notify(ctx context.Context, recipients []string, payload types.NotificationPayload) error
}

type KratosClientInterface interface {
	GetEmail(ctx context.Context, id string) (string, error)
}

type ServiceInterface interface {
	CreateTenant(ctx context.Context, caller string, attrs TenantAttributes, nationalID string) (*Outcome, error)
	RedeemInvitationCode(ctx context.Context, caller, code string, profile types.Profile) (*Outcome, error)
	ChangeRole(ctx context.Context, caller, tenantID, targetUser string, from, to types.Role) (*Outcome, error)
	RemoveMember(ctx context.Context, caller, tenantID, targetUser string, targetRole types.Role) (*Outcome, error)
	LeaveTenant(ctx context.Context, caller, tenantID string) (*Outcome, error)

	GetRole(ctx context.Context, tenantID, userID string) (types.Role, error)
	ListMembers(ctx context.Context, caller, tenantID string) ([]*types.Member, error)
	ListUserTenants(ctx context.Context, userID string) ([]*types.Tenant, error)
	PreviewInvitationCode(ctx context.Context, code string) (*types.CodePreview, error)
	GetInvitationCodes(ctx context.Context, caller, tenantID string) ([]*types.InvitationCode, error)
}
