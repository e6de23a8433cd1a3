// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"

	"github.com/canonical/center-service/internal/types"
)

type TenantStorageInterface interface {
	CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error)
	GetTenantByID(ctx context.Context, id string) (*types.Tenant, error)
	ListTenantsByUserID(ctx context.Context, userID string) ([]*types.Tenant, error)
	// BumpTenantVersion increments the version if it still equals expected,
	// ErrConflict otherwise
	BumpTenantVersion(ctx context.Context, id string, expected int64) (int64, error)
}

type MemberStorageInterface interface {
	AddMember(ctx context.Context, tenantID, userID string, role types.Role) error
	UpdateMember(ctx context.Context, tenantID, userID string, role types.Role) error
	RemoveMember(ctx context.Context, tenantID, userID string) error
	GetMemberRole(ctx context.Context, tenantID, userID string) (types.Role, error)
	ListMembersByTenantID(ctx context.Context, tenantID string) ([]*types.Member, error)
}

type CodeStorageInterface interface {
	CreateInvitationCode(ctx context.Context, c *types.InvitationCode) (*types.InvitationCode, error)
	GetInvitationCode(ctx context.Context, code string) (*types.InvitationCode, error)
	ListInvitationCodes(ctx context.Context, tenantID string) ([]*types.InvitationCode, error)
}

type UserStorageInterface interface {
	UpsertUser(ctx context.Context, u *types.User) error
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	AddUserTenant(ctx context.Context, userID, tenantID string) error
	RemoveUserTenant(ctx context.Context, userID, tenantID string) error
}

type NotificationStorageInterface interface {
	CreateNotifications(ctx context.Context, ns []*types.Notification) error
	ListNotifications(ctx context.Context, userID string, page, size int64) ([]*types.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	DeleteReadNotifications(ctx context.Context, userID string) (int64, error)
}

type StorageInterface interface {
	TenantStorageInterface
	MemberStorageInterface
	CodeStorageInterface
	UserStorageInterface
	NotificationStorageInterface
}
