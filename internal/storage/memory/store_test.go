// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package memory

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/canonical/center-service/internal/storage"
	"github.com/canonical/center-service/internal/types"
)

func seed(t *testing.T, s *Store) *types.Tenant {
	t.Helper()

	ctx := context.Background()

	if err := s.UpsertUser(ctx, &types.User{ID: "owner", FirstName: "Ada"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tenant, err := s.CreateTenant(ctx, &types.Tenant{Name: "Club X", Courses: []string{"1A"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.AddMember(ctx, tenant.ID, "owner", types.RoleOwner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return tenant
}

func TestWithTxCommitsAllWrites(t *testing.T) {
	s := NewStore()
	tenant := seed(t, s)
	ctx := context.Background()

	err := s.WithTx(ctx, func(ctx context.Context) error {
		if err := s.UpsertUser(ctx, &types.User{ID: "u2"}); err != nil {
			return err
		}
		if _, err := s.BumpTenantVersion(ctx, tenant.ID, 0); err != nil {
			return err
		}
		if err := s.AddMember(ctx, tenant.ID, "u2", types.RoleStudent); err != nil {
			return err
		}
		if err := s.AddUserTenant(ctx, "u2", tenant.ID); err != nil {
			return err
		}

		// own writes are visible inside the transaction
		role, err := s.GetMemberRole(ctx, tenant.ID, "u2")
		if err != nil || role != types.RoleStudent {
			t.Fatalf("expected student inside tx, got %q %v", role, err)
		}

		// other readers do not see them yet
		if _, err := s.GetMemberRole(context.Background(), tenant.ID, "u2"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected uncommitted write to be invisible, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.GetTenantByID(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Version != 1 {
		t.Fatalf("expected version 1, got %d", got.Version)
	}

	if !slices.Equal(got.Roles.Student, []string{"u2"}) {
		t.Fatalf("expected u2 in student set, got %v", got.Roles.Student)
	}

	u, err := s.GetUserByID(ctx, "u2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(u.TenantIDs, []string{tenant.ID}) {
		t.Fatalf("expected tenant ids %v, got %v", []string{tenant.ID}, u.TenantIDs)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := NewStore()
	tenant := seed(t, s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context) error {
		if err := s.UpsertUser(ctx, &types.User{ID: "u2"}); err != nil {
			return err
		}
		if err := s.AddMember(ctx, tenant.ID, "u2", types.RoleStudent); err != nil {
			return err
		}
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}

	if _, err := s.GetUserByID(ctx, "u2"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected user to be rolled back, got %v", err)
	}

	if _, err := s.GetMemberRole(ctx, tenant.ID, "u2"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected membership to be rolled back, got %v", err)
	}
}

func TestWithTxConflictOnStaleVersion(t *testing.T) {
	s := NewStore()
	tenant := seed(t, s)
	ctx := context.Background()

	err := s.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.BumpTenantVersion(txCtx, tenant.ID, 0); err != nil {
			return err
		}

		// a concurrent writer commits first
		if _, err := s.BumpTenantVersion(context.Background(), tenant.ID, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return nil
	})

	if !storage.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	got, _ := s.GetTenantByID(ctx, tenant.ID)
	if got.Version != 1 {
		t.Fatalf("expected version 1, got %d", got.Version)
	}
}

func TestWithTxConflictOnReplayFailure(t *testing.T) {
	s := NewStore()
	tenant := seed(t, s)
	ctx := context.Background()

	if err := s.UpsertUser(ctx, &types.User{ID: "u2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddMember(ctx, tenant.ID, "u2", types.RoleStudent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := s.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.RemoveMember(txCtx, tenant.ID, "u2"); err != nil {
			return err
		}

		// the member is removed by someone else before this commit
		if err := s.RemoveMember(context.Background(), tenant.ID, "u2"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return nil
	})

	if !storage.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("replay failure must not surface as not found: %v", err)
	}
}

func TestWithTxNested(t *testing.T) {
	s := NewStore()
	tenant := seed(t, s)
	ctx := context.Background()

	err := s.WithTx(ctx, func(ctx context.Context) error {
		return s.WithTx(ctx, func(ctx context.Context) error {
			_, err := s.BumpTenantVersion(ctx, tenant.ID, 0)
			return err
		})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := s.GetTenantByID(ctx, tenant.ID)
	if got.Version != 1 {
		t.Fatalf("expected version 1, got %d", got.Version)
	}
}

func TestWithTxCanceledContext(t *testing.T) {
	s := NewStore()
	tenant := seed(t, s)

	ctx, cancel := context.WithCancel(context.Background())

	err := s.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.BumpTenantVersion(txCtx, tenant.ID, 0); err != nil {
			return err
		}
		cancel()
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}

	got, _ := s.GetTenantByID(context.Background(), tenant.ID)
	if got.Version != 0 {
		t.Fatalf("expected version 0, got %d", got.Version)
	}
}

func TestAddMember(t *testing.T) {
	tests := []struct {
		name     string
		tenantID func(*types.Tenant) string
		userID   string
		role     types.Role
		expected error
	}{
		{
			name:     "duplicate membership",
			tenantID: func(t *types.Tenant) string { return t.ID },
			userID:   "owner",
			role:     types.RoleStudent,
			expected: storage.ErrConflict,
		},
		{
			name:     "second owner",
			tenantID: func(t *types.Tenant) string { return t.ID },
			userID:   "u2",
			role:     types.RoleOwner,
			expected: storage.ErrConflict,
		},
		{
			name:     "unknown tenant",
			tenantID: func(*types.Tenant) string { return "missing" },
			userID:   "u2",
			role:     types.RoleStudent,
			expected: storage.ErrForeignKeyViolation,
		},
		{
			name:     "unknown user",
			tenantID: func(t *types.Tenant) string { return t.ID },
			userID:   "ghost",
			role:     types.RoleStudent,
			expected: storage.ErrForeignKeyViolation,
		},
		{
			name:     "success",
			tenantID: func(t *types.Tenant) string { return t.ID },
			userID:   "u2",
			role:     types.RoleAdmin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			tenant := seed(t, s)
			ctx := context.Background()

			if err := s.UpsertUser(ctx, &types.User{ID: "u2"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			err := s.AddMember(ctx, tt.tenantID(tenant), tt.userID, tt.role)

			if tt.expected == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.expected != nil && !errors.Is(err, tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestMemberLifecycle(t *testing.T) {
	s := NewStore()
	tenant := seed(t, s)
	ctx := context.Background()

	_ = s.UpsertUser(ctx, &types.User{ID: "u2", FirstName: "Grace", Email: "grace@example.com"})

	if err := s.AddMember(ctx, tenant.ID, "u2", types.RoleStudent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.UpdateMember(ctx, tenant.ID, "u2", types.RoleAdminPlus); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	members, err := s.ListMembersByTenantID(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(members) != 2 || members[1].UserID != "u2" || members[1].Role != types.RoleAdminPlus || members[1].Email != "grace@example.com" {
		t.Fatalf("unexpected members %+v", members)
	}

	if err := s.RemoveMember(ctx, tenant.ID, "u2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.RemoveMember(ctx, tenant.ID, "u2"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := s.UpdateMember(ctx, tenant.ID, "u2", types.RoleAdmin); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpsertUserKeepsExistingFields(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_ = s.UpsertUser(ctx, &types.User{ID: "u1", Email: "a@example.com", FirstName: "Ada"})
	_ = s.UpsertUser(ctx, &types.User{ID: "u1", LastName: "Lovelace"})

	u, err := s.GetUserByID(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if u.Email != "a@example.com" || u.FirstName != "Ada" || u.LastName != "Lovelace" {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestInvitationCodes(t *testing.T) {
	s := NewStore()
	tenant := seed(t, s)
	ctx := context.Background()

	first, err := s.CreateInvitationCode(ctx, &types.InvitationCode{TenantID: tenant.ID, Kind: types.CodeKindStudent, Code: "aaaa"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.CreateInvitationCode(ctx, &types.InvitationCode{TenantID: tenant.ID, Kind: types.CodeKindAdmin, Code: "aaaa"}); !storage.IsDuplicateKeyError(err) {
		t.Fatalf("expected duplicate key, got %v", err)
	}

	second, _ := s.CreateInvitationCode(ctx, &types.InvitationCode{TenantID: tenant.ID, Kind: types.CodeKindAdmin, Code: "bbbb"})

	got, err := s.GetInvitationCode(ctx, "aaaa")
	if err != nil || got.ID != first.ID {
		t.Fatalf("expected %v, got %v %v", first, got, err)
	}

	if _, err := s.GetInvitationCode(ctx, "cccc"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	codes, _ := s.ListInvitationCodes(ctx, tenant.ID)
	if len(codes) != 2 || codes[0].ID != second.ID {
		t.Fatalf("expected newest code first, got %+v", codes)
	}
}

func TestNotifications(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.CreateNotifications(ctx, []*types.Notification{
		{UserID: "u1", Title: "one"},
		{UserID: "u1", Title: "two"},
		{UserID: "u1", Title: "three"},
		{UserID: "u2", Title: "other"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	page, _ := s.ListNotifications(ctx, "u1", 1, 2)
	if len(page) != 2 || page[0].Title != "three" || page[1].Title != "two" {
		t.Fatalf("unexpected first page %+v", page)
	}

	page, _ = s.ListNotifications(ctx, "u1", 2, 2)
	if len(page) != 1 || page[0].Title != "one" {
		t.Fatalf("unexpected second page %+v", page)
	}

	if err := s.MarkNotificationRead(ctx, "u2", page[0].ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found for another user, got %v", err)
	}

	if err := s.MarkNotificationRead(ctx, "u1", page[0].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n, _ := s.MarkAllNotificationsRead(ctx, "u1"); n != 2 {
		t.Fatalf("expected 2 marked, got %d", n)
	}

	if n, _ := s.DeleteReadNotifications(ctx, "u1"); n != 3 {
		t.Fatalf("expected 3 deleted, got %d", n)
	}

	left, _ := s.ListNotifications(ctx, "u2", 0, 0)
	if len(left) != 1 || left[0].Read {
		t.Fatalf("unexpected notifications for u2 %+v", left)
	}
}
