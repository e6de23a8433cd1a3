// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package memory

import (
	"context"
	"fmt"

	"github.com/canonical/center-service/internal/storage"
	"github.com/canonical/center-service/internal/types"
)

func patch(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// UpsertUser inserts the user or patches the non empty fields of an existing one
func (s *Store) UpsertUser(ctx context.Context, u *types.User) error {
	in := *u
	in.TenantIDs = nil
	createdAt := now()

	return s.write(ctx, func(st *state) error {
		existing, ok := st.users[in.ID]
		if !ok {
			in.CreatedAt = createdAt
			st.users[in.ID] = in
			return nil
		}

		patch(&existing.Email, in.Email)
		patch(&existing.FirstName, in.FirstName)
		patch(&existing.LastName, in.LastName)
		patch(&existing.NationalID, in.NationalID)
		patch(&existing.Course, in.Course)
		patch(&existing.AvatarURL, in.AvatarURL)
		st.users[in.ID] = existing
		return nil
	})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	var out *types.User

	err := s.read(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return storage.ErrNotFound
		}
		u.TenantIDs = st.tenantIDs(id)
		out = &u
		return nil
	})

	return out, err
}

func (s *Store) AddUserTenant(ctx context.Context, userID, tenantID string) error {
	return s.write(ctx, func(st *state) error {
		if _, ok := st.users[userID]; !ok {
			return fmt.Errorf("failed to add user tenant: %w", storage.ErrForeignKeyViolation)
		}
		if _, ok := st.tenants[tenantID]; !ok {
			return fmt.Errorf("failed to add user tenant: %w", storage.ErrForeignKeyViolation)
		}

		ut := st.userTenants[userID]
		if ut == nil {
			ut = map[string]userTenant{}
			st.userTenants[userID] = ut
		}
		if _, ok := ut[tenantID]; !ok {
			ut[tenantID] = userTenant{seq: st.next()}
		}
		return nil
	})
}

func (s *Store) RemoveUserTenant(ctx context.Context, userID, tenantID string) error {
	return s.write(ctx, func(st *state) error {
		delete(st.userTenants[userID], tenantID)
		return nil
	})
}
