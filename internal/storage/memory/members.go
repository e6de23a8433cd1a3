// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/canonical/center-service/internal/storage"
	"github.com/canonical/center-service/internal/types"
)

func (s *Store) AddMember(ctx context.Context, tenantID, userID string, role types.Role) error {
	return s.write(ctx, func(st *state) error {
		if _, ok := st.tenants[tenantID]; !ok {
			return fmt.Errorf("failed to add member: %w", storage.ErrForeignKeyViolation)
		}
		if _, ok := st.users[userID]; !ok {
			return fmt.Errorf("failed to add member: %w", storage.ErrForeignKeyViolation)
		}

		members := st.memberships[tenantID]
		if _, ok := members[userID]; ok {
			return fmt.Errorf("failed to add member: %w: %w", storage.ErrConflict, storage.ErrDuplicateKey)
		}

		if role == types.RoleOwner {
			for _, m := range members {
				if m.role == types.RoleOwner {
					return fmt.Errorf("failed to add member: %w: %w", storage.ErrConflict, storage.ErrDuplicateKey)
				}
			}
		}

		if members == nil {
			members = map[string]membership{}
			st.memberships[tenantID] = members
		}
		members[userID] = membership{role: role, seq: st.next()}
		return nil
	})
}

func (s *Store) UpdateMember(ctx context.Context, tenantID, userID string, role types.Role) error {
	return s.write(ctx, func(st *state) error {
		m, ok := st.memberships[tenantID][userID]
		if !ok {
			return storage.ErrNotFound
		}
		m.role = role
		st.memberships[tenantID][userID] = m
		return nil
	})
}

func (s *Store) RemoveMember(ctx context.Context, tenantID, userID string) error {
	return s.write(ctx, func(st *state) error {
		if _, ok := st.memberships[tenantID][userID]; !ok {
			return storage.ErrNotFound
		}
		delete(st.memberships[tenantID], userID)
		return nil
	})
}

func (s *Store) GetMemberRole(ctx context.Context, tenantID, userID string) (types.Role, error) {
	var role types.Role

	err := s.read(ctx, func(st *state) error {
		m, ok := st.memberships[tenantID][userID]
		if !ok {
			return storage.ErrNotFound
		}
		role = m.role
		return nil
	})

	return role, err
}

func (s *Store) ListMembersByTenantID(ctx context.Context, tenantID string) ([]*types.Member, error) {
	members := make([]*types.Member, 0)

	err := s.read(ctx, func(st *state) error {
		rows := st.memberships[tenantID]

		ids := slices.Collect(maps.Keys(rows))
		slices.SortFunc(ids, func(a, b string) int {
			return cmp.Compare(rows[a].seq, rows[b].seq)
		})

		for _, id := range ids {
			u := st.users[id]
			members = append(members, &types.Member{
				UserID:    id,
				Email:     u.Email,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Course:    u.Course,
				Role:      rows[id].role,
			})
		}
		return nil
	})

	return members, err
}
