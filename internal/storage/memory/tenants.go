// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/canonical/center-service/internal/storage"
	"github.com/canonical/center-service/internal/types"
)

func (s *Store) CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error) {
	created := *t
	created.Roles = types.Roles{}
	created.Version = 0
	created.CreatedAt = now()
	created.Courses = slices.Clone(t.Courses)
	if created.Courses == nil {
		created.Courses = []string{}
	}

	if created.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate tenant ID: %w", err)
		}
		created.ID = id.String()
	}

	err := s.write(ctx, func(st *state) error {
		if _, ok := st.tenants[created.ID]; ok {
			return fmt.Errorf("failed to insert tenant: %w", storage.ErrDuplicateKey)
		}
		st.tenants[created.ID] = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := created
	out.Courses = slices.Clone(created.Courses)
	return &out, nil
}

func (s *Store) GetTenantByID(ctx context.Context, id string) (*types.Tenant, error) {
	var out *types.Tenant

	err := s.read(ctx, func(st *state) error {
		t, ok := st.tenants[id]
		if !ok {
			return storage.ErrNotFound
		}

		roles, err := st.roles(id)
		if err != nil {
			return fmt.Errorf("tenant %s has inconsistent roles: %w", id, err)
		}

		t.Courses = slices.Clone(t.Courses)
		t.Roles = roles
		out = &t
		return nil
	})

	return out, err
}

func (s *Store) ListTenantsByUserID(ctx context.Context, userID string) ([]*types.Tenant, error) {
	tenants := make([]*types.Tenant, 0)

	err := s.read(ctx, func(st *state) error {
		for _, id := range st.tenantIDs(userID) {
			t, ok := st.tenants[id]
			if !ok {
				continue
			}
			t.Courses = slices.Clone(t.Courses)
			tenants = append(tenants, &t)
		}
		return nil
	})

	return tenants, err
}

func (s *Store) BumpTenantVersion(ctx context.Context, id string, expected int64) (int64, error) {
	next := expected + 1

	err := s.write(ctx, func(st *state) error {
		t, ok := st.tenants[id]
		if !ok || t.Version != expected {
			return fmt.Errorf("tenant %s is no longer at version %d: %w", id, expected, storage.ErrConflict)
		}
		t.Version = next
		st.tenants[id] = t
		return nil
	})
	if err != nil {
		return 0, err
	}

	return next, nil
}
