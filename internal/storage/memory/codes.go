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

func (s *Store) CreateInvitationCode(ctx context.Context, c *types.InvitationCode) (*types.InvitationCode, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invitation code ID: %w", err)
	}

	created := *c
	created.ID = id.String()
	created.CreatedAt = now()

	err = s.write(ctx, func(st *state) error {
		if _, ok := st.tenants[created.TenantID]; !ok {
			return fmt.Errorf("failed to insert invitation code: %w", storage.ErrForeignKeyViolation)
		}
		if _, ok := st.codes[created.Code]; ok {
			return fmt.Errorf("invitation code already exists: %w", storage.ErrDuplicateKey)
		}
		st.codes[created.Code] = code{InvitationCode: created, seq: st.next()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (s *Store) GetInvitationCode(ctx context.Context, value string) (*types.InvitationCode, error) {
	var out *types.InvitationCode

	err := s.read(ctx, func(st *state) error {
		c, ok := st.codes[value]
		if !ok {
			return storage.ErrNotFound
		}
		ic := c.InvitationCode
		out = &ic
		return nil
	})

	return out, err
}

// ListInvitationCodes returns the codes of a tenant, newest first
func (s *Store) ListInvitationCodes(ctx context.Context, tenantID string) ([]*types.InvitationCode, error) {
	var rows []code

	err := s.read(ctx, func(st *state) error {
		for _, c := range st.codes {
			if c.TenantID == tenantID {
				rows = append(rows, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(rows, func(a, b code) int {
		switch {
		case a.seq > b.seq:
			return -1
		case a.seq < b.seq:
			return 1
		}
		return 0
	})

	codes := make([]*types.InvitationCode, 0, len(rows))
	for _, r := range rows {
		ic := r.InvitationCode
		codes = append(codes, &ic)
	}

	return codes, nil
}
