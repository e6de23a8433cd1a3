// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

import (
	"context"
	"errors"

	"github.com/canonical/center-service/internal/storage"
	"github.com/canonical/center-service/internal/types"
)

func (s *Service) GetRole(ctx context.Context, tenantID, userID string) (types.Role, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.GetRole")
	defer span.End()

	if userID == "" {
		return "", types.ErrAuth
	}

	role, err := s.storage.GetMemberRole(ctx, tenantID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", types.ErrNotAMember
	}
	if err != nil {
		return "", translate(err)
	}

	return role, nil
}

// ListMembers is open to every member of the tenant, emails missing from the
// profile are filled from the identity provider when it answers
func (s *Service) ListMembers(ctx context.Context, caller, tenantID string) ([]*types.Member, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.ListMembers")
	defer span.End()

	if err := s.requireMember(ctx, caller, tenantID); err != nil {
		return nil, err
	}

	members, err := s.storage.ListMembersByTenantID(ctx, tenantID)
	if err != nil {
		return nil, translate(err)
	}

	for _, m := range members {
		if m.Email != "" {
			continue
		}

		email, err := s.kratos.GetEmail(ctx, m.UserID)
		if err != nil {
			s.logger.Debugf("failed to fetch email of %s: %v", m.UserID, err)
			continue
		}
		m.Email = email
	}

	return members, nil
}

func (s *Service) ListUserTenants(ctx context.Context, userID string) ([]*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.ListUserTenants")
	defer span.End()

	if userID == "" {
		return nil, types.ErrAuth
	}

	tenants, err := s.storage.ListTenantsByUserID(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}

	return tenants, nil
}

// PreviewInvitationCode shows what redeeming a code would grant, without
// requiring membership
func (s *Service) PreviewInvitationCode(ctx context.Context, code string) (*types.CodePreview, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.PreviewInvitationCode")
	defer span.End()

	ic, err := s.lookupCode(ctx, code)
	if err != nil {
		return nil, err
	}

	t, err := s.storage.GetTenantByID(ctx, ic.TenantID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, types.ErrInvalidCode
	}
	if err != nil {
		return nil, translate(err)
	}

	return &types.CodePreview{
		TenantID: t.ID,
		Name:     t.Name,
		Courses:  t.Courses,
		Country:  t.Location.Country,
		Role:     ic.Kind.Role(),
	}, nil
}

// GetInvitationCodes returns the current code of each kind the caller may
// share: owner and adminPlus see both, other members only the student code
func (s *Service) GetInvitationCodes(ctx context.Context, caller, tenantID string) ([]*types.InvitationCode, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.GetInvitationCodes")
	defer span.End()

	if caller == "" {
		return nil, types.ErrAuth
	}

	role, err := s.storage.GetMemberRole(ctx, tenantID, caller)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Security().AuthzFailure(caller, "invitation_codes:center:"+tenantID)
		return nil, types.ErrForbidden
	}
	if err != nil {
		return nil, translate(err)
	}

	all, err := s.storage.ListInvitationCodes(ctx, tenantID)
	if err != nil {
		return nil, translate(err)
	}

	visible := map[types.CodeKind]bool{types.CodeKindStudent: true}
	if role == types.RoleOwner || role == types.RoleAdminPlus {
		visible[types.CodeKindAdmin] = true
	}

	// codes come newest first, the first of each kind is the current one
	current := make([]*types.InvitationCode, 0, len(visible))
	for _, c := range all {
		if !visible[c.Kind] {
			continue
		}
		current = append(current, c)
		delete(visible, c.Kind)
	}

	return current, nil
}

func (s *Service) requireMember(ctx context.Context, caller, tenantID string) error {
	if caller == "" {
		return types.ErrAuth
	}

	_, err := s.storage.GetMemberRole(ctx, tenantID, caller)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Security().AuthzFailure(caller, "members:center:"+tenantID)
		return types.ErrForbidden
	}

	return translate(err)
}
