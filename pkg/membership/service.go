// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/canonical/center-service/internal/i18n"
	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/monitoring"
	"github.com/canonical/center-service/internal/storage"
	"github.com/canonical/center-service/internal/tracing"
	"github.com/canonical/center-service/internal/types"
)

const (
	WarningNotification = i18n.MsgNotificationWarning

	communityLink = "/community?centerId=%s"
)

var _ ServiceInterface = (*Service)(nil)

// Service is the membership authority: every mutation re-reads the tenant
// inside a transaction attempt, validates, writes both sides of the
// membership and bumps the tenant version so that racing writers conflict
type Service struct {
	storage  StorageInterface
	tx       TxRunnerInterface
	codes    CodeGeneratorInterface
	cache    CodeCacheInterface
	authz    AuthzInterface
	notifier NotifierInterface
	kratos   KratosClientInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (s *Service) CreateTenant(ctx context.Context, caller string, attrs TenantAttributes, nationalID string) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.CreateTenant")
	defer span.End()

	if caller == "" {
		return nil, types.ErrAuth
	}

	attrs.Name = strings.TrimSpace(attrs.Name)
	if attrs.Name == "" {
		return nil, types.NewError(types.KindInvalidArgument, "center name is required")
	}

	studentCode, err := s.codes.Generate()
	if err != nil {
		return nil, types.WrapError(types.KindStoreUnavailable, err, "failed to generate invitation code")
	}

	adminCode, err := s.codes.Generate()
	if err != nil {
		return nil, types.WrapError(types.KindStoreUnavailable, err, "failed to generate invitation code")
	}

	var (
		tenant *types.Tenant
		codes  []*types.InvitationCode
	)

	err = s.tx.Run(ctx, "CreateTenant", func(ctx context.Context) error {
		if err := s.storage.UpsertUser(ctx, &types.User{ID: caller, NationalID: nationalID}); err != nil {
			return err
		}

		t, err := s.storage.CreateTenant(ctx, &types.Tenant{
			Name:           attrs.Name,
			SchoolName:     attrs.SchoolName,
			Color:          attrs.Color,
			Animal:         attrs.Animal,
			EducationLevel: attrs.EducationLevel,
			Courses:        attrs.Courses,
			Location:       attrs.Location,
		})
		if err != nil {
			return err
		}

		if err := s.storage.AddMember(ctx, t.ID, caller, types.RoleOwner); err != nil {
			return err
		}

		if err := s.storage.AddUserTenant(ctx, caller, t.ID); err != nil {
			return err
		}

		issued := make([]*types.InvitationCode, 0, 2)
		for _, c := range []*types.InvitationCode{
			{TenantID: t.ID, Kind: types.CodeKindStudent, Code: studentCode},
			{TenantID: t.ID, Kind: types.CodeKindAdmin, Code: adminCode},
		} {
			ic, err := s.storage.CreateInvitationCode(ctx, c)
			if err != nil {
				return err
			}
			issued = append(issued, ic)
		}

		t.Roles = types.Roles{Owner: caller}
		tenant, codes = t, issued

		return nil
	})
	if err != nil {
		s.logger.Errorf("failed to create center for %s: %v", caller, err)
		return nil, translate(err)
	}

	s.logger.Infof("center %s created by %s", tenant.ID, caller)

	outcome := &Outcome{
		Change: Change{Kind: ChangeCreated, TenantID: tenant.ID, UserID: caller, To: types.RoleOwner, Version: tenant.Version},
		Tenant: tenant,
		Codes:  codes,
	}

	for _, c := range codes {
		s.cacheCode(ctx, c)
	}

	s.mirror(ctx, outcome.Change)

	return outcome, nil
}

func (s *Service) RedeemInvitationCode(ctx context.Context, caller, code string, profile types.Profile) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.RedeemInvitationCode")
	defer span.End()

	if caller == "" {
		return nil, types.ErrAuth
	}

	ic, err := s.lookupCode(ctx, code)
	if err != nil {
		return nil, err
	}

	role := ic.Kind.Role()
	if !role.Assignable() {
		s.logger.Errorf("invitation code %s has unknown kind %q", ic.ID, ic.Kind)
		return nil, types.ErrInvalidCode
	}

	var tenant *types.Tenant

	err = s.tx.Run(ctx, "RedeemInvitationCode", func(ctx context.Context) error {
		t, err := s.storage.GetTenantByID(ctx, ic.TenantID)
		if err != nil {
			return notFound(err, types.ErrInvalidCode)
		}

		if _, ok := t.Roles.RoleOf(caller); ok {
			return types.ErrAlreadyMember
		}

		if err := t.Roles.Add(caller, role); err != nil {
			return types.WrapError(types.KindAlreadyMember, err, "caller cannot join center %s", t.ID)
		}

		err = s.storage.UpsertUser(ctx, &types.User{
			ID:         caller,
			FirstName:  profile.FirstName,
			LastName:   profile.LastName,
			NationalID: profile.NationalID,
			Course:     profile.Course,
		})
		if err != nil {
			return err
		}

		if err := s.storage.AddMember(ctx, t.ID, caller, role); err != nil {
			return err
		}

		// a join only writes the caller's own rows, so it leaves the center
		// version alone; a racing join of the same user trips the membership key
		if err := s.storage.AddUserTenant(ctx, caller, t.ID); err != nil {
			return err
		}

		tenant = t
		return nil
	})
	if err != nil {
		return nil, s.fail("RedeemInvitationCode", caller, err)
	}

	outcome := &Outcome{
		Change: Change{Kind: ChangeJoined, TenantID: tenant.ID, UserID: caller, To: role, Version: tenant.Version},
		Tenant: tenant,
	}

	s.mirror(ctx, outcome.Change)

	tag := i18n.FromContext(ctx)
	payload := types.NotificationPayload{
		Title:   i18n.Message(tag, i18n.MsgNewMemberTitle),
		Message: i18n.Message(tag, i18n.MsgNewMemberMessage, profile.DisplayName(), tenant.Name),
		Link:    fmt.Sprintf(communityLink, tenant.ID),
	}

	recipients := tenant.Roles.Recipients()
	if err := s.notifier.Notify(ctx, recipients, payload); err != nil {
		s.logger.Warnf("failed to notify %d members of center %s: %v", len(recipients), tenant.ID, err)
		outcome.Warnings = append(outcome.Warnings, WarningNotification)
	}

	return outcome, nil
}

func (s *Service) ChangeRole(ctx context.Context, caller, tenantID, targetUser string, from, to types.Role) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.ChangeRole")
	defer span.End()

	if caller == "" {
		return nil, types.ErrAuth
	}

	if !from.Valid() || !to.Valid() || targetUser == "" {
		return nil, types.NewError(types.KindInvalidArgument, "unknown role or empty target")
	}

	var version int64

	err := s.tx.Run(ctx, "ChangeRole", func(ctx context.Context) error {
		t, err := s.storage.GetTenantByID(ctx, tenantID)
		if err != nil {
			return notFound(err, types.ErrNotFound)
		}

		if err := s.authorizeOwner(t, caller, "change_role"); err != nil {
			return err
		}

		if targetUser == t.Roles.Owner || from == types.RoleOwner || to == types.RoleOwner {
			return types.ErrInvalidTarget
		}

		if from == to {
			return types.ErrNoOp
		}

		current, ok := t.Roles.RoleOf(targetUser)
		switch {
		case !ok:
			return types.ErrNotAMember
		case current == to:
			return types.ErrNoOp
		case current != from:
			return types.NewError(types.KindStaleRole, "%s holds %s, not %s", targetUser, current, from)
		}

		if _, err := t.Roles.Move(targetUser, to); err != nil {
			return types.WrapError(types.KindInvalidTarget, err, "cannot move %s", targetUser)
		}

		if err := s.storage.UpdateMember(ctx, t.ID, targetUser, to); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return storage.ErrConflict
			}
			return err
		}

		version, err = s.storage.BumpTenantVersion(ctx, t.ID, t.Version)
		return err
	})
	if err != nil {
		return nil, s.fail("ChangeRole", caller, err)
	}

	s.logger.Security().AdminAction(caller, "change_role", "center:"+tenantID, targetUser)

	outcome := &Outcome{
		Change: Change{Kind: ChangeMoved, TenantID: tenantID, UserID: targetUser, From: from, To: to, Version: version},
	}

	s.mirror(ctx, outcome.Change)

	return outcome, nil
}

// RemoveMember expels targetUser, an empty targetRole removes whatever
// non owner role the target holds
func (s *Service) RemoveMember(ctx context.Context, caller, tenantID, targetUser string, targetRole types.Role) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.RemoveMember")
	defer span.End()

	if caller == "" {
		return nil, types.ErrAuth
	}

	if (targetRole != "" && !targetRole.Valid()) || targetUser == "" {
		return nil, types.NewError(types.KindInvalidArgument, "unknown role or empty target")
	}

	var (
		removed types.Role
		version int64
	)

	err := s.tx.Run(ctx, "RemoveMember", func(ctx context.Context) error {
		t, err := s.storage.GetTenantByID(ctx, tenantID)
		if err != nil {
			return notFound(err, types.ErrNotFound)
		}

		if err := s.authorizeOwner(t, caller, "remove_member"); err != nil {
			return err
		}

		if targetUser == t.Roles.Owner || targetRole == types.RoleOwner {
			return types.ErrInvalidTarget
		}

		current, ok := t.Roles.RoleOf(targetUser)
		switch {
		case !ok:
			return types.ErrNotAMember
		case targetRole != "" && current != targetRole:
			return types.NewError(types.KindStaleRole, "%s holds %s, not %s", targetUser, current, targetRole)
		}

		if removed, err = s.leave(ctx, t, targetUser); err != nil {
			return err
		}

		version = t.Version
		return nil
	})
	if err != nil {
		return nil, s.fail("RemoveMember", caller, err)
	}

	s.logger.Security().AdminAction(caller, "remove_member", "center:"+tenantID, targetUser)

	outcome := &Outcome{
		Change: Change{Kind: ChangeRemoved, TenantID: tenantID, UserID: targetUser, From: removed, Version: version},
	}

	s.mirror(ctx, outcome.Change)

	return outcome, nil
}

func (s *Service) LeaveTenant(ctx context.Context, caller, tenantID string) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.LeaveTenant")
	defer span.End()

	if caller == "" {
		return nil, types.ErrAuth
	}

	var (
		left    types.Role
		version int64
	)

	err := s.tx.Run(ctx, "LeaveTenant", func(ctx context.Context) error {
		t, err := s.storage.GetTenantByID(ctx, tenantID)
		if err != nil {
			return notFound(err, types.ErrNotFound)
		}

		if t.Roles.Owner == caller {
			return types.ErrOwnerCannotLeave
		}

		if _, ok := t.Roles.RoleOf(caller); !ok {
			return types.ErrNotAMember
		}

		if left, err = s.leave(ctx, t, caller); err != nil {
			return err
		}

		version = t.Version
		return nil
	})
	if err != nil {
		return nil, s.fail("LeaveTenant", caller, err)
	}

	outcome := &Outcome{
		Change: Change{Kind: ChangeLeft, TenantID: tenantID, UserID: caller, From: left, Version: version},
	}

	s.mirror(ctx, outcome.Change)

	return outcome, nil
}

// leave drops both sides of the membership and bumps the tenant version,
// t is updated in place
func (s *Service) leave(ctx context.Context, t *types.Tenant, userID string) (types.Role, error) {
	role, err := t.Roles.Remove(userID)
	if err != nil {
		return "", types.WrapError(types.KindInvalidTarget, err, "cannot remove %s", userID)
	}

	if err := s.storage.RemoveMember(ctx, t.ID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", storage.ErrConflict
		}
		return "", err
	}

	if err := s.storage.RemoveUserTenant(ctx, userID, t.ID); err != nil {
		return "", err
	}

	if t.Version, err = s.storage.BumpTenantVersion(ctx, t.ID, t.Version); err != nil {
		return "", err
	}

	return role, nil
}

func (s *Service) authorizeOwner(t *types.Tenant, caller, action string) error {
	if t.Roles.Owner == caller {
		return nil
	}

	s.logger.Security().AuthzFailure(caller, action+":center:"+t.ID)
	return types.ErrForbidden
}

// lookupCode resolves a code through the cache, falling back to the store
func (s *Service) lookupCode(ctx context.Context, code string) (*types.InvitationCode, error) {
	// codes match exactly, only surrounding whitespace is ignored
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, types.ErrInvalidCode
	}

	if ic, err := s.cache.GetCode(ctx, code); err == nil && ic != nil {
		return ic, nil
	}

	ic, err := s.storage.GetInvitationCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, types.ErrInvalidCode
		}

		s.logger.Errorf("failed to look up invitation code: %v", err)
		return nil, translate(err)
	}

	s.cacheCode(ctx, ic)

	return ic, nil
}

func (s *Service) cacheCode(ctx context.Context, ic *types.InvitationCode) {
	if err := s.cache.SetCode(ctx, ic); err != nil {
		s.logger.Debugf("failed to cache invitation code of center %s: %v", ic.TenantID, err)
	}
}

// mirror replays a committed change on the authorization store, failures are
// logged and never undo the change
func (s *Service) mirror(ctx context.Context, c Change) {
	var err error

	switch {
	case c.From == "" && c.To != "":
		err = s.authz.AssignRole(ctx, c.TenantID, c.UserID, c.To)
	case c.From != "" && c.To == "":
		err = s.authz.RemoveRole(ctx, c.TenantID, c.UserID, c.From)
	case c.From != "" && c.To != "":
		err = s.authz.MoveRole(ctx, c.TenantID, c.UserID, c.From, c.To)
	}

	if err != nil {
		s.logger.Warnf("failed to mirror %s of %s in center %s: %v", c.Kind, c.UserID, c.TenantID, err)
	}
}

func (s *Service) fail(operation, caller string, err error) error {
	err = translate(err)

	if kind := types.KindOf(err); kind == types.KindStoreUnavailable || kind == types.KindContention || kind == types.KindTimeout {
		s.logger.Errorf("%s by %s failed: %v", operation, caller, err)
	} else {
		s.logger.Debugf("%s by %s rejected: %v", operation, caller, err)
	}

	return err
}

func NewService(
	storage StorageInterface,
	tx TxRunnerInterface,
	codes CodeGeneratorInterface,
	cache CodeCacheInterface,
	authz AuthzInterface,
	notifier NotifierInterface,
	kratos KratosClientInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	s := new(Service)

	s.storage = storage
	s.tx = tx
	s.codes = codes
	s.cache = cache
	s.authz = authz
	s.notifier = notifier
	s.kratos = kratos

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
