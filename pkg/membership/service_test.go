// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/center-service/internal/storage"
	"github.com/canonical/center-service/internal/transaction"
	"github.com/canonical/center-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package membership -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package membership -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package membership -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package membership -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

const (
	studentCode = "0123456789abcdef0123456789abcdef"
	adminCode   = "fedcba9876543210fedcba9876543210"
)

type serviceMocks struct {
	storage  *MockStorageInterface
	tx       *MockTxRunnerInterface
	codes    *MockCodeGeneratorInterface
	cache    *MockCodeCacheInterface
	authz    *MockAuthzInterface
	notifier *MockNotifierInterface
	kratos   *MockKratosClientInterface
	tracer   *MockTracingInterface
	monitor  *MockMonitorInterface
	logger   *MockLoggerInterface
	security *MockSecurityLoggerInterface
}

func newServiceMocks(ctrl *gomock.Controller) *serviceMocks {
	m := &serviceMocks{
		storage:  NewMockStorageInterface(ctrl),
		tx:       NewMockTxRunnerInterface(ctrl),
		codes:    NewMockCodeGeneratorInterface(ctrl),
		cache:    NewMockCodeCacheInterface(ctrl),
		authz:    NewMockAuthzInterface(ctrl),
		notifier: NewMockNotifierInterface(ctrl),
		kratos:   NewMockKratosClientInterface(ctrl),
		tracer:   NewMockTracingInterface(ctrl),
		monitor:  NewMockMonitorInterface(ctrl),
		logger:   NewMockLoggerInterface(ctrl),
		security: NewMockSecurityLoggerInterface(ctrl),
	}

	m.tracer.EXPECT().Start(gomock.Any(), gomock.Any()).
		Return(context.Background(), trace.SpanFromContext(context.Background())).AnyTimes()
	m.logger.EXPECT().Security().Return(m.security).AnyTimes()
	m.logger.EXPECT().Debugf(gomock.Any(), gomock.Any()).AnyTimes()
	m.logger.EXPECT().Infof(gomock.Any(), gomock.Any()).AnyTimes()

	return m
}

func (m *serviceMocks) service() *Service {
	return NewService(m.storage, m.tx, m.codes, m.cache, m.authz, m.notifier, m.kratos, m.tracer, m.monitor, m.logger)
}

// runTx makes the runner execute the attempt once, as a committed transaction would
func (m *serviceMocks) runTx(operation string) {
	m.tx.EXPECT().Run(gomock.Any(), operation, gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
}

func testTenant() *types.Tenant {
	return &types.Tenant{
		ID:      "center-1",
		Name:    "Club X",
		Version: 3,
		Roles: types.Roles{
			Owner:     "owner",
			AdminPlus: []string{"ap-1"},
			Admin:     []string{"admin-1"},
			Student:   []string{"student-1"},
		},
	}
}

func TestService_CreateTenant(t *testing.T) {
	attrs := TenantAttributes{Name: " Club X ", Courses: []string{"1A", "2B"}}

	testCases := []struct {
		name         string
		caller       string
		attrs        TenantAttributes
		setupMocks   func(*serviceMocks)
		expectedKind types.ErrorKind
	}{
		{
			name:   "success",
			caller: "owner",
			attrs:  attrs,
			setupMocks: func(m *serviceMocks) {
				m.codes.EXPECT().Generate().Return(studentCode, nil)
				m.codes.EXPECT().Generate().Return(adminCode, nil)
				m.runTx("CreateTenant")
				m.storage.EXPECT().UpsertUser(gomock.Any(), &types.User{ID: "owner", NationalID: "30111222"}).Return(nil)
				m.storage.EXPECT().CreateTenant(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, t *types.Tenant) (*types.Tenant, error) {
						if t.Name != "Club X" {
							return nil, fmt.Errorf("name not trimmed: %q", t.Name)
						}
						created := *t
						created.ID = "center-1"
						return &created, nil
					},
				)
				m.storage.EXPECT().AddMember(gomock.Any(), "center-1", "owner", types.RoleOwner).Return(nil)
				m.storage.EXPECT().AddUserTenant(gomock.Any(), "owner", "center-1").Return(nil)
				m.storage.EXPECT().CreateInvitationCode(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, c *types.InvitationCode) (*types.InvitationCode, error) {
						return c, nil
					},
				).Times(2)
				m.cache.EXPECT().SetCode(gomock.Any(), gomock.Any()).Return(nil).Times(2)
				m.authz.EXPECT().AssignRole(gomock.Any(), "center-1", "owner", types.RoleOwner).Return(nil)
			},
		},
		{
			name:         "no caller",
			caller:       "",
			attrs:        attrs,
			setupMocks:   func(*serviceMocks) {},
			expectedKind: types.KindAuth,
		},
		{
			name:         "empty name",
			caller:       "owner",
			attrs:        TenantAttributes{Name: "  "},
			setupMocks:   func(*serviceMocks) {},
			expectedKind: types.KindInvalidArgument,
		},
		{
			name:   "code generator failure",
			caller: "owner",
			attrs:  attrs,
			setupMocks: func(m *serviceMocks) {
				m.codes.EXPECT().Generate().Return("", errors.New("entropy exhausted"))
			},
			expectedKind: types.KindStoreUnavailable,
		},
		{
			name:   "store unreachable after retries",
			caller: "owner",
			attrs:  attrs,
			setupMocks: func(m *serviceMocks) {
				m.codes.EXPECT().Generate().Return(studentCode, nil).Times(2)
				m.tx.EXPECT().Run(gomock.Any(), "CreateTenant", gomock.Any()).
					Return(fmt.Errorf("CreateTenant failed after 5 attempts: %w", transaction.ErrUnavailable))
				m.logger.EXPECT().Errorf(gomock.Any(), gomock.Any())
			},
			expectedKind: types.KindStoreUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := newServiceMocks(ctrl)
			tc.setupMocks(m)

			outcome, err := m.service().CreateTenant(context.Background(), tc.caller, tc.attrs, "30111222")

			if tc.expectedKind != "" {
				if types.KindOf(err) != tc.expectedKind {
					t.Fatalf("expected kind %s, got %v", tc.expectedKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if outcome.Tenant.Roles.Owner != tc.caller {
				t.Errorf("expected owner %s, got %s", tc.caller, outcome.Tenant.Roles.Owner)
			}
			if len(outcome.Codes) != 2 || outcome.Codes[0].Kind != types.CodeKindStudent || outcome.Codes[1].Kind != types.CodeKindAdmin {
				t.Errorf("expected a student and an admin code, got %v", outcome.Codes)
			}
			if outcome.Change.Kind != ChangeCreated || outcome.Change.To != types.RoleOwner {
				t.Errorf("unexpected change %+v", outcome.Change)
			}
		})
	}
}

func TestService_RedeemInvitationCode(t *testing.T) {
	profile := types.Profile{FirstName: "Ana", LastName: "Diaz", NationalID: "40123123", Course: "3C"}
	studentIC := &types.InvitationCode{ID: "code-1", TenantID: "center-1", Kind: types.CodeKindStudent, Code: studentCode}

	commit := func(m *serviceMocks, role types.Role) {
		m.runTx("RedeemInvitationCode")
		m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
		m.storage.EXPECT().UpsertUser(gomock.Any(), &types.User{
			ID: "user-2", FirstName: "Ana", LastName: "Diaz", NationalID: "40123123", Course: "3C",
		}).Return(nil)
		m.storage.EXPECT().AddMember(gomock.Any(), "center-1", "user-2", role).Return(nil)
		m.storage.EXPECT().AddUserTenant(gomock.Any(), "user-2", "center-1").Return(nil)
		m.authz.EXPECT().AssignRole(gomock.Any(), "center-1", "user-2", role).Return(nil)
	}

	testCases := []struct {
		name             string
		caller           string
		code             string
		setupMocks       func(*serviceMocks)
		expectedKind     types.ErrorKind
		expectedRole     types.Role
		expectedWarnings int
	}{
		{
			name:   "cache hit",
			caller: "user-2",
			code:   studentCode,
			setupMocks: func(m *serviceMocks) {
				m.cache.EXPECT().GetCode(gomock.Any(), studentCode).Return(studentIC, nil)
				commit(m, types.RoleStudent)
				m.notifier.EXPECT().Notify(gomock.Any(), []string{"owner", "ap-1"}, types.NotificationPayload{
					Title:   "New member",
					Message: "Ana Diaz joined Club X.",
					Link:    "/community?centerId=center-1",
				}).Return(nil)
			},
			expectedRole: types.RoleStudent,
		},
		{
			name:   "cache miss falls back to the store",
			caller: "user-2",
			code:   "  " + adminCode + " ",
			setupMocks: func(m *serviceMocks) {
				ic := &types.InvitationCode{ID: "code-2", TenantID: "center-1", Kind: types.CodeKindAdmin, Code: adminCode}
				m.cache.EXPECT().GetCode(gomock.Any(), adminCode).Return(nil, errors.New("cache miss"))
				m.storage.EXPECT().GetInvitationCode(gomock.Any(), adminCode).Return(ic, nil)
				m.cache.EXPECT().SetCode(gomock.Any(), ic).Return(nil)
				commit(m, types.RoleAdmin)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
			expectedRole: types.RoleAdmin,
		},
		{
			name:   "notification failure is a warning",
			caller: "user-2",
			code:   studentCode,
			setupMocks: func(m *serviceMocks) {
				m.cache.EXPECT().GetCode(gomock.Any(), studentCode).Return(studentIC, nil)
				commit(m, types.RoleStudent)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("queue down"))
				m.logger.EXPECT().Warnf(gomock.Any(), gomock.Any())
			},
			expectedRole:     types.RoleStudent,
			expectedWarnings: 1,
		},
		{
			name:   "unknown code",
			caller: "user-2",
			code:   studentCode,
			setupMocks: func(m *serviceMocks) {
				m.cache.EXPECT().GetCode(gomock.Any(), studentCode).Return(nil, errors.New("cache miss"))
				m.storage.EXPECT().GetInvitationCode(gomock.Any(), studentCode).Return(nil, storage.ErrNotFound)
			},
			expectedKind: types.KindInvalidCode,
		},
		{
			name:   "code case is significant",
			caller: "user-2",
			code:   strings.ToUpper(studentCode),
			setupMocks: func(m *serviceMocks) {
				m.cache.EXPECT().GetCode(gomock.Any(), strings.ToUpper(studentCode)).Return(nil, errors.New("cache miss"))
				m.storage.EXPECT().GetInvitationCode(gomock.Any(), strings.ToUpper(studentCode)).Return(nil, storage.ErrNotFound)
			},
			expectedKind: types.KindInvalidCode,
		},
		{
			name:         "empty code",
			caller:       "user-2",
			code:         " ",
			setupMocks:   func(*serviceMocks) {},
			expectedKind: types.KindInvalidCode,
		},
		{
			name:   "already a member",
			caller: "admin-1",
			code:   studentCode,
			setupMocks: func(m *serviceMocks) {
				m.cache.EXPECT().GetCode(gomock.Any(), studentCode).Return(studentIC, nil)
				m.runTx("RedeemInvitationCode")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
			},
			expectedKind: types.KindAlreadyMember,
		},
		{
			name:   "contention",
			caller: "user-2",
			code:   studentCode,
			setupMocks: func(m *serviceMocks) {
				m.cache.EXPECT().GetCode(gomock.Any(), studentCode).Return(studentIC, nil)
				m.tx.EXPECT().Run(gomock.Any(), "RedeemInvitationCode", gomock.Any()).
					Return(fmt.Errorf("failed after 5 attempts: %w: %w", transaction.ErrContention, storage.ErrConflict))
				m.logger.EXPECT().Errorf(gomock.Any(), gomock.Any())
			},
			expectedKind: types.KindContention,
		},
		{
			name:         "no caller",
			caller:       "",
			code:         studentCode,
			setupMocks:   func(*serviceMocks) {},
			expectedKind: types.KindAuth,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := newServiceMocks(ctrl)
			tc.setupMocks(m)

			outcome, err := m.service().RedeemInvitationCode(context.Background(), tc.caller, tc.code, profile)

			if tc.expectedKind != "" {
				if types.KindOf(err) != tc.expectedKind {
					t.Fatalf("expected kind %s, got %v", tc.expectedKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if role, ok := outcome.Tenant.Roles.RoleOf(tc.caller); !ok || role != tc.expectedRole {
				t.Errorf("expected %s to hold %s, got %s", tc.caller, tc.expectedRole, role)
			}
			if outcome.Tenant.Version != 3 || outcome.Change.Version != 3 {
				t.Errorf("expected the join to keep version 3, got %d", outcome.Tenant.Version)
			}
			if len(outcome.Warnings) != tc.expectedWarnings {
				t.Errorf("expected %d warnings, got %v", tc.expectedWarnings, outcome.Warnings)
			}
		})
	}
}

func TestService_ChangeRole(t *testing.T) {
	testCases := []struct {
		name         string
		caller       string
		target       string
		from         types.Role
		to           types.Role
		setupMocks   func(*serviceMocks)
		expectedKind types.ErrorKind
	}{
		{
			name:   "success",
			caller: "owner",
			target: "student-1",
			from:   types.RoleStudent,
			to:     types.RoleAdmin,
			setupMocks: func(m *serviceMocks) {
				m.runTx("ChangeRole")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
				m.storage.EXPECT().UpdateMember(gomock.Any(), "center-1", "student-1", types.RoleAdmin).Return(nil)
				m.storage.EXPECT().BumpTenantVersion(gomock.Any(), "center-1", int64(3)).Return(int64(4), nil)
				m.security.EXPECT().AdminAction("owner", "change_role", "center:center-1", "student-1")
				m.authz.EXPECT().MoveRole(gomock.Any(), "center-1", "student-1", types.RoleStudent, types.RoleAdmin).Return(nil)
			},
		},
		{
			name:   "authz mirror failure does not fail the change",
			caller: "owner",
			target: "ap-1",
			from:   types.RoleAdminPlus,
			to:     types.RoleStudent,
			setupMocks: func(m *serviceMocks) {
				m.runTx("ChangeRole")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
				m.storage.EXPECT().UpdateMember(gomock.Any(), "center-1", "ap-1", types.RoleStudent).Return(nil)
				m.storage.EXPECT().BumpTenantVersion(gomock.Any(), "center-1", int64(3)).Return(int64(4), nil)
				m.security.EXPECT().AdminAction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())
				m.authz.EXPECT().MoveRole(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("fga down"))
				m.logger.EXPECT().Warnf(gomock.Any(), gomock.Any())
			},
		},
		{
			name:   "caller is not the owner",
			caller: "ap-1",
			target: "student-1",
			from:   types.RoleStudent,
			to:     types.RoleAdmin,
			setupMocks: func(m *serviceMocks) {
				m.runTx("ChangeRole")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
				m.security.EXPECT().AuthzFailure("ap-1", "change_role:center:center-1")
			},
			expectedKind: types.KindForbidden,
		},
		{
			name:   "target is the owner",
			caller: "owner",
			target: "owner",
			from:   types.RoleAdmin,
			to:     types.RoleStudent,
			setupMocks: func(m *serviceMocks) {
				m.runTx("ChangeRole")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
			},
			expectedKind: types.KindInvalidTarget,
		},
		{
			name:   "promotion to owner",
			caller: "owner",
			target: "student-1",
			from:   types.RoleStudent,
			to:     types.RoleOwner,
			setupMocks: func(m *serviceMocks) {
				m.runTx("ChangeRole")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
			},
			expectedKind: types.KindInvalidTarget,
		},
		{
			name:   "same roles",
			caller: "owner",
			target: "student-1",
			from:   types.RoleStudent,
			to:     types.RoleStudent,
			setupMocks: func(m *serviceMocks) {
				m.runTx("ChangeRole")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
			},
			expectedKind: types.KindNoOp,
		},
		{
			name:   "target already holds the new role",
			caller: "owner",
			target: "admin-1",
			from:   types.RoleStudent,
			to:     types.RoleAdmin,
			setupMocks: func(m *serviceMocks) {
				m.runTx("ChangeRole")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
			},
			expectedKind: types.KindNoOp,
		},
		{
			name:   "stale from role",
			caller: "owner",
			target: "admin-1",
			from:   types.RoleStudent,
			to:     types.RoleAdminPlus,
			setupMocks: func(m *serviceMocks) {
				m.runTx("ChangeRole")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
			},
			expectedKind: types.KindStaleRole,
		},
		{
			name:   "target is not a member",
			caller: "owner",
			target: "stranger",
			from:   types.RoleStudent,
			to:     types.RoleAdmin,
			setupMocks: func(m *serviceMocks) {
				m.runTx("ChangeRole")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
			},
			expectedKind: types.KindNotAMember,
		},
		{
			name:   "unknown center",
			caller: "owner",
			target: "student-1",
			from:   types.RoleStudent,
			to:     types.RoleAdmin,
			setupMocks: func(m *serviceMocks) {
				m.runTx("ChangeRole")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(nil, storage.ErrNotFound)
			},
			expectedKind: types.KindNotFound,
		},
		{
			name:         "unknown role",
			caller:       "owner",
			target:       "student-1",
			from:         types.Role("guest"),
			to:           types.RoleAdmin,
			setupMocks:   func(*serviceMocks) {},
			expectedKind: types.KindInvalidArgument,
		},
		{
			name:   "deadline exceeded",
			caller: "owner",
			target: "student-1",
			from:   types.RoleStudent,
			to:     types.RoleAdmin,
			setupMocks: func(m *serviceMocks) {
				m.tx.EXPECT().Run(gomock.Any(), "ChangeRole", gomock.Any()).
					Return(fmt.Errorf("ChangeRole: %w: %w", transaction.ErrTimeout, context.DeadlineExceeded))
				m.logger.EXPECT().Errorf(gomock.Any(), gomock.Any())
			},
			expectedKind: types.KindTimeout,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := newServiceMocks(ctrl)
			tc.setupMocks(m)

			outcome, err := m.service().ChangeRole(context.Background(), tc.caller, "center-1", tc.target, tc.from, tc.to)

			if tc.expectedKind != "" {
				if types.KindOf(err) != tc.expectedKind {
					t.Fatalf("expected kind %s, got %v", tc.expectedKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if outcome.Change.From != tc.from || outcome.Change.To != tc.to || outcome.Change.Version != 4 {
				t.Errorf("unexpected change %+v", outcome.Change)
			}
		})
	}
}

func TestService_RemoveMember(t *testing.T) {
	testCases := []struct {
		name         string
		caller       string
		target       string
		role         types.Role
		setupMocks   func(*serviceMocks)
		expectedKind types.ErrorKind
	}{
		{
			name:   "success",
			caller: "owner",
			target: "admin-1",
			role:   types.RoleAdmin,
			setupMocks: func(m *serviceMocks) {
				m.runTx("RemoveMember")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
				m.storage.EXPECT().RemoveMember(gomock.Any(), "center-1", "admin-1").Return(nil)
				m.storage.EXPECT().RemoveUserTenant(gomock.Any(), "admin-1", "center-1").Return(nil)
				m.storage.EXPECT().BumpTenantVersion(gomock.Any(), "center-1", int64(3)).Return(int64(4), nil)
				m.security.EXPECT().AdminAction("owner", "remove_member", "center:center-1", "admin-1")
				m.authz.EXPECT().RemoveRole(gomock.Any(), "center-1", "admin-1", types.RoleAdmin).Return(nil)
			},
		},
		{
			name:   "any role when none is given",
			caller: "owner",
			target: "ap-1",
			role:   "",
			setupMocks: func(m *serviceMocks) {
				m.runTx("RemoveMember")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
				m.storage.EXPECT().RemoveMember(gomock.Any(), "center-1", "ap-1").Return(nil)
				m.storage.EXPECT().RemoveUserTenant(gomock.Any(), "ap-1", "center-1").Return(nil)
				m.storage.EXPECT().BumpTenantVersion(gomock.Any(), "center-1", int64(3)).Return(int64(4), nil)
				m.security.EXPECT().AdminAction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())
				m.authz.EXPECT().RemoveRole(gomock.Any(), "center-1", "ap-1", types.RoleAdminPlus).Return(nil)
			},
		},
		{
			name:   "caller is not the owner",
			caller: "admin-1",
			target: "student-1",
			role:   types.RoleStudent,
			setupMocks: func(m *serviceMocks) {
				m.runTx("RemoveMember")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
				m.security.EXPECT().AuthzFailure("admin-1", "remove_member:center:center-1")
			},
			expectedKind: types.KindForbidden,
		},
		{
			name:   "target is the owner",
			caller: "owner",
			target: "owner",
			role:   types.RoleOwner,
			setupMocks: func(m *serviceMocks) {
				m.runTx("RemoveMember")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
			},
			expectedKind: types.KindInvalidTarget,
		},
		{
			name:   "stale role",
			caller: "owner",
			target: "student-1",
			role:   types.RoleAdmin,
			setupMocks: func(m *serviceMocks) {
				m.runTx("RemoveMember")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
			},
			expectedKind: types.KindStaleRole,
		},
		{
			name:   "target is not a member",
			caller: "owner",
			target: "stranger",
			role:   types.RoleStudent,
			setupMocks: func(m *serviceMocks) {
				m.runTx("RemoveMember")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
			},
			expectedKind: types.KindNotAMember,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := newServiceMocks(ctrl)
			tc.setupMocks(m)

			outcome, err := m.service().RemoveMember(context.Background(), tc.caller, "center-1", tc.target, tc.role)

			if tc.expectedKind != "" {
				if types.KindOf(err) != tc.expectedKind {
					t.Fatalf("expected kind %s, got %v", tc.expectedKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if outcome.Change.Kind != ChangeRemoved || outcome.Change.To != "" || outcome.Change.From == "" {
				t.Errorf("unexpected change %+v", outcome.Change)
			}
		})
	}
}

func TestService_LeaveTenant(t *testing.T) {
	testCases := []struct {
		name         string
		caller       string
		setupMocks   func(*serviceMocks)
		expectedKind types.ErrorKind
	}{
		{
			name:   "success",
			caller: "student-1",
			setupMocks: func(m *serviceMocks) {
				m.runTx("LeaveTenant")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
				m.storage.EXPECT().RemoveMember(gomock.Any(), "center-1", "student-1").Return(nil)
				m.storage.EXPECT().RemoveUserTenant(gomock.Any(), "student-1", "center-1").Return(nil)
				m.storage.EXPECT().BumpTenantVersion(gomock.Any(), "center-1", int64(3)).Return(int64(4), nil)
				m.authz.EXPECT().RemoveRole(gomock.Any(), "center-1", "student-1", types.RoleStudent).Return(nil)
			},
		},
		{
			name:   "owner cannot leave",
			caller: "owner",
			setupMocks: func(m *serviceMocks) {
				m.runTx("LeaveTenant")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
			},
			expectedKind: types.KindOwnerCannotLeave,
		},
		{
			name:   "not a member",
			caller: "stranger",
			setupMocks: func(m *serviceMocks) {
				m.runTx("LeaveTenant")
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
			},
			expectedKind: types.KindNotAMember,
		},
		{
			name:   "membership row vanished mid attempt",
			caller: "student-1",
			setupMocks: func(m *serviceMocks) {
				m.tx.EXPECT().Run(gomock.Any(), "LeaveTenant", gomock.Any()).DoAndReturn(
					func(ctx context.Context, _ string, fn func(context.Context) error) error {
						err := fn(ctx)
						if !storage.IsConflict(err) {
							return fmt.Errorf("expected a conflict, got %v", err)
						}
						return fmt.Errorf("LeaveTenant failed after 1 attempts: %w: %w", transaction.ErrContention, err)
					},
				)
				m.storage.EXPECT().GetTenantByID(gomock.Any(), "center-1").Return(testTenant(), nil)
				m.storage.EXPECT().RemoveMember(gomock.Any(), "center-1", "student-1").Return(storage.ErrNotFound)
				m.logger.EXPECT().Errorf(gomock.Any(), gomock.Any())
			},
			expectedKind: types.KindContention,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := newServiceMocks(ctrl)
			tc.setupMocks(m)

			outcome, err := m.service().LeaveTenant(context.Background(), tc.caller, "center-1")

			if tc.expectedKind != "" {
				if types.KindOf(err) != tc.expectedKind {
					t.Fatalf("expected kind %s, got %v", tc.expectedKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if outcome.Change.Kind != ChangeLeft || outcome.Change.From != types.RoleStudent {
				t.Errorf("unexpected change %+v", outcome.Change)
			}
		})
	}
}
