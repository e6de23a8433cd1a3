// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/center-service/internal/openfga"
	"github.com/canonical/center-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_logger.go -source=../logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_monitor.go -source=../monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_tracing.go -source=../tracing/interfaces.go

func TestAuthorizer_ValidateModel(t *testing.T) {
	clientErr := errors.New("client error")

	testCases := []struct {
		name        string
		setupMocks  func(*MockAuthzClientInterface)
		expectedErr error
	}{
		{
			name: "success - models match",
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().CompareModel(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			expectedErr: nil,
		},
		{
			name: "error - models do not match",
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().CompareModel(gomock.Any(), gomock.Any()).Return(false, nil)
			},
			expectedErr: ErrInvalidAuthModel,
		},
		{
			name: "error - client error",
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().CompareModel(gomock.Any(), gomock.Any()).Return(false, clientErr)
			},
			expectedErr: clientErr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := NewMockAuthzClientInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			a := NewAuthorizer(mockClient, mockTracer, mockMonitor, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "authorization.Authorizer.ValidateModel").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockClient)

			err := a.ValidateModel(context.Background())

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAuthorizer_AssignRole(t *testing.T) {
	tenantID := "center-1"
	userID := "user-1"

	testCases := []struct {
		name        string
		role        types.Role
		setupMocks  func(*MockAuthzClientInterface)
		expectedErr bool
	}{
		{
			name: "owner",
			role: types.RoleOwner,
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().WriteTuple(gomock.Any(), "user:user-1", OWNER_RELATION, "center:center-1").Return(nil)
			},
		},
		{
			name: "admin plus",
			role: types.RoleAdminPlus,
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().WriteTuple(gomock.Any(), "user:user-1", ADMIN_PLUS_RELATION, "center:center-1").Return(nil)
			},
		},
		{
			name: "client error",
			role: types.RoleStudent,
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().WriteTuple(gomock.Any(), "user:user-1", STUDENT_RELATION, "center:center-1").Return(errors.New("client error"))
			},
			expectedErr: true,
		},
		{
			name:        "unknown role",
			role:        types.Role("guest"),
			setupMocks:  func(*MockAuthzClientInterface) {},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := NewMockAuthzClientInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			a := NewAuthorizer(mockClient, mockTracer, mockMonitor, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "authorization.Authorizer.AssignRole").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockClient)

			err := a.AssignRole(context.Background(), tenantID, userID, tc.role)

			if tc.expectedErr && err == nil {
				t.Error("expected error but got none")
			} else if !tc.expectedErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAuthorizer_RemoveRole(t *testing.T) {
	testCases := []struct {
		name        string
		role        types.Role
		setupMocks  func(*MockAuthzClientInterface)
		expectedErr bool
	}{
		{
			name: "success",
			role: types.RoleAdmin,
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().DeleteTuple(gomock.Any(), "user:user-1", ADMIN_RELATION, "center:center-1").Return(nil)
			},
		},
		{
			name: "client error",
			role: types.RoleAdmin,
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().DeleteTuple(gomock.Any(), "user:user-1", ADMIN_RELATION, "center:center-1").Return(errors.New("client error"))
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := NewMockAuthzClientInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			a := NewAuthorizer(mockClient, mockTracer, mockMonitor, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "authorization.Authorizer.RemoveRole").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockClient)

			err := a.RemoveRole(context.Background(), "center-1", "user-1", tc.role)

			if tc.expectedErr && err == nil {
				t.Error("expected error but got none")
			} else if !tc.expectedErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAuthorizer_MoveRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockAuthzClientInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	a := NewAuthorizer(mockClient, mockTracer, mockMonitor, mockLogger)

	mockTracer.EXPECT().Start(gomock.Any(), "authorization.Authorizer.MoveRole").
		Return(context.Background(), trace.SpanFromContext(context.Background()))
	mockClient.EXPECT().ReplaceTuple(
		gomock.Any(),
		*openfga.NewTuple("user:user-1", STUDENT_RELATION, "center:center-1"),
		*openfga.NewTuple("user:user-1", ADMIN_RELATION, "center:center-1"),
	).Return(nil)

	if err := a.MoveRole(context.Background(), "center-1", "user-1", types.RoleStudent, types.RoleAdmin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuthorizationModelProvider(t *testing.T) {
	model := NewAuthorizationModelProvider("v0").GetModel()

	if model.SchemaVersion != "1.1" {
		t.Fatalf("expected schema 1.1, got %s", model.SchemaVersion)
	}

	found := false
	for _, td := range model.TypeDefinitions {
		if td.Type != "center" {
			continue
		}
		found = true

		for _, r := range []string{OWNER_RELATION, ADMIN_PLUS_RELATION, ADMIN_RELATION, STUDENT_RELATION, MEMBER_RELATION} {
			if _, ok := (*td.Relations)[r]; !ok {
				t.Errorf("center type misses relation %s", r)
			}
		}
	}

	if !found {
		t.Fatal("center type not found in model")
	}
}

func TestRoleRelation(t *testing.T) {
	if _, err := RoleRelation(types.Role("guest")); !errors.Is(err, types.ErrUnknownRole) {
		t.Fatalf("expected unknown role, got %v", err)
	}
}
