// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	httpTypes "github.com/canonical/center-service/internal/http/types"
	"github.com/canonical/center-service/internal/types"
	"github.com/canonical/center-service/pkg/authentication"
)

func withUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				r = r.WithContext(authentication.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func TestAPI_Endpoints(t *testing.T) {
	tests := []struct {
		name             string
		method           string
		url              string
		body             string
		userID           string
		language         string
		setupMocks       func(*MockServiceInterface, *MockLoggerInterface)
		expectedStatus   int
		expectedKind     types.ErrorKind
		expectedMessage  string
		expectedWarnings []string
	}{
		{
			name:   "create center",
			method: http.MethodPost,
			url:    "/api/v0/centers",
			body:   `{"name":"Club X","courses":["1A"],"national_id":"30111222"}`,
			userID: "owner",
			setupMocks: func(mockService *MockServiceInterface, _ *MockLoggerInterface) {
				mockService.EXPECT().CreateTenant(gomock.Any(), "owner", gomock.Any(), "30111222").Return(&Outcome{
					Change: Change{Kind: ChangeCreated, TenantID: "center-1", UserID: "owner", To: types.RoleOwner},
					Tenant: &types.Tenant{ID: "center-1", Name: "Club X"},
				}, nil)
			},
			expectedStatus:  http.StatusCreated,
			expectedMessage: "Center Club X created.",
		},
		{
			name:           "create center with malformed body",
			method:         http.MethodPost,
			url:            "/api/v0/centers",
			body:           `{"name":`,
			userID:         "owner",
			setupMocks:     func(*MockServiceInterface, *MockLoggerInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   types.KindInvalidArgument,
		},
		{
			name:           "create center without caller",
			method:         http.MethodPost,
			url:            "/api/v0/centers",
			body:           `{"name":"Club X"}`,
			setupMocks:     func(*MockServiceInterface, *MockLoggerInterface) {},
			expectedStatus: http.StatusUnauthorized,
			expectedKind:   types.KindAuth,
		},
		{
			name:     "redeem with a failed notification",
			method:   http.MethodPost,
			url:      "/api/v0/invitations/redeem",
			body:     `{"code":"abc","first_name":" Ana "}`,
			userID:   "user-2",
			language: "es",
			setupMocks: func(mockService *MockServiceInterface, _ *MockLoggerInterface) {
				mockService.EXPECT().RedeemInvitationCode(gomock.Any(), "user-2", "abc", types.Profile{FirstName: "Ana"}).Return(&Outcome{
					Change:   Change{Kind: ChangeJoined, TenantID: "center-1", UserID: "user-2", To: types.RoleStudent},
					Tenant:   &types.Tenant{ID: "center-1", Name: "Club X"},
					Warnings: []string{WarningNotification},
				}, nil)
			},
			expectedStatus:   http.StatusOK,
			expectedMessage:  "Te uniste a Club X.",
			expectedWarnings: []string{"El cambio se guardó pero algunas notificaciones no pudieron enviarse."},
		},
		{
			name:           "redeem without code",
			method:         http.MethodPost,
			url:            "/api/v0/invitations/redeem",
			body:           `{"first_name":"Ana"}`,
			userID:         "user-2",
			setupMocks:     func(*MockServiceInterface, *MockLoggerInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   types.KindInvalidArgument,
		},
		{
			name:   "redeem an unknown code",
			method: http.MethodPost,
			url:    "/api/v0/invitations/redeem",
			body:   `{"code":"nope"}`,
			userID: "user-2",
			setupMocks: func(mockService *MockServiceInterface, _ *MockLoggerInterface) {
				mockService.EXPECT().RedeemInvitationCode(gomock.Any(), "user-2", "nope", types.Profile{}).Return(nil, types.ErrInvalidCode)
			},
			expectedStatus: http.StatusNotFound,
			expectedKind:   types.KindInvalidCode,
		},
		{
			name:   "change role with snake case role",
			method: http.MethodPut,
			url:    "/api/v0/centers/center-1/members/user-2/role",
			body:   `{"from":"student","to":"admin_plus"}`,
			userID: "owner",
			setupMocks: func(mockService *MockServiceInterface, _ *MockLoggerInterface) {
				mockService.EXPECT().ChangeRole(gomock.Any(), "owner", "center-1", "user-2", types.RoleStudent, types.RoleAdminPlus).
					Return(&Outcome{Change: Change{Kind: ChangeMoved, From: types.RoleStudent, To: types.RoleAdminPlus}}, nil)
			},
			expectedStatus:  http.StatusOK,
			expectedMessage: "Role updated.",
		},
		{
			name:           "change role to an unknown role",
			method:         http.MethodPut,
			url:            "/api/v0/centers/center-1/members/user-2/role",
			body:           `{"from":"student","to":"janitor"}`,
			userID:         "owner",
			setupMocks:     func(*MockServiceInterface, *MockLoggerInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   types.KindInvalidArgument,
		},
		{
			name:   "change role by a non owner",
			method: http.MethodPut,
			url:    "/api/v0/centers/center-1/members/user-2/role",
			body:   `{"from":"student","to":"admin"}`,
			userID: "user-3",
			setupMocks: func(mockService *MockServiceInterface, _ *MockLoggerInterface) {
				mockService.EXPECT().ChangeRole(gomock.Any(), "user-3", "center-1", "user-2", types.RoleStudent, types.RoleAdmin).
					Return(nil, types.ErrForbidden)
			},
			expectedStatus: http.StatusForbidden,
			expectedKind:   types.KindForbidden,
		},
		{
			name:   "remove member with expected role",
			method: http.MethodDelete,
			url:    "/api/v0/centers/center-1/members/user-2?role=admin",
			userID: "owner",
			setupMocks: func(mockService *MockServiceInterface, _ *MockLoggerInterface) {
				mockService.EXPECT().RemoveMember(gomock.Any(), "owner", "center-1", "user-2", types.RoleAdmin).
					Return(&Outcome{Change: Change{Kind: ChangeRemoved, From: types.RoleAdmin}}, nil)
			},
			expectedStatus:  http.StatusOK,
			expectedMessage: "Member removed.",
		},
		{
			name:   "remove member with stale role",
			method: http.MethodDelete,
			url:    "/api/v0/centers/center-1/members/user-2?role=student",
			userID: "owner",
			setupMocks: func(mockService *MockServiceInterface, _ *MockLoggerInterface) {
				mockService.EXPECT().RemoveMember(gomock.Any(), "owner", "center-1", "user-2", types.RoleStudent).
					Return(nil, types.NewError(types.KindStaleRole, "user-2 holds admin"))
			},
			expectedStatus: http.StatusConflict,
			expectedKind:   types.KindStaleRole,
		},
		{
			name:   "owner leaving",
			method: http.MethodPost,
			url:    "/api/v0/centers/center-1/leave",
			userID: "owner",
			setupMocks: func(mockService *MockServiceInterface, _ *MockLoggerInterface) {
				mockService.EXPECT().LeaveTenant(gomock.Any(), "owner", "center-1").Return(nil, types.ErrOwnerCannotLeave)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedKind:   types.KindOwnerCannotLeave,
		},
		{
			name:   "leave under contention",
			method: http.MethodPost,
			url:    "/api/v0/centers/center-1/leave",
			userID: "user-2",
			setupMocks: func(mockService *MockServiceInterface, _ *MockLoggerInterface) {
				mockService.EXPECT().LeaveTenant(gomock.Any(), "user-2", "center-1").Return(nil, types.ErrContention)
			},
			expectedStatus: http.StatusConflict,
			expectedKind:   types.KindContention,
		},
		{
			name:   "list caller centers",
			method: http.MethodGet,
			url:    "/api/v0/centers",
			userID: "user-2",
			setupMocks: func(mockService *MockServiceInterface, _ *MockLoggerInterface) {
				mockService.EXPECT().ListUserTenants(gomock.Any(), "user-2").Return([]*types.Tenant{{ID: "center-1"}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "get role of a non member",
			method: http.MethodGet,
			url:    "/api/v0/centers/center-1/role",
			userID: "user-2",
			setupMocks: func(mockService *MockServiceInterface, _ *MockLoggerInterface) {
				mockService.EXPECT().GetRole(gomock.Any(), "center-1", "user-2").Return(types.Role(""), types.ErrNotAMember)
			},
			expectedStatus: http.StatusNotFound,
			expectedKind:   types.KindNotAMember,
		},
		{
			name:   "list members",
			method: http.MethodGet,
			url:    "/api/v0/centers/center-1/members",
			userID: "user-2",
			setupMocks: func(mockService *MockServiceInterface, _ *MockLoggerInterface) {
				mockService.EXPECT().ListMembers(gomock.Any(), "user-2", "center-1").Return([]*types.Member{{UserID: "owner", Role: types.RoleOwner}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "invitation codes with store down",
			method: http.MethodGet,
			url:    "/api/v0/centers/center-1/invitation-codes",
			userID: "user-2",
			setupMocks: func(mockService *MockServiceInterface, _ *MockLoggerInterface) {
				mockService.EXPECT().GetInvitationCodes(gomock.Any(), "user-2", "center-1").Return(nil, types.ErrStoreUnavailable)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedKind:   types.KindStoreUnavailable,
		},
		{
			name:   "preview code",
			method: http.MethodGet,
			url:    "/api/v0/invitations/abc",
			userID: "user-2",
			setupMocks: func(mockService *MockServiceInterface, _ *MockLoggerInterface) {
				mockService.EXPECT().PreviewInvitationCode(gomock.Any(), "abc").
					Return(&types.CodePreview{TenantID: "center-1", Name: "Club X", Role: types.RoleStudent}, nil)
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockServiceInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
				func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
					return ctx, trace.SpanFromContext(ctx)
				},
			)
			tt.setupMocks(mockService, mockLogger)

			router := chi.NewRouter()
			router.Use(withUser(tt.userID))
			NewAPI(mockService, time.Second, mockTracer, mockLogger).RegisterEndpoints(router)

			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}

			req := httptest.NewRequest(tt.method, tt.url, body)
			if tt.language != "" {
				req.Header.Set("Accept-Language", tt.language)
			}
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rr.Code)
			}

			var resp httpTypes.Response
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if resp.ErrorKind != tt.expectedKind {
				t.Errorf("expected error kind %q, got %q", tt.expectedKind, resp.ErrorKind)
			}
			if resp.Success != (tt.expectedKind == "") {
				t.Errorf("unexpected success flag %v", resp.Success)
			}
			if tt.expectedMessage != "" && resp.Message != tt.expectedMessage {
				t.Errorf("expected message %q, got %q", tt.expectedMessage, resp.Message)
			}
			if len(resp.Warnings) != len(tt.expectedWarnings) {
				t.Fatalf("expected warnings %v, got %v", tt.expectedWarnings, resp.Warnings)
			}
			for i := range tt.expectedWarnings {
				if resp.Warnings[i] != tt.expectedWarnings[i] {
					t.Errorf("expected warning %q, got %q", tt.expectedWarnings[i], resp.Warnings[i])
				}
			}
		})
	}
}
