// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/canonical/center-service/internal/authorization"
	"github.com/canonical/center-service/internal/cache"
	"github.com/canonical/center-service/internal/codes"
	httpTypes "github.com/canonical/center-service/internal/http/types"
	"github.com/canonical/center-service/internal/identity"
	"github.com/canonical/center-service/internal/kratos"
	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/monitoring"
	"github.com/canonical/center-service/internal/openfga"
	"github.com/canonical/center-service/internal/storage/memory"
	"github.com/canonical/center-service/internal/tracing"
	"github.com/canonical/center-service/internal/transaction"
	"github.com/canonical/center-service/internal/types"
	"github.com/canonical/center-service/pkg/membership"
	"github.com/canonical/center-service/pkg/notifications"
	"github.com/canonical/center-service/pkg/webhooks"
)

func newTestRouter() http.Handler {
	logger := logging.NewNoopLogger()
	monitor := monitoring.NewNoopMonitor("center-service", logger)
	tracer := tracing.NewNoopTracer()

	store := memory.NewStore()
	runner := transaction.NewRunner(store, transaction.Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}, tracer, monitor, logger)
	notifier := notifications.NewService(store, tracer, monitor, logger)
	authz := authorization.NewAuthorizer(openfga.NewNoopClient(tracer, monitor, logger), tracer, monitor, logger)

	return NewRouter(
		Services{
			Membership: membership.NewService(
				store, runner, codes.NewGenerator(), cache.NewNoopCache(), authz, notifier, kratos.NewNoopClient(),
				tracer, monitor, logger,
			),
			Notifications:  notifier,
			Webhooks:       webhooks.NewService(store, tracer, monitor, logger),
			Authenticate:   identity.NewMiddleware(tracer, monitor, logger).HTTPMiddleware,
			RequestTimeout: time.Second,
		},
		tracer,
		monitor,
		logger,
	)
}

func TestRouter(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name           string
		method         string
		url            string
		body           string
		userID         string
		expectedStatus int
		expectedKind   types.ErrorKind
	}{
		{
			name:           "status",
			method:         http.MethodGet,
			url:            "/api/v0/status",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "metrics",
			method:         http.MethodGet,
			url:            "/metrics",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "centers without identity",
			method:         http.MethodGet,
			url:            "/api/v0/centers",
			expectedStatus: http.StatusUnauthorized,
			expectedKind:   types.KindAuth,
		},
		{
			name:           "create center",
			method:         http.MethodPost,
			url:            "/api/v0/centers",
			body:           `{"name":"Club X"}`,
			userID:         "u1",
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "redeem an unknown code",
			method:         http.MethodPost,
			url:            "/api/v0/invitations/redeem",
			body:           `{"code":"0123456789abcdef0123456789abcdef"}`,
			userID:         "u2",
			expectedStatus: http.StatusNotFound,
			expectedKind:   types.KindInvalidCode,
		},
		{
			name:           "notifications",
			method:         http.MethodGet,
			url:            "/api/v0/notifications",
			userID:         "u1",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.url, strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.url, nil)
			}
			if tt.userID != "" {
				req.Header.Set(identity.HeaderName, tt.userID)
			}

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}

			if tt.expectedKind == "" {
				return
			}

			var resp httpTypes.Response
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.ErrorKind != tt.expectedKind {
				t.Errorf("expected error kind %q, got %q", tt.expectedKind, resp.ErrorKind)
			}
		})
	}
}
