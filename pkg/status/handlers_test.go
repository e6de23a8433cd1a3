// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/center-service/internal/version"
)

//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func TestAliveOK(t *testing.T) {
	testCases := []struct {
		name           string
		dbErr          error
		expectedStatus int
		expectedValue  string
	}{
		{
			name:           "all dependencies reachable",
			expectedStatus: http.StatusOK,
			expectedValue:  "ok",
		},
		{
			name:           "database down",
			dbErr:          errors.New("connection refused"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedValue:  "degraded",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockLogger := NewMockLoggerInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			mockTracer.EXPECT().Start(gomock.Any(), "status.API.alive").
				Return(context.Background(), trace.SpanFromContext(context.Background()))

			availability := 1.0
			if tc.dbErr != nil {
				availability = 0
				mockLogger.EXPECT().Warnf(gomock.Any(), gomock.Any())
			}
			mockMonitor.EXPECT().SetDependencyAvailability(map[string]string{"component": "database"}, availability).Return(nil)

			pingers := map[string]PingerInterface{
				"database": PingFunc(func(context.Context) error { return tc.dbErr }),
			}

			mux := chi.NewMux()
			NewAPI(pingers, mockTracer, mockMonitor, mockLogger).RegisterEndpoints(mux)

			req := httptest.NewRequest(http.MethodGet, "/api/v0/status", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			if res.StatusCode != tc.expectedStatus {
				t.Fatalf("expected HTTP status code %d got %v", tc.expectedStatus, res.StatusCode)
			}

			receivedStatus := new(Status)
			if err := json.NewDecoder(res.Body).Decode(receivedStatus); err != nil {
				t.Fatalf("expected error to be nil got %v", err)
			}

			if receivedStatus.Status != tc.expectedValue {
				t.Errorf("expected status %q, got %q", tc.expectedValue, receivedStatus.Status)
			}
			if receivedStatus.BuildInfo == nil || receivedStatus.BuildInfo.Version != version.Version {
				t.Errorf("expected version %s, got %+v", version.Version, receivedStatus.BuildInfo)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLogger := NewMockLoggerInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), "status.API.version").
		Return(context.Background(), trace.SpanFromContext(context.Background()))

	mux := chi.NewMux()
	NewAPI(nil, mockTracer, mockMonitor, mockLogger).RegisterEndpoints(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/version", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected HTTP status code 200 got %v", res.StatusCode)
	}

	info := new(BuildInfo)
	if err := json.NewDecoder(res.Body).Decode(info); err != nil {
		t.Fatalf("expected error to be nil got %v", err)
	}

	if info.Version != version.Version {
		t.Errorf("expected version %s, got %s", version.Version, info.Version)
	}
}
