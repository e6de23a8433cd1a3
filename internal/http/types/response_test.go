// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/canonical/center-service/internal/types"
)

func TestStatusFromKind(t *testing.T) {
	tests := []struct {
		kind     types.ErrorKind
		expected int
	}{
		{types.KindAuth, http.StatusUnauthorized},
		{types.KindForbidden, http.StatusForbidden},
		{types.KindInvalidCode, http.StatusNotFound},
		{types.KindAlreadyMember, http.StatusConflict},
		{types.KindOwnerCannotLeave, http.StatusUnprocessableEntity},
		{types.KindInvalidArgument, http.StatusBadRequest},
		{types.KindTimeout, http.StatusGatewayTimeout},
		{types.KindStoreUnavailable, http.StatusServiceUnavailable},
		{types.ErrorKind("Unknown"), http.StatusInternalServerError},
	}

	for _, test := range tests {
		t.Run(string(test.kind), func(t *testing.T) {
			if got := StatusFromKind(test.kind); got != test.expected {
				t.Errorf("expected %d, got %d", test.expected, got)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		acceptLanguage string
		expectedStatus int
		expectedKind   types.ErrorKind
		expectedMsg    string
	}{
		{
			name:           "typed error in english",
			err:            types.ErrAlreadyMember,
			expectedStatus: http.StatusConflict,
			expectedKind:   types.KindAlreadyMember,
			expectedMsg:    "You are already a member of this center.",
		},
		{
			name:           "wrapped typed error in spanish",
			err:            fmt.Errorf("redeem: %w", types.ErrInvalidCode),
			acceptLanguage: "es-AR,es;q=0.9",
			expectedStatus: http.StatusNotFound,
			expectedKind:   types.KindInvalidCode,
			expectedMsg:    "Ese código de invitación no es válido.",
		},
		{
			name:           "untyped error",
			err:            errors.New("boom"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedKind:   types.KindStoreUnavailable,
			expectedMsg:    "The service is temporarily unavailable.",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if test.acceptLanguage != "" {
				req.Header.Set("Accept-Language", test.acceptLanguage)
			}
			rr := httptest.NewRecorder()

			if err := WriteError(rr, req, test.err); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if rr.Code != test.expectedStatus {
				t.Errorf("expected status %d, got %d", test.expectedStatus, rr.Code)
			}

			var resp Response
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if resp.Success {
				t.Error("expected success to be false")
			}
			if resp.ErrorKind != test.expectedKind {
				t.Errorf("expected kind %s, got %s", test.expectedKind, resp.ErrorKind)
			}
			if resp.Message != test.expectedMsg {
				t.Errorf("expected message %q, got %q", test.expectedMsg, resp.Message)
			}
		})
	}
}

func TestWriteSuccess(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/?lang=es", nil)
	rr := httptest.NewRecorder()

	err := WriteSuccess(rr, req, http.StatusCreated, map[string]string{"id": "c1"}, []string{"notification_warning"}, "center_created", "Norte")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rr.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}

	var resp Response
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !resp.Success {
		t.Error("expected success to be true")
	}
	if resp.Message != "Centro Norte creado." {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0] == "notification_warning" {
		t.Errorf("expected one localized warning, got %v", resp.Warnings)
	}
}
