// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"net/http"

	"github.com/canonical/center-service/internal/i18n"
	"github.com/canonical/center-service/internal/types"
)

// Response is the envelope every API endpoint answers with
type Response struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	ErrorKind types.ErrorKind `json:"error_kind,omitempty"`
	Data      interface{}     `json:"data,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
	Status    int             `json:"status"`
}

var kindStatus = map[types.ErrorKind]int{
	types.KindAuth:             http.StatusUnauthorized,
	types.KindForbidden:        http.StatusForbidden,
	types.KindInvalidCode:      http.StatusNotFound,
	types.KindNotFound:         http.StatusNotFound,
	types.KindNotAMember:       http.StatusNotFound,
	types.KindAlreadyMember:    http.StatusConflict,
	types.KindNoOp:             http.StatusConflict,
	types.KindStaleRole:        http.StatusConflict,
	types.KindContention:       http.StatusConflict,
	types.KindOwnerCannotLeave: http.StatusUnprocessableEntity,
	types.KindInvalidTarget:    http.StatusUnprocessableEntity,
	types.KindInvalidArgument:  http.StatusBadRequest,
	types.KindTimeout:          http.StatusGatewayTimeout,
	types.KindStoreUnavailable: http.StatusServiceUnavailable,
}

// StatusFromKind maps an error kind onto its HTTP status, unknown kinds are
// internal errors
func StatusFromKind(kind types.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}

	return http.StatusInternalServerError
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a localized success envelope, messageKey is looked up in
// the catalog for the request language
func WriteSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}, warnings []string, messageKey string, args ...any) error {
	tag := i18n.ResolveTag(r)

	localized := make([]string, 0, len(warnings))
	for _, key := range warnings {
		localized = append(localized, i18n.Message(tag, key))
	}

	return WriteJSON(w, status, Response{
		Success:  true,
		Message:  i18n.Message(tag, messageKey, args...),
		Data:     data,
		Warnings: localized,
		Status:   status,
	})
}

// WriteError writes the envelope for a failed operation, the message is the
// localized text of the error kind
func WriteError(w http.ResponseWriter, r *http.Request, err error) error {
	kind := types.KindOf(err)
	status := StatusFromKind(kind)

	return WriteJSON(w, status, Response{
		Success:   false,
		Message:   i18n.Message(i18n.ResolveTag(r), string(kind)),
		ErrorKind: kind,
		Status:    status,
	})
}
