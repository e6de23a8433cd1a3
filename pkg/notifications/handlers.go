// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package notifications

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	httpTypes "github.com/canonical/center-service/internal/http/types"
	"github.com/canonical/center-service/internal/i18n"
	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/tracing"
	"github.com/canonical/center-service/internal/types"
	"github.com/canonical/center-service/pkg/authentication"
)

type API struct {
	service ServiceInterface

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v0/notifications", a.list)
	mux.Post("/api/v0/notifications/read", a.markAllRead)
	mux.Delete("/api/v0/notifications/read", a.deleteRead)
	mux.Post("/api/v0/notifications/{id}/read", a.markRead)
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "notifications.API.list")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok || userID == "" {
		a.writeError(w, r, types.ErrAuth)
		return
	}

	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	size, _ := strconv.ParseInt(r.URL.Query().Get("size"), 10, 64)

	ns, err := a.service.List(ctx, userID, page, size)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeSuccess(w, r, ns, i18n.MsgOK)
}

func (a *API) markRead(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "notifications.API.markRead")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok || userID == "" {
		a.writeError(w, r, types.ErrAuth)
		return
	}

	if err := a.service.MarkRead(ctx, userID, chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeSuccess(w, r, nil, i18n.MsgNotificationsUpdated)
}

func (a *API) markAllRead(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "notifications.API.markAllRead")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok || userID == "" {
		a.writeError(w, r, types.ErrAuth)
		return
	}

	n, err := a.service.MarkAllRead(ctx, userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeSuccess(w, r, map[string]int64{"updated": n}, i18n.MsgNotificationsUpdated)
}

func (a *API) deleteRead(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "notifications.API.deleteRead")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok || userID == "" {
		a.writeError(w, r, types.ErrAuth)
		return
	}

	n, err := a.service.DeleteRead(ctx, userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeSuccess(w, r, map[string]int64{"deleted": n}, i18n.MsgNotificationsUpdated)
}

func (a *API) writeSuccess(w http.ResponseWriter, r *http.Request, data interface{}, key string) {
	if err := httpTypes.WriteSuccess(w, r, http.StatusOK, data, nil, key); err != nil {
		a.logger.Errorf("failed to encode response: %v", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if types.KindOf(err) == types.KindStoreUnavailable {
		a.logger.Errorf("notifications request failed: %v", err)
	}

	if err := httpTypes.WriteError(w, r, err); err != nil {
		a.logger.Errorf("failed to encode response: %v", err)
	}
}

func NewAPI(service ServiceInterface, tracer tracing.TracingInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.service = service
	a.tracer = tracer
	a.logger = logger

	return a
}
