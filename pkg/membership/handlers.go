// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	httpTypes "github.com/canonical/center-service/internal/http/types"
	"github.com/canonical/center-service/internal/i18n"
	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/tracing"
	"github.com/canonical/center-service/internal/types"
	"github.com/canonical/center-service/pkg/authentication"
)

const defaultTimeout = 10 * time.Second

type createTenantRequest struct {
	TenantAttributes
	NationalID string `json:"national_id" validate:"omitempty,max=32"`
}

type redeemRequest struct {
	Code       string `json:"code" validate:"required,max=64"`
	FirstName  string `json:"first_name" validate:"max=100"`
	LastName   string `json:"last_name" validate:"max=100"`
	NationalID string `json:"national_id" validate:"max=32"`
	Course     string `json:"course" validate:"max=64"`
}

type changeRoleRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

type API struct {
	service  ServiceInterface
	validate *validator.Validate
	timeout  time.Duration

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Post("/api/v0/centers", a.createTenant)
	mux.Get("/api/v0/centers", a.listUserTenants)
	mux.Get("/api/v0/centers/{id}/role", a.getRole)
	mux.Get("/api/v0/centers/{id}/members", a.listMembers)
	mux.Get("/api/v0/centers/{id}/invitation-codes", a.getInvitationCodes)
	mux.Put("/api/v0/centers/{id}/members/{user}/role", a.changeRole)
	mux.Delete("/api/v0/centers/{id}/members/{user}", a.removeMember)
	mux.Post("/api/v0/centers/{id}/leave", a.leaveTenant)
	mux.Get("/api/v0/invitations/{code}", a.previewInvitationCode)
	mux.Post("/api/v0/invitations/redeem", a.redeemInvitationCode)
}

// begin opens the span and applies the request deadline and language, it
// fails with AuthError when no caller was resolved
func (a *API) begin(r *http.Request, name string) (context.Context, func(), string, error) {
	ctx, span := a.tracer.Start(r.Context(), name)
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	ctx = i18n.WithTag(ctx, i18n.ResolveTag(r))

	done := func() {
		cancel()
		span.End()
	}

	caller, ok := authentication.GetUserID(ctx)
	if !ok || caller == "" {
		return ctx, done, "", types.ErrAuth
	}

	return ctx, done, caller, nil
}

func (a *API) createTenant(w http.ResponseWriter, r *http.Request) {
	ctx, done, caller, err := a.begin(r, "membership.API.createTenant")
	defer done()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	req := new(createTenantRequest)
	if err := a.decode(r, req); err != nil {
		a.writeError(w, r, err)
		return
	}

	outcome, err := a.service.CreateTenant(ctx, caller, req.TenantAttributes, req.NationalID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeSuccess(w, r, http.StatusCreated, outcome, outcome.Warnings, i18n.MsgCenterCreated, outcome.Tenant.Name)
}

func (a *API) redeemInvitationCode(w http.ResponseWriter, r *http.Request) {
	ctx, done, caller, err := a.begin(r, "membership.API.redeemInvitationCode")
	defer done()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	req := new(redeemRequest)
	if err := a.decode(r, req); err != nil {
		a.writeError(w, r, err)
		return
	}

	profile := types.Profile{
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		NationalID: strings.TrimSpace(req.NationalID),
		Course:     strings.TrimSpace(req.Course),
	}

	outcome, err := a.service.RedeemInvitationCode(ctx, caller, req.Code, profile)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeSuccess(w, r, http.StatusOK, outcome, outcome.Warnings, i18n.MsgJoinedCenter, outcome.Tenant.Name)
}

func (a *API) changeRole(w http.ResponseWriter, r *http.Request) {
	ctx, done, caller, err := a.begin(r, "membership.API.changeRole")
	defer done()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	req := new(changeRoleRequest)
	if err := a.decode(r, req); err != nil {
		a.writeError(w, r, err)
		return
	}

	from, err := types.ParseRole(req.From)
	if err != nil {
		a.writeError(w, r, types.WrapError(types.KindInvalidArgument, err, "invalid from role"))
		return
	}

	to, err := types.ParseRole(req.To)
	if err != nil {
		a.writeError(w, r, types.WrapError(types.KindInvalidArgument, err, "invalid to role"))
		return
	}

	outcome, err := a.service.ChangeRole(ctx, caller, chi.URLParam(r, "id"), chi.URLParam(r, "user"), from, to)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeSuccess(w, r, http.StatusOK, outcome.Change, outcome.Warnings, i18n.MsgRoleChanged)
}

func (a *API) removeMember(w http.ResponseWriter, r *http.Request) {
	ctx, done, caller, err := a.begin(r, "membership.API.removeMember")
	defer done()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var role types.Role
	if v := r.URL.Query().Get("role"); v != "" {
		if role, err = types.ParseRole(v); err != nil {
			a.writeError(w, r, types.WrapError(types.KindInvalidArgument, err, "invalid role"))
			return
		}
	}

	outcome, err := a.service.RemoveMember(ctx, caller, chi.URLParam(r, "id"), chi.URLParam(r, "user"), role)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeSuccess(w, r, http.StatusOK, outcome.Change, outcome.Warnings, i18n.MsgMemberRemoved)
}

func (a *API) leaveTenant(w http.ResponseWriter, r *http.Request) {
	ctx, done, caller, err := a.begin(r, "membership.API.leaveTenant")
	defer done()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	outcome, err := a.service.LeaveTenant(ctx, caller, chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeSuccess(w, r, http.StatusOK, outcome.Change, outcome.Warnings, i18n.MsgLeftCenter)
}

func (a *API) listUserTenants(w http.ResponseWriter, r *http.Request) {
	ctx, done, caller, err := a.begin(r, "membership.API.listUserTenants")
	defer done()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	tenants, err := a.service.ListUserTenants(ctx, caller)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeSuccess(w, r, http.StatusOK, tenants, nil, i18n.MsgOK)
}

func (a *API) getRole(w http.ResponseWriter, r *http.Request) {
	ctx, done, caller, err := a.begin(r, "membership.API.getRole")
	defer done()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	role, err := a.service.GetRole(ctx, chi.URLParam(r, "id"), caller)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeSuccess(w, r, http.StatusOK, map[string]types.Role{"role": role}, nil, i18n.MsgOK)
}

func (a *API) listMembers(w http.ResponseWriter, r *http.Request) {
	ctx, done, caller, err := a.begin(r, "membership.API.listMembers")
	defer done()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	members, err := a.service.ListMembers(ctx, caller, chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeSuccess(w, r, http.StatusOK, members, nil, i18n.MsgOK)
}

func (a *API) getInvitationCodes(w http.ResponseWriter, r *http.Request) {
	ctx, done, caller, err := a.begin(r, "membership.API.getInvitationCodes")
	defer done()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	codes, err := a.service.GetInvitationCodes(ctx, caller, chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeSuccess(w, r, http.StatusOK, codes, nil, i18n.MsgOK)
}

func (a *API) previewInvitationCode(w http.ResponseWriter, r *http.Request) {
	ctx, done, _, err := a.begin(r, "membership.API.previewInvitationCode")
	defer done()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	preview, err := a.service.PreviewInvitationCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeSuccess(w, r, http.StatusOK, preview, nil, i18n.MsgOK)
}

func (a *API) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return types.WrapError(types.KindInvalidArgument, err, "malformed request body")
	}

	if err := a.validate.Struct(v); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return types.NewError(types.KindInvalidArgument, "%s", strings.Join(msgs, "; "))
		}
		return types.WrapError(types.KindInvalidArgument, err, "invalid request")
	}

	return nil
}

func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s long", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

func (a *API) writeSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}, warnings []string, key string, args ...any) {
	if err := httpTypes.WriteSuccess(w, r, status, data, warnings, key, args...); err != nil {
		a.logger.Errorf("failed to encode response: %v", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if err := httpTypes.WriteError(w, r, err); err != nil {
		a.logger.Errorf("failed to encode response: %v", err)
	}
}

func NewAPI(service ServiceInterface, timeout time.Duration, tracer tracing.TracingInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.service = service
	a.validate = validator.New(validator.WithRequiredStructEnabled())
	a.timeout = timeout
	if a.timeout <= 0 {
		a.timeout = defaultTimeout
	}

	a.tracer = tracer
	a.logger = logger

	return a
}
