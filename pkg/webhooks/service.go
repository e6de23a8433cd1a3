// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"fmt"

	"github.com/ory/hydra/v2/oauth2"

	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/monitoring"
	"github.com/canonical/center-service/internal/tracing"
	"github.com/canonical/center-service/internal/types"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// HandleRegistration records the freshly registered identity as a user, so
// that profile and email are known before the first center is joined
func (s *Service) HandleRegistration(ctx context.Context, identityID, email string) error {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleRegistration")
	defer span.End()

	s.logger.Debugf("Handling registration for identity %s", identityID)

	if identityID == "" {
		return fmt.Errorf("identity ID is empty")
	}

	if err := s.storage.UpsertUser(ctx, &types.User{ID: identityID, Email: email}); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	s.logger.Infof("Registered user %s", identityID)
	return nil
}

// HandleTokenHook adds the centers of the subject to the ID and access tokens
func (s *Service) HandleTokenHook(ctx context.Context, req *oauth2.TokenHookRequest) (*TokenHookResponse, error) {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleTokenHook")
	defer span.End()

	if req == nil || req.Session == nil || req.Session.DefaultSession == nil || req.Session.DefaultSession.Subject == "" {
		s.logger.Debugf("Token hook called without a subject")
		return nil, fmt.Errorf("no subject in token hook session")
	}

	userID := req.Session.DefaultSession.Subject
	s.logger.Debugf("Handling token hook for user %s", userID)

	tenants, err := s.storage.ListTenantsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list centers of %s: %w", userID, err)
	}

	resp := &TokenHookResponse{
		Session: TokenHookSession{
			IDToken:     map[string]interface{}{},
			AccessToken: map[string]interface{}{},
		},
	}

	if len(tenants) == 0 {
		return resp, nil
	}

	ids := make([]string, 0, len(tenants))
	for _, t := range tenants {
		ids = append(ids, t.ID)
	}

	resp.Session.IDToken[CentersClaim] = ids
	resp.Session.AccessToken[CentersClaim] = ids

	return resp, nil
}

func NewService(
	storage StorageInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
