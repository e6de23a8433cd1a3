// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package notifications

import (
	"context"
	"errors"

	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/monitoring"
	"github.com/canonical/center-service/internal/storage"
	"github.com/canonical/center-service/internal/tracing"
	"github.com/canonical/center-service/internal/types"
)

var (
	_ ServiceInterface  = (*Service)(nil)
	_ NotifierInterface = (*Service)(nil)
)

var ErrNotificationNotFound = types.NewError(types.KindNotFound, "notification not found")

type Service struct {
	storage StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Fanout writes one unread notification per distinct recipient in a single
// batch, empty ids are dropped, it returns the number of records written
func (s *Service) Fanout(ctx context.Context, recipients []string, payload types.NotificationPayload) (int, error) {
	ctx, span := s.tracer.Start(ctx, "notifications.Service.Fanout")
	defer span.End()

	seen := make(map[string]struct{}, len(recipients))
	batch := make([]*types.Notification, 0, len(recipients))

	for _, userID := range recipients {
		if userID == "" {
			continue
		}
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}

		batch = append(batch, &types.Notification{
			UserID:  userID,
			Title:   payload.Title,
			Message: payload.Message,
			Link:    payload.Link,
		})
	}

	if len(batch) == 0 {
		return 0, nil
	}

	if err := s.storage.CreateNotifications(ctx, batch); err != nil {
		s.logger.Errorf("failed to write %d notifications: %v", len(batch), err)
		return 0, types.WrapError(types.KindStoreUnavailable, err, "failed to write notifications")
	}

	return len(batch), nil
}

// Notify makes the service usable as the in process notifier
func (s *Service) Notify(ctx context.Context, recipients []string, payload types.NotificationPayload) error {
	_, err := s.Fanout(ctx, recipients, payload)
	return err
}

func (s *Service) List(ctx context.Context, userID string, page, size int64) ([]*types.Notification, error) {
	ctx, span := s.tracer.Start(ctx, "notifications.Service.List")
	defer span.End()

	ns, err := s.storage.ListNotifications(ctx, userID, page, size)
	if err != nil {
		return nil, types.WrapError(types.KindStoreUnavailable, err, "failed to list notifications")
	}

	return ns, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "notifications.Service.MarkRead")
	defer span.End()

	err := s.storage.MarkNotificationRead(ctx, userID, id)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotificationNotFound
	default:
		return types.WrapError(types.KindStoreUnavailable, err, "failed to mark notification %s read", id)
	}
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "notifications.Service.MarkAllRead")
	defer span.End()

	n, err := s.storage.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, types.WrapError(types.KindStoreUnavailable, err, "failed to mark notifications read")
	}

	return n, nil
}

func (s *Service) DeleteRead(ctx context.Context, userID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "notifications.Service.DeleteRead")
	defer span.End()

	n, err := s.storage.DeleteReadNotifications(ctx, userID)
	if err != nil {
		return 0, types.WrapError(types.KindStoreUnavailable, err, "failed to delete read notifications")
	}

	return n, nil
}

func NewService(storage StorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	s := new(Service)

	s.storage = storage

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
