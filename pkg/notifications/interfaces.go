// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package notifications

import (
	"context"

	"github.com/canonical/center-service/internal/queue"
	"github.com/canonical/center-service/internal/types"
)

// StorageInterface is the subset of internal/storage used by notifications
type StorageInterface interface {
	CreateNotifications(ctx context.Context, ns []*types.Notification) error
	ListNotifications(ctx context.Context, userID string, page, size int64) ([]*types.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	DeleteReadNotifications(ctx context.Context, userID string) (int64, error)
}

// NotifierInterface delivers one payload to a set of users, either in process
// or through the task queue
type NotifierInterface interface {
	Notify(ctx context.Context, recipients []string, payload types.NotificationPayload) error
}

type QueueClientInterface interface {
	EnqueueNotificationFanout(ctx context.Context, p queue.NotificationFanoutPayload) error
}

type ServiceInterface interface {
	Fanout(ctx context.Context, recipients []string, payload types.NotificationPayload) (int, error)
	List(ctx context.Context, userID string, page, size int64) ([]*types.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	DeleteRead(ctx context.Context, userID string) (int64, error)
}
