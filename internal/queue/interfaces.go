// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package queue

import (
	"context"

	"github.com/hibiken/asynq"
)

// EnqueuerInterface is the subset of *asynq.Client used here
type EnqueuerInterface interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type ClientInterface interface {
	EnqueueNotificationFanout(ctx context.Context, p NotificationFanoutPayload) error
}
