// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package notifications

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/queue"
	"github.com/canonical/center-service/internal/tracing"
	"github.com/canonical/center-service/internal/types"
)

var _ NotifierInterface = (*QueueNotifier)(nil)

// QueueNotifier hands the fan-out over to the worker process
type QueueNotifier struct {
	client QueueClientInterface

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func (n *QueueNotifier) Notify(ctx context.Context, recipients []string, payload types.NotificationPayload) error {
	ctx, span := n.tracer.Start(ctx, "notifications.QueueNotifier.Notify")
	defer span.End()

	if len(recipients) == 0 {
		return nil
	}

	return n.client.EnqueueNotificationFanout(
		ctx,
		queue.NotificationFanoutPayload{Recipients: recipients, Notification: payload},
	)
}

func NewQueueNotifier(client QueueClientInterface, tracer tracing.TracingInterface, logger logging.LoggerInterface) *QueueNotifier {
	n := new(QueueNotifier)

	n.client = client
	n.tracer = tracer
	n.logger = logger

	return n
}

// Worker consumes fan-out tasks enqueued by QueueNotifier
type Worker struct {
	service ServiceInterface

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func (w *Worker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	ctx, span := w.tracer.Start(ctx, "notifications.Worker.ProcessTask")
	defer span.End()

	p, err := queue.ParseNotificationFanoutTask(t)
	if err != nil {
		w.logger.Errorf("dropping malformed %s task: %v", t.Type(), err)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	n, err := w.service.Fanout(ctx, p.Recipients, p.Notification)
	if err != nil {
		return err
	}

	w.logger.Debugf("delivered %d notifications", n)
	return nil
}

func NewWorker(service ServiceInterface, tracer tracing.TracingInterface, logger logging.LoggerInterface) *Worker {
	w := new(Worker)

	w.service = service
	w.tracer = tracer
	w.logger = logger

	return w
}
