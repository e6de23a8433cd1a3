// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/tracing"
)

const (
	fanoutMaxRetry = 5
	fanoutTimeout  = 30 * time.Second
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) opt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	}
}

var _ ClientInterface = (*Client)(nil)

type Client struct {
	client EnqueuerInterface

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueNotificationFanout(ctx context.Context, p NotificationFanoutPayload) error {
	ctx, span := c.tracer.Start(ctx, "queue.Client.EnqueueNotificationFanout")
	defer span.End()

	task, err := NewNotificationFanoutTask(p)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task, asynq.MaxRetry(fanoutMaxRetry), asynq.Timeout(fanoutTimeout))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeNotificationFanout, err)
	}

	c.logger.Debugf("enqueued task %s for %d recipients", info.ID, len(p.Recipients))

	return nil
}

// NewClient wraps an enqueuer, use NewRedisEnqueuer for a real broker
func NewClient(enqueuer EnqueuerInterface, tracer tracing.TracingInterface, logger logging.LoggerInterface) *Client {
	c := new(Client)

	c.client = enqueuer

	c.tracer = tracer
	c.logger = logger

	return c
}

func NewRedisEnqueuer(cfg RedisConfig) *asynq.Client {
	return asynq.NewClient(cfg.opt())
}
