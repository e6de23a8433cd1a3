// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package queue

import (
	"github.com/hibiken/asynq"

	"github.com/canonical/center-service/internal/logging"
)

type HandlersRegistry struct {
	mux *asynq.ServeMux
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{
		mux: asynq.NewServeMux(),
	}
}

// NewServer builds the worker side of the queue, the logger satisfies asynq.Logger
func NewServer(cfg RedisConfig, concurrency int, logger logging.LoggerInterface) *asynq.Server {
	return asynq.NewServer(
		cfg.opt(),
		asynq.Config{
			Concurrency: concurrency,
			Logger:      logger,
		},
	)
}
