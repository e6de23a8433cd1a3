// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/monitoring/prometheus"
	"github.com/canonical/center-service/internal/queue"
	"github.com/canonical/center-service/internal/tracing"
	"github.com/canonical/center-service/pkg/notifications"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "worker processes queued notification fan-out tasks",
	Long:  `Run the task queue worker, required when ASYNC_NOTIFICATIONS is enabled on the server`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker()
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker() error {
	specs := loadSpecs()

	if specs.RedisAddr == "" {
		return fmt.Errorf("the worker requires REDIS_ADDR")
	}

	logger := logging.NewLogger(specs.LogLevel)
	defer logger.Sync()

	monitor := prometheus.NewMonitor(serviceName, logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, serviceName, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	s, _, _, closeStorage, err := openStorage(specs, tracer, monitor, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	service := notifications.NewService(s, tracer, monitor, logger)

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeNotificationFanout, notifications.NewWorker(service, tracer, logger))

	srv := queue.NewServer(
		queue.RedisConfig{Addr: specs.RedisAddr, Password: specs.RedisPassword, DB: specs.RedisDB},
		specs.WorkerConcurrency,
		logger,
	)

	logger.Infof("Starting worker with concurrency %d", specs.WorkerConcurrency)

	// Run blocks until SIGTERM or SIGINT
	if err := srv.Run(registry.Mux()); err != nil {
		return fmt.Errorf("worker error: %v", err)
	}

	return nil
}
