// Copyright 2025 Canonical Ltd
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/canonical/center-service/internal/i18n"
	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/monitoring"
	"github.com/canonical/center-service/internal/tracing"
	"github.com/canonical/center-service/pkg/membership"
	"github.com/canonical/center-service/pkg/metrics"
	"github.com/canonical/center-service/pkg/notifications"
	"github.com/canonical/center-service/pkg/status"
	"github.com/canonical/center-service/pkg/webhooks"
)

// Services groups what the router exposes, Authenticate guards every
// endpoint acting on behalf of a user
type Services struct {
	Membership    membership.ServiceInterface
	Notifications notifications.ServiceInterface
	Webhooks      webhooks.ServiceInterface

	Authenticate func(http.Handler) http.Handler
	Pingers      map[string]status.PingerInterface

	RequestTimeout time.Duration
	AllowedOrigins []string
}

func NewRouter(
	services Services,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	origins := services.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS(origins),
		i18n.Middleware,
	)

	router.Use(middlewares...)

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(services.Pingers, tracer, monitor, logger).RegisterEndpoints(router)
	webhooks.NewAPI(services.Webhooks, logger).RegisterEndpoints(router)

	router.Group(func(r chi.Router) {
		if services.Authenticate != nil {
			r.Use(services.Authenticate)
		}

		membership.NewAPI(services.Membership, services.RequestTimeout, tracer, logger).RegisterEndpoints(r)
		notifications.NewAPI(services.Notifications, tracer, logger).RegisterEndpoints(r)
	})

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}
