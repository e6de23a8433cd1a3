// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"net/http"
	"runtime/debug"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	httpTypes "github.com/canonical/center-service/internal/http/types"
	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/monitoring"
	"github.com/canonical/center-service/internal/tracing"
	"github.com/canonical/center-service/internal/version"
)

const (
	okValue = "ok"

	pingTimeout = 2 * time.Second
)

type Status struct {
	Status       string            `json:"status"`
	BuildInfo    *BuildInfo        `json:"buildInfo"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

type BuildInfo struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	Name       string `json:"name"`
}

type API struct {
	pingers map[string]PingerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v0/status", a.alive)
	mux.Get("/api/v0/version", a.version)
}

func (a *API) alive(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "status.API.alive")
	defer span.End()

	status := Status{
		Status:       okValue,
		BuildInfo:    buildInfo(),
		Dependencies: a.ping(ctx),
	}

	code := http.StatusOK
	for _, v := range status.Dependencies {
		if v != okValue {
			status.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	if err := httpTypes.WriteJSON(w, code, status); err != nil {
		a.logger.Errorf("failed to encode status: %v", err)
	}
}

func (a *API) version(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "status.API.version")
	defer span.End()

	if err := httpTypes.WriteJSON(w, http.StatusOK, buildInfo()); err != nil {
		a.logger.Errorf("failed to encode version: %v", err)
	}
}

// ping checks every dependency in name order and refreshes its availability gauge
func (a *API) ping(ctx context.Context) map[string]string {
	if len(a.pingers) == 0 {
		return nil
	}

	names := make([]string, 0, len(a.pingers))
	for name := range a.pingers {
		names = append(names, name)
	}
	slices.Sort(names)

	result := make(map[string]string, len(names))
	for _, name := range names {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := a.pingers[name].Ping(pctx)
		cancel()

		available := 1.0
		result[name] = okValue
		if err != nil {
			a.logger.Warnf("dependency %s is unavailable: %v", name, err)
			available = 0
			result[name] = "unavailable"
		}

		if err := a.monitor.SetDependencyAvailability(map[string]string{"component": name}, available); err != nil {
			a.logger.Debugf("failed to record availability of %s: %v", name, err)
		}
	}

	return result
}

func buildInfo() *BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return &BuildInfo{Version: version.Version}
	}

	b := &BuildInfo{Version: version.Version, Name: info.Main.Path}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			b.CommitHash = s.Value
		}
	}

	return b
}

func NewAPI(pingers map[string]PingerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.pingers = pingers

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
