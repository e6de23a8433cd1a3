// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	// InMemory swaps postgres for the in-process store, for local development only
	InMemory bool   `envconfig:"in_memory" default:"false"`
	DSN      string `envconfig:"DSN"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	TxMaxAttempts int           `envconfig:"tx_max_attempts" default:"5"`
	TxBaseDelay   time.Duration `envconfig:"tx_base_delay" default:"20ms"`
	TxMaxDelay    time.Duration `envconfig:"tx_max_delay" default:"500ms"`

	RequestTimeout time.Duration `envconfig:"request_timeout" default:"10s"`
	AllowedOrigins []string      `envconfig:"allowed_origins"`

	AuthenticationEnabled bool     `envconfig:"authentication_enabled" default:"true"`
	OAuth2Issuer          string   `envconfig:"oauth2_issuer"`
	OAuth2JWKSURL         string   `envconfig:"oauth2_jwks_url"`
	OAuth2AllowedSubjects []string `envconfig:"oauth2_allowed_subjects"`
	OAuth2RequiredScope   string   `envconfig:"oauth2_required_scope"`

	KratosAdminURL string `envconfig:"kratos_admin_url"`

	AuthorizationEnabled bool   `envconfig:"authorization_enabled" default:"false"`
	OpenfgaApiScheme     string `envconfig:"openfga_api_scheme" default:""`
	OpenfgaApiHost       string `envconfig:"openfga_api_host"`
	OpenfgaApiToken      string `envconfig:"openfga_api_token"`
	OpenfgaStoreId       string `envconfig:"openfga_store_id"`
	OpenfgaModelId       string `envconfig:"openfga_authorization_model_id" default:""`

	RedisAddr     string        `envconfig:"redis_addr"`
	RedisPassword string        `envconfig:"redis_password"`
	RedisDB       int           `envconfig:"redis_db" default:"0"`
	CodeCacheTTL  time.Duration `envconfig:"code_cache_ttl" default:"1h"`

	// AsyncNotifications routes fan-out through the task queue served by the worker command
	AsyncNotifications bool `envconfig:"async_notifications" default:"false"`
	WorkerConcurrency  int  `envconfig:"worker_concurrency" default:"10"`
}
