// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/canonical/center-service/internal/authorization"
	"github.com/canonical/center-service/internal/cache"
	"github.com/canonical/center-service/internal/codes"
	"github.com/canonical/center-service/internal/config"
	"github.com/canonical/center-service/internal/db"
	"github.com/canonical/center-service/internal/identity"
	"github.com/canonical/center-service/internal/kratos"
	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/monitoring"
	"github.com/canonical/center-service/internal/monitoring/prometheus"
	"github.com/canonical/center-service/internal/openfga"
	"github.com/canonical/center-service/internal/queue"
	"github.com/canonical/center-service/internal/storage"
	"github.com/canonical/center-service/internal/storage/memory"
	"github.com/canonical/center-service/internal/tracing"
	"github.com/canonical/center-service/internal/transaction"
	"github.com/canonical/center-service/pkg/authentication"
	"github.com/canonical/center-service/pkg/membership"
	"github.com/canonical/center-service/pkg/notifications"
	"github.com/canonical/center-service/pkg/status"
	"github.com/canonical/center-service/pkg/web"
	"github.com/canonical/center-service/pkg/webhooks"
)

const serviceName = "center-service"

var inMemory bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		main()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&inMemory, "in-memory", false, "Use the in-process store instead of postgres, data is lost on exit")
}

func loadSpecs() *config.EnvSpec {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		panic(fmt.Errorf("issues with environment sourcing: %s", err))
	}

	return specs
}

// openStorage returns the store backing both reads and transactions, the
// returned closer is never nil
func openStorage(specs *config.EnvSpec, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (storage.StorageInterface, transaction.TransactorInterface, status.PingerInterface, func(), error) {
	if specs.InMemory {
		logger.Info("Using in-memory storage")
		store := memory.NewStore()
		return store, store, nil, func() {}, nil
	}

	dbClient, err := db.NewDBClient(
		db.Config{
			DSN:             specs.DSN,
			MaxConns:        specs.DBMaxConns,
			MinConns:        specs.DBMinConns,
			MaxConnLifetime: specs.DBMaxConnLifetime,
			MaxConnIdleTime: specs.DBMaxConnIdleTime,
			TracingEnabled:  specs.TracingEnabled,
		},
		tracer,
		monitor,
		logger,
	)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to create database client: %v", err)
	}

	return storage.NewStorage(dbClient, tracer, monitor, logger), dbClient, dbClient, dbClient.Close, nil
}

func newAuthorizer(specs *config.EnvSpec, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *authorization.Authorizer {
	if !specs.AuthorizationEnabled {
		logger.Info("Using noop authorizer")
		return authorization.NewAuthorizer(
			openfga.NewNoopClient(tracer, monitor, logger),
			tracer,
			monitor,
			logger,
		)
	}

	ofga := openfga.NewClient(
		openfga.NewConfig(
			specs.OpenfgaApiScheme,
			specs.OpenfgaApiHost,
			specs.OpenfgaStoreId,
			specs.OpenfgaApiToken,
			specs.OpenfgaModelId,
			specs.Debug,
			tracer,
			monitor,
			logger,
		),
	)
	authorizer := authorization.NewAuthorizer(
		ofga,
		tracer,
		monitor,
		logger,
	)
	logger.Info("Authorization is enabled")
	if authorizer.ValidateModel(context.Background()) != nil {
		panic("Invalid authorization model provided")
	}

	return authorizer
}

func newAuthenticate(specs *config.EnvSpec, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (func(http.Handler) http.Handler, error) {
	if !specs.AuthenticationEnabled {
		logger.Infof("JWT authentication is disabled, trusting the %s header", identity.HeaderName)
		return identity.NewMiddleware(tracer, monitor, logger).HTTPMiddleware, nil
	}

	verifier, err := authentication.NewJWTAuthenticator(
		context.Background(),
		specs.OAuth2Issuer,
		specs.OAuth2JWKSURL,
		specs.OAuth2AllowedSubjects,
		specs.OAuth2RequiredScope,
		tracer,
		monitor,
		logger,
	)
	if err != nil {
		return nil, err
	}

	return authentication.NewMiddleware(verifier, tracer, monitor, logger).Authenticate(), nil
}

func serve() error {
	specs := loadSpecs()
	if inMemory {
		specs.InMemory = true
	}

	logger := logging.NewLogger(specs.LogLevel)
	logger.Debugf("env vars: %v", specs)
	defer logger.Sync()

	monitor := prometheus.NewMonitor(serviceName, logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, serviceName, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	s, tx, dbPinger, closeStorage, err := openStorage(specs, tracer, monitor, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	pingers := make(map[string]status.PingerInterface)
	if dbPinger != nil {
		pingers["database"] = dbPinger
	}

	runner := transaction.NewRunner(
		tx,
		transaction.Config{
			MaxAttempts: specs.TxMaxAttempts,
			BaseDelay:   specs.TxBaseDelay,
			MaxDelay:    specs.TxMaxDelay,
		},
		tracer,
		monitor,
		logger,
	)

	var codeCache membership.CodeCacheInterface = cache.NewNoopCache()
	if specs.RedisAddr != "" {
		rdb, err := cache.Connect(
			context.Background(),
			cache.Config{Addr: specs.RedisAddr, Password: specs.RedisPassword, DB: specs.RedisDB},
		)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %v", err)
		}
		defer rdb.Close()

		codeCache = cache.NewRedisCache(rdb, specs.CodeCacheTTL, tracer, monitor, logger)
		pingers["redis"] = status.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		logger.Info("Invitation code cache is enabled")
	}

	authorizer := newAuthorizer(specs, tracer, monitor, logger)

	var kratosClient membership.KratosClientInterface = kratos.NewNoopClient()
	if specs.KratosAdminURL != "" {
		kratosClient = kratos.NewClient(specs.KratosAdminURL, tracer, monitor, logger)
	}

	notificationService := notifications.NewService(s, tracer, monitor, logger)

	var notifier membership.NotifierInterface = notificationService
	if specs.AsyncNotifications {
		if specs.RedisAddr == "" {
			return fmt.Errorf("async notifications require REDIS_ADDR")
		}

		enqueuer := queue.NewRedisEnqueuer(queue.RedisConfig{Addr: specs.RedisAddr, Password: specs.RedisPassword, DB: specs.RedisDB})
		queueClient := queue.NewClient(enqueuer, tracer, logger)
		defer queueClient.Close()

		notifier = notifications.NewQueueNotifier(queueClient, tracer, logger)
		logger.Info("Notifications are delivered through the task queue")
	}

	membershipService := membership.NewService(
		s,
		runner,
		codes.NewGenerator(),
		codeCache,
		authorizer,
		notifier,
		kratosClient,
		tracer,
		monitor,
		logger,
	)

	authenticate, err := newAuthenticate(specs, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to set up authentication: %v", err)
	}

	router := web.NewRouter(
		web.Services{
			Membership:     membershipService,
			Notifications:  notificationService,
			Webhooks:       webhooks.NewService(s, tracer, monitor, logger),
			Authenticate:   authenticate,
			Pingers:        pingers,
			RequestTimeout: specs.RequestTimeout,
			AllowedOrigins: specs.AllowedOrigins,
		},
		tracer,
		monitor,
		logger,
	)
	logger.Infof("Starting HTTP server on port %v", specs.Port)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	var serverError error
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			c <- os.Interrupt
		}
	}()

	<-c

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}

	return serverError
}

func main() {
	if err := serve(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
