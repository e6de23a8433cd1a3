// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/monitoring"
	"github.com/canonical/center-service/internal/storage"
	"github.com/canonical/center-service/internal/tracing"
)

var (
	// ErrContention is returned once every attempt lost a race with a concurrent writer
	ErrContention = errors.New("transaction retries exhausted")
	// ErrUnavailable is returned once every attempt failed to reach the store
	ErrUnavailable = errors.New("store unavailable")
	// ErrTimeout is returned when the caller deadline expires before a commit
	ErrTimeout = errors.New("transaction deadline exceeded")
)

const (
	outcomeCommitted   = "committed"
	outcomeRejected    = "rejected"
	outcomeContention  = "contention"
	outcomeUnavailable = "unavailable"
	outcomeTimeout     = "timeout"
)

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

var _ RunnerInterface = (*Runner)(nil)

// Runner retries transactions that failed on a conflict or a transient store
// error, with bounded exponential backoff
type Runner struct {
	tx  TransactorInterface
	cfg Config

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (r *Runner) newBackOff() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     r.cfg.BaseDelay,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         r.cfg.MaxDelay,
	}
	b.Reset()

	return b
}

// Run executes fn in a transaction until it commits, fails with a non
// retryable error, runs out of attempts or ctx expires
func (r *Runner) Run(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := r.tracer.Start(ctx, "transaction.Runner.Run")
	defer span.End()

	b := r.newBackOff()

	for attempt := 1; ; attempt++ {
		err := r.tx.WithTx(ctx, fn)

		if err == nil {
			r.observe(operation, outcomeCommitted, attempt)
			return nil
		}

		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			r.observe(operation, outcomeTimeout, attempt)
			return fmt.Errorf("%s: %w: %w", operation, ErrTimeout, err)
		}

		conflict := storage.IsConflict(err)
		unavailable := !conflict && storage.IsUnavailable(err)

		if !conflict && !unavailable {
			r.observe(operation, outcomeRejected, attempt)
			return err
		}

		if attempt >= r.cfg.MaxAttempts {
			if conflict {
				r.observe(operation, outcomeContention, attempt)
				return fmt.Errorf("%s failed after %d attempts: %w: %w", operation, attempt, ErrContention, err)
			}

			r.observe(operation, outcomeUnavailable, attempt)
			return fmt.Errorf("%s failed after %d attempts: %w: %w", operation, attempt, ErrUnavailable, err)
		}

		delay := b.NextBackOff()
		r.logger.Debugf("%s attempt %d failed, retrying in %s: %v", operation, attempt, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.observe(operation, outcomeTimeout, attempt)
			return fmt.Errorf("%s: %w: %w", operation, ErrTimeout, ctx.Err())
		case <-timer.C:
		}
	}
}

func (r *Runner) observe(operation, outcome string, attempts int) {
	tags := map[string]string{"operation": operation, "outcome": outcome}

	if err := r.monitor.SetTransactionAttemptsMetric(tags, float64(attempts)); err != nil {
		r.logger.Debugf("failed to record transaction attempts: %v", err)
	}
}

func NewRunner(tx TransactorInterface, cfg Config, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Runner {
	r := new(Runner)

	r.tx = tx
	r.cfg = cfg

	if r.cfg.MaxAttempts <= 0 {
		r.cfg.MaxAttempts = 1
	}

	if r.cfg.BaseDelay <= 0 {
		r.cfg.BaseDelay = backoff.DefaultInitialInterval
	}

	if r.cfg.MaxDelay < r.cfg.BaseDelay {
		r.cfg.MaxDelay = r.cfg.BaseDelay
	}

	r.tracer = tracer
	r.monitor = monitor
	r.logger = logger

	return r
}
