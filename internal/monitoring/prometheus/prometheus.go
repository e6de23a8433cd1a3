// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/monitoring"
)

var _ monitoring.MonitorInterface = (*Monitor)(nil)

type Monitor struct {
	service string

	responseTime        *prometheus.HistogramVec
	dependencies        *prometheus.GaugeVec
	transactionAttempts *prometheus.HistogramVec

	logger logging.LoggerInterface
}

func (m *Monitor) GetService() string {
	return m.service
}

func (m *Monitor) SetResponseTimeMetric(tags map[string]string, value float64) error {
	if m.responseTime == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.responseTime.With(tags).Observe(value)

	return nil
}

func (m *Monitor) SetDependencyAvailability(tags map[string]string, value float64) error {
	if m.dependencies == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.dependencies.With(tags).Set(value)

	return nil
}

// SetTransactionAttemptsMetric observes how many attempts an operation needed
// before it committed or gave up
func (m *Monitor) SetTransactionAttemptsMetric(tags map[string]string, value float64) error {
	if m.transactionAttempts == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.transactionAttempts.With(tags).Observe(value)

	return nil
}

func (m *Monitor) registerHistograms() {
	m.responseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "http_response_time_seconds",
			Help:        "http_response_time_seconds",
			ConstLabels: prometheus.Labels{"service": m.service},
		},
		[]string{"route", "status"},
	)

	m.transactionAttempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "membership_transaction_attempts",
			Help:        "attempts needed by membership transactions",
			ConstLabels: prometheus.Labels{"service": m.service},
			Buckets:     []float64{1, 2, 3, 4, 5, 8, 13, 21},
		},
		[]string{"operation", "outcome"},
	)

	for _, c := range []prometheus.Collector{m.responseTime, m.transactionAttempts} {
		if err := prometheus.Register(c); err != nil {
			m.logger.Debugf("metric already registered: %v", err)
		}
	}
}

func (m *Monitor) registerGauges() {
	m.dependencies = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "dependency_available",
			Help:        "dependency_available",
			ConstLabels: prometheus.Labels{"service": m.service},
		},
		[]string{"component"},
	)

	if err := prometheus.Register(m.dependencies); err != nil {
		m.logger.Debugf("metric already registered: %v", err)
	}
}

func NewMonitor(service string, logger logging.LoggerInterface) *Monitor {
	m := new(Monitor)

	m.service = service
	m.logger = logger

	m.registerHistograms()
	m.registerGauges()

	return m
}
