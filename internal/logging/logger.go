// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const securityLoggerName = "security"

type Logger struct {
	*zap.SugaredLogger

	security *SecurityLogger
}

func (l *Logger) Security() SecurityLoggerInterface {
	return l.security
}

// NewLogger builds a json production logger, unknown levels fall back to error
func NewLogger(l string) *Logger {
	level := zapcore.ErrorLevel

	switch strings.ToLower(l) {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "@timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	z := zap.Must(cfg.Build())

	// audit events are kept even when the application level is higher
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sec := zap.Must(cfg.Build()).Named(securityLoggerName)

	return &Logger{
		SugaredLogger: z.Sugar(),
		security:      &SecurityLogger{l: sec},
	}
}
