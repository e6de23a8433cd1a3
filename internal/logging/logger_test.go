// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{level: "DEBUG", expected: zapcore.DebugLevel},
		{level: "info", expected: zapcore.InfoLevel},
		{level: "warning", expected: zapcore.WarnLevel},
		{level: "error", expected: zapcore.ErrorLevel},
		{level: "invalid", expected: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger(tt.level)

			if lvl := logger.Level(); lvl != tt.expected {
				t.Fatalf("expected level %s, got %s", tt.expected, lvl)
			}

			if logger.Security() == nil {
				t.Fatal("expected security logger to be set")
			}
		})
	}
}

func TestNoopLoggerSecurityEvents(t *testing.T) {
	logger := NewNoopLogger()

	logger.Security().SystemStartup()
	logger.Security().AuthzFailure("user-1", "center:abc")
	logger.Security().AdminAction("user-1", "change_role", "center:abc", "user-2")
	logger.Security().SystemShutdown()
}
