// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/center-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package cache -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package cache -destination ./mock_logger.go -source=../logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package cache -destination ./mock_monitor.go -source=../monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package cache -destination ./mock_tracing.go -source=../tracing/interfaces.go

func TestRedisCache_GetCode(t *testing.T) {
	code := &types.InvitationCode{ID: "id-1", TenantID: "tenant-1", Kind: types.CodeKindStudent, Code: "abc"}
	payload, _ := json.Marshal(code)
	redisErr := errors.New("connection refused")

	testCases := []struct {
		name         string
		setupMocks   func(*MockRedisClientInterface)
		expectedCode *types.InvitationCode
		expectedErr  error
	}{
		{
			name: "hit",
			setupMocks: func(c *MockRedisClientInterface) {
				c.EXPECT().Get(gomock.Any(), "center:code:abc").Return(redis.NewStringResult(string(payload), nil))
			},
			expectedCode: code,
		},
		{
			name: "miss",
			setupMocks: func(c *MockRedisClientInterface) {
				c.EXPECT().Get(gomock.Any(), "center:code:abc").Return(redis.NewStringResult("", redis.Nil))
			},
			expectedErr: ErrCacheMiss,
		},
		{
			name: "redis error",
			setupMocks: func(c *MockRedisClientInterface) {
				c.EXPECT().Get(gomock.Any(), "center:code:abc").Return(redis.NewStringResult("", redisErr))
			},
			expectedErr: redisErr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := NewMockRedisClientInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			c := NewRedisCache(mockClient, time.Hour, mockTracer, mockMonitor, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "cache.RedisCache.GetCode").Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockClient)

			got, err := c.GetCode(context.Background(), "abc")

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got.ID != tc.expectedCode.ID || got.TenantID != tc.expectedCode.TenantID || got.Kind != tc.expectedCode.Kind || got.Code != tc.expectedCode.Code {
				t.Fatalf("expected %+v, got %+v", tc.expectedCode, got)
			}
		})
	}
}

func TestRedisCache_SetCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockRedisClientInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)

	c := NewRedisCache(mockClient, 30*time.Minute, mockTracer, mockMonitor, mockLogger)

	code := &types.InvitationCode{ID: "id-1", TenantID: "tenant-1", Kind: types.CodeKindAdmin, Code: "def"}

	mockTracer.EXPECT().Start(gomock.Any(), "cache.RedisCache.SetCode").Return(context.Background(), trace.SpanFromContext(context.Background()))
	mockClient.EXPECT().Set(gomock.Any(), "center:code:def", gomock.Any(), 30*time.Minute).DoAndReturn(
		func(_ context.Context, _ string, value any, _ time.Duration) *redis.StatusCmd {
			var decoded types.InvitationCode
			if err := json.Unmarshal(value.([]byte), &decoded); err != nil {
				t.Fatalf("unexpected payload: %v", err)
			}
			if decoded.ID != code.ID || decoded.Code != code.Code || decoded.Kind != code.Kind || decoded.TenantID != code.TenantID {
				t.Fatalf("expected %+v, got %+v", code, decoded)
			}
			return redis.NewStatusResult("OK", nil)
		},
	)

	if err := c.SetCode(context.Background(), code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNoopCache(t *testing.T) {
	c := NewNoopCache()

	if _, err := c.GetCode(context.Background(), "abc"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	if err := c.SetCode(context.Background(), &types.InvitationCode{Code: "abc"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
