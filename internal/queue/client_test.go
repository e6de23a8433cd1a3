// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package queue

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/center-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package queue -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package queue -destination ./mock_logger.go -source=../logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package queue -destination ./mock_tracing.go -source=../tracing/interfaces.go

func TestClient_EnqueueNotificationFanout(t *testing.T) {
	payload := NotificationFanoutPayload{
		Recipients:   []string{"u1", "u2"},
		Notification: types.NotificationPayload{Title: "New member", Message: "Grace joined Club X.", Link: "/community?centerId=t1"},
	}
	brokerErr := errors.New("redis down")

	testCases := []struct {
		name        string
		setupMocks  func(*MockEnqueuerInterface, *MockLoggerInterface)
		expectedErr error
	}{
		{
			name: "success",
			setupMocks: func(e *MockEnqueuerInterface, l *MockLoggerInterface) {
				e.EXPECT().EnqueueContext(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
						if task.Type() != TypeNotificationFanout {
							t.Errorf("unexpected task type %s", task.Type())
						}

						p, err := ParseNotificationFanoutTask(task)
						if err != nil {
							t.Fatalf("unexpected error: %v", err)
						}

						if !slices.Equal(p.Recipients, payload.Recipients) || p.Notification != payload.Notification {
							t.Errorf("expected payload %+v, got %+v", payload, p)
						}

						if len(opts) != 2 {
							t.Errorf("expected retry and timeout options, got %d", len(opts))
						}

						return &asynq.TaskInfo{ID: "task-1"}, nil
					},
				)
				l.EXPECT().Debugf(gomock.Any(), gomock.Any()).Times(1)
			},
		},
		{
			name: "broker error",
			setupMocks: func(e *MockEnqueuerInterface, _ *MockLoggerInterface) {
				e.EXPECT().EnqueueContext(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, brokerErr)
			},
			expectedErr: brokerErr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockEnqueuer := NewMockEnqueuerInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			c := NewClient(mockEnqueuer, mockTracer, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "queue.Client.EnqueueNotificationFanout").Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockEnqueuer, mockLogger)

			err := c.EnqueueNotificationFanout(context.Background(), payload)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseNotificationFanoutTaskInvalidPayload(t *testing.T) {
	task := asynq.NewTask(TypeNotificationFanout, []byte("not json"))

	if _, err := ParseNotificationFanoutTask(task); err == nil {
		t.Fatal("expected error")
	}
}
