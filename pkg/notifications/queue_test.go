// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/center-service/internal/queue"
	"github.com/canonical/center-service/internal/types"
)

func TestQueueNotifier_Notify(t *testing.T) {
	payload := types.NotificationPayload{Title: "New member", Message: "Ana joined Norte."}

	testCases := []struct {
		name        string
		recipients  []string
		setupMocks  func(*MockQueueClientInterface)
		expectedErr bool
	}{
		{
			name:       "enqueues one task",
			recipients: []string{"owner", "ap-1"},
			setupMocks: func(mockClient *MockQueueClientInterface) {
				mockClient.EXPECT().EnqueueNotificationFanout(
					gomock.Any(),
					queue.NotificationFanoutPayload{Recipients: []string{"owner", "ap-1"}, Notification: payload},
				).Return(nil)
			},
		},
		{
			name:       "nothing to send",
			recipients: nil,
			setupMocks: func(*MockQueueClientInterface) {},
		},
		{
			name:       "enqueue error",
			recipients: []string{"owner"},
			setupMocks: func(mockClient *MockQueueClientInterface) {
				mockClient.EXPECT().EnqueueNotificationFanout(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := NewMockQueueClientInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			mockTracer.EXPECT().Start(gomock.Any(), "notifications.QueueNotifier.Notify").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockClient)

			err := NewQueueNotifier(mockClient, mockTracer, mockLogger).Notify(context.Background(), tc.recipients, payload)

			if tc.expectedErr && err == nil {
				t.Error("expected error but got none")
			} else if !tc.expectedErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWorker_ProcessTask(t *testing.T) {
	payload := queue.NotificationFanoutPayload{
		Recipients:   []string{"owner", "ap-1"},
		Notification: types.NotificationPayload{Title: "New member", Message: "Ana joined Norte."},
	}

	validTask, err := queue.NewNotificationFanoutTask(payload)
	if err != nil {
		t.Fatalf("failed to build task: %v", err)
	}

	testCases := []struct {
		name         string
		task         *asynq.Task
		setupMocks   func(*MockServiceInterface, *MockLoggerInterface)
		expectedErr  bool
		expectedSkip bool
	}{
		{
			name: "fans out",
			task: validTask,
			setupMocks: func(mockService *MockServiceInterface, mockLogger *MockLoggerInterface) {
				mockService.EXPECT().Fanout(gomock.Any(), payload.Recipients, payload.Notification).Return(2, nil)
				mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any())
			},
		},
		{
			name: "store failure is retried",
			task: validTask,
			setupMocks: func(mockService *MockServiceInterface, mockLogger *MockLoggerInterface) {
				mockService.EXPECT().Fanout(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, types.ErrStoreUnavailable)
			},
			expectedErr: true,
		},
		{
			name: "malformed payload is not retried",
			task: asynq.NewTask(queue.TypeNotificationFanout, []byte("not-json")),
			setupMocks: func(mockService *MockServiceInterface, mockLogger *MockLoggerInterface) {
				mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any())
			},
			expectedErr:  true,
			expectedSkip: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockServiceInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			mockTracer.EXPECT().Start(gomock.Any(), "notifications.Worker.ProcessTask").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockService, mockLogger)

			err := NewWorker(mockService, mockTracer, mockLogger).ProcessTask(context.Background(), tc.task)

			if tc.expectedErr && err == nil {
				t.Fatal("expected error but got none")
			} else if !tc.expectedErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if errors.Is(err, asynq.SkipRetry) != tc.expectedSkip {
				t.Errorf("expected skip retry %v, got %v", tc.expectedSkip, err)
			}
		})
	}
}
