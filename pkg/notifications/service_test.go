// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package notifications

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/center-service/internal/storage"
	"github.com/canonical/center-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package notifications -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package notifications -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package notifications -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package notifications -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func TestService_Fanout(t *testing.T) {
	payload := types.NotificationPayload{
		Title:   "New member",
		Message: "Ana Diaz joined Norte.",
		Link:    "/community?centerId=c1",
	}

	testCases := []struct {
		name          string
		recipients    []string
		setupMocks    func(*MockStorageInterface, *MockLoggerInterface)
		expectedCount int
		expectedKind  types.ErrorKind
	}{
		{
			name:       "one record per distinct recipient",
			recipients: []string{"owner", "ap-1", "owner", "", "ap-2"},
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockStorage.EXPECT().CreateNotifications(gomock.Any(), gomock.Any()).DoAndReturn(
					func(ctx context.Context, ns []*types.Notification) error {
						got := make([]string, 0, len(ns))
						for _, n := range ns {
							if n.Read {
								return fmt.Errorf("notification for %s created as read", n.UserID)
							}
							if n.Title != payload.Title || n.Message != payload.Message || n.Link != payload.Link {
								return fmt.Errorf("unexpected payload %+v", n)
							}
							got = append(got, n.UserID)
						}
						if fmt.Sprint(got) != "[owner ap-1 ap-2]" {
							return fmt.Errorf("unexpected recipients %v", got)
						}
						return nil
					},
				)
			},
			expectedCount: 3,
		},
		{
			name:       "no recipients",
			recipients: []string{"", ""},
			setupMocks: func(*MockStorageInterface, *MockLoggerInterface) {},
		},
		{
			name:       "storage error",
			recipients: []string{"owner"},
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockStorage.EXPECT().CreateNotifications(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
				mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any())
			},
			expectedKind: types.KindStoreUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			s := NewService(mockStorage, mockTracer, mockMonitor, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "notifications.Service.Fanout").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockStorage, mockLogger)

			n, err := s.Fanout(context.Background(), tc.recipients, payload)

			if tc.expectedKind != "" {
				if types.KindOf(err) != tc.expectedKind {
					t.Fatalf("expected kind %s, got %v", tc.expectedKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != tc.expectedCount {
				t.Errorf("expected %d notifications, got %d", tc.expectedCount, n)
			}
		})
	}
}

func TestService_MarkRead(t *testing.T) {
	testCases := []struct {
		name        string
		storageErr  error
		expectedErr error
	}{
		{
			name: "success",
		},
		{
			name:        "not found or not owned",
			storageErr:  storage.ErrNotFound,
			expectedErr: ErrNotificationNotFound,
		},
		{
			name:        "storage error",
			storageErr:  errors.New("db error"),
			expectedErr: types.ErrStoreUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			s := NewService(mockStorage, mockTracer, mockMonitor, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "notifications.Service.MarkRead").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			mockStorage.EXPECT().MarkNotificationRead(gomock.Any(), "user-1", "n-1").Return(tc.storageErr)

			err := s.MarkRead(context.Background(), "user-1", "n-1")

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

func TestService_MarkAllReadAndDeleteRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	s := NewService(mockStorage, mockTracer, mockMonitor, mockLogger)

	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).
		Return(context.Background(), trace.SpanFromContext(context.Background())).Times(3)
	mockStorage.EXPECT().MarkAllNotificationsRead(gomock.Any(), "user-1").Return(int64(4), nil)
	mockStorage.EXPECT().DeleteReadNotifications(gomock.Any(), "user-1").Return(int64(4), nil)
	mockStorage.EXPECT().ListNotifications(gomock.Any(), "user-1", int64(1), int64(20)).Return(nil, errors.New("db error"))

	if n, err := s.MarkAllRead(context.Background(), "user-1"); err != nil || n != 4 {
		t.Errorf("expected 4 updated, got %d, %v", n, err)
	}

	if n, err := s.DeleteRead(context.Background(), "user-1"); err != nil || n != 4 {
		t.Errorf("expected 4 deleted, got %d, %v", n, err)
	}

	if _, err := s.List(context.Background(), "user-1", 1, 20); types.KindOf(err) != types.KindStoreUnavailable {
		t.Errorf("expected store unavailable, got %v", err)
	}
}
