// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/canonical/center-service/internal/db"
	"github.com/canonical/center-service/internal/storage"
	"github.com/canonical/center-service/internal/types"
)

func (s *Store) CreateNotifications(ctx context.Context, ns []*types.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	createdAt := now()
	rows := make([]types.Notification, 0, len(ns))

	for _, n := range ns {
		if n.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate notification ID: %w", err)
			}
			n.ID = id.String()
		}
		n.CreatedAt = createdAt
		rows = append(rows, *n)
	}

	return s.write(ctx, func(st *state) error {
		for _, n := range rows {
			if _, ok := st.notifications[n.ID]; ok {
				return fmt.Errorf("failed to insert notifications: %w", storage.ErrDuplicateKey)
			}
		}
		for _, n := range rows {
			st.notifications[n.ID] = notification{Notification: n, seq: st.next()}
		}
		return nil
	})
}

func (s *Store) ListNotifications(ctx context.Context, userID string, page, size int64) ([]*types.Notification, error) {
	var rows []notification

	err := s.read(ctx, func(st *state) error {
		for _, n := range st.notifications {
			if n.UserID == userID {
				rows = append(rows, n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(rows, func(a, b notification) int {
		switch {
		case a.seq > b.seq:
			return -1
		case a.seq < b.seq:
			return 1
		}
		return 0
	})

	pageSize := db.PageSize(size)
	offset := db.Offset(page, pageSize)

	out := make([]*types.Notification, 0)
	for i := offset; i < uint64(len(rows)) && i < offset+pageSize; i++ {
		n := rows[i].Notification
		out = append(out, &n)
	}

	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	return s.write(ctx, func(st *state) error {
		n, ok := st.notifications[id]
		if !ok || n.UserID != userID {
			return storage.ErrNotFound
		}
		n.Read = true
		st.notifications[id] = n
		return nil
	})
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := s.write(ctx, func(st *state) error {
		count = 0
		for id, n := range st.notifications {
			if n.UserID == userID && !n.Read {
				n.Read = true
				st.notifications[id] = n
				count++
			}
		}
		return nil
	})

	return count, err
}

func (s *Store) DeleteReadNotifications(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := s.write(ctx, func(st *state) error {
		count = 0
		for id, n := range st.notifications {
			if n.UserID == userID && n.Read {
				delete(st.notifications, id)
				count++
			}
		}
		return nil
	})

	return count, err
}
