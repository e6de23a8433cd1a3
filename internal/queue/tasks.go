// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/canonical/center-service/internal/types"
)

const TypeNotificationFanout = "notification:fanout"

type NotificationFanoutPayload struct {
	Recipients   []string                  `json:"recipients"`
	Notification types.NotificationPayload `json:"notification"`
}

func NewNotificationFanoutTask(p NotificationFanoutPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	return asynq.NewTask(TypeNotificationFanout, data), nil
}

func ParseNotificationFanoutTask(t *asynq.Task) (*NotificationFanoutPayload, error) {
	p := new(NotificationFanoutPayload)

	if err := json.Unmarshal(t.Payload(), p); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	return p, nil
}
