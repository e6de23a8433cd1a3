// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

import (
	"github.com/canonical/center-service/internal/types"
)

type TenantAttributes struct {
	Name           string         `json:"name" validate:"required,max=120"`
	SchoolName     string         `json:"school_name" validate:"max=200"`
	Color          string         `json:"color" validate:"omitempty,max=32"`
	Animal         string         `json:"animal" validate:"omitempty,max=32"`
	EducationLevel string         `json:"education_level" validate:"omitempty,max=64"`
	Courses        []string       `json:"courses" validate:"dive,required,max=64"`
	Location       types.Location `json:"location"`
}

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeJoined  ChangeKind = "joined"
	ChangeMoved   ChangeKind = "moved"
	ChangeRemoved ChangeKind = "removed"
	ChangeLeft    ChangeKind = "left"
)

// Change is a committed membership transition, From is empty when the user
// joined and To is empty when the membership ended
type Change struct {
	Kind     ChangeKind `json:"kind"`
	TenantID string     `json:"center_id"`
	UserID   string     `json:"user_id"`
	From     types.Role `json:"from,omitempty"`
	To       types.Role `json:"to,omitempty"`
	Version  int64      `json:"version"`
}

// Outcome is returned by every mutating operation, Warnings carries message
// keys for the best-effort steps that failed after commit
type Outcome struct {
	Change   Change                  `json:"change"`
	Tenant   *types.Tenant           `json:"center,omitempty"`
	Codes    []*types.InvitationCode `json:"codes,omitempty"`
	Warnings []string                `json:"-"`
}
