// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdminPlus Role = "adminPlus"
	RoleAdmin     Role = "admin"
	RoleStudent   Role = "student"
)

var (
	ErrUnknownRole     = errors.New("unknown role")
	ErrEmptyUserID     = errors.New("user id is empty")
	ErrRoleHeld        = errors.New("user already holds a role")
	ErrOwnerImmutable  = errors.New("owner role cannot be changed")
	ErrRoleNotHeld     = errors.New("user holds no role")
	ErrOwnerMissing    = errors.New("owner is not set")
	ErrDuplicateMember = errors.New("user appears in more than one role set")
)

// AssignableRoles are the roles reachable through role changes and code redemption
var AssignableRoles = []Role{RoleAdminPlus, RoleAdmin, RoleStudent}

// ParseRole accepts the canonical names plus the snake case spelling of adminPlus
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "owner":
		return RoleOwner, nil
	case "adminplus", "admin_plus":
		return RoleAdminPlus, nil
	case "admin":
		return RoleAdmin, nil
	case "student":
		return RoleStudent, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) Valid() bool {
	return r == RoleOwner || r.Assignable()
}

func (r Role) Assignable() bool {
	return slices.Contains(AssignableRoles, r)
}

// Roles is the membership of a tenant, a user id appears at most once across
// Owner and the three sets, the sets are kept sorted
type Roles struct {
	Owner     string   `json:"owner"`
	AdminPlus []string `json:"adminPlus"`
	Admin     []string `json:"admin"`
	Student   []string `json:"student"`
}

func (r *Roles) set(role Role) *[]string {
	switch role {
	case RoleAdminPlus:
		return &r.AdminPlus
	case RoleAdmin:
		return &r.Admin
	case RoleStudent:
		return &r.Student
	}

	return nil
}

// RoleOf is the reverse lookup user -> role
func (r Roles) RoleOf(userID string) (Role, bool) {
	if userID == "" {
		return "", false
	}

	if r.Owner == userID {
		return RoleOwner, true
	}

	for _, role := range AssignableRoles {
		if _, found := slices.BinarySearch(*r.set(role), userID); found {
			return role, true
		}
	}

	return "", false
}

func (r *Roles) Add(userID string, role Role) error {
	if userID == "" {
		return ErrEmptyUserID
	}

	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	if current, ok := r.RoleOf(userID); ok {
		return fmt.Errorf("%w: %s", ErrRoleHeld, current)
	}

	if role == RoleOwner {
		if r.Owner != "" {
			return ErrOwnerImmutable
		}

		r.Owner = userID
		return nil
	}

	s := r.set(role)
	i, _ := slices.BinarySearch(*s, userID)
	*s = slices.Insert(*s, i, userID)

	return nil
}

// Remove drops the user from whatever set holds it and reports which one
func (r *Roles) Remove(userID string) (Role, error) {
	current, ok := r.RoleOf(userID)
	if !ok {
		return "", ErrRoleNotHeld
	}

	if current == RoleOwner {
		return "", ErrOwnerImmutable
	}

	s := r.set(current)
	i, _ := slices.BinarySearch(*s, userID)
	*s = slices.Delete(*s, i, i+1)

	return current, nil
}

// Move transfers the user to another assignable set, returning the previous role
func (r *Roles) Move(userID string, to Role) (Role, error) {
	if to == RoleOwner {
		return "", ErrOwnerImmutable
	}

	if !to.Assignable() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, to)
	}

	from, err := r.Remove(userID)
	if err != nil {
		return "", err
	}

	if err := r.Add(userID, to); err != nil {
		return "", err
	}

	return from, nil
}

// Validate is the single exclusivity check for the role structure
func (r Roles) Validate() error {
	if r.Owner == "" {
		return ErrOwnerMissing
	}

	seen := map[string]struct{}{r.Owner: {}}

	for _, role := range AssignableRoles {
		for _, id := range *r.set(role) {
			if id == "" {
				return ErrEmptyUserID
			}

			if _, ok := seen[id]; ok {
				return fmt.Errorf("%w: %s", ErrDuplicateMember, id)
			}

			seen[id] = struct{}{}
		}
	}

	return nil
}

// Recipients lists the users notified about new members: owner first, then adminPlus
func (r Roles) Recipients() []string {
	recipients := make([]string, 0, 1+len(r.AdminPlus))

	if r.Owner != "" {
		recipients = append(recipients, r.Owner)
	}

	for _, id := range r.AdminPlus {
		if !slices.Contains(recipients, id) {
			recipients = append(recipients, id)
		}
	}

	return recipients
}

// Assignments flattens the structure into user -> role
func (r Roles) Assignments() map[string]Role {
	m := make(map[string]Role, r.Len())

	if r.Owner != "" {
		m[r.Owner] = RoleOwner
	}

	for _, role := range AssignableRoles {
		for _, id := range *r.set(role) {
			m[id] = role
		}
	}

	return m
}

func (r Roles) Len() int {
	n := len(r.AdminPlus) + len(r.Admin) + len(r.Student)
	if r.Owner != "" {
		n++
	}

	return n
}

func (r Roles) Clone() Roles {
	return Roles{
		Owner:     r.Owner,
		AdminPlus: slices.Clone(r.AdminPlus),
		Admin:     slices.Clone(r.Admin),
		Student:   slices.Clone(r.Student),
	}
}

// NewRoles builds the structure from user -> role rows, e.g. as loaded from storage
func NewRoles(assignments map[string]Role) (Roles, error) {
	var r Roles

	ids := make([]string, 0, len(assignments))
	for id := range assignments {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		if err := r.Add(id, assignments[id]); err != nil {
			return Roles{}, err
		}
	}

	return r, nil
}

// MarshalJSON renders empty sets as [] instead of null
func (r Roles) MarshalJSON() ([]byte, error) {
	type roles Roles

	out := roles(r.Clone())
	for _, s := range []*[]string{&out.AdminPlus, &out.Admin, &out.Student} {
		if *s == nil {
			*s = []string{}
		}
	}

	return json.Marshal(out)
}
