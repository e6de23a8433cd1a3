// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package memory

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"github.com/canonical/center-service/internal/types"
)

type membership struct {
	role types.Role
	seq  int64
}

type userTenant struct {
	seq int64
}

type notification struct {
	types.Notification
	seq int64
}

type code struct {
	types.InvitationCode
	seq int64
}

// state is one consistent view of every table, transactions work on a clone
type state struct {
	seq int64

	tenants       map[string]types.Tenant
	memberships   map[string]map[string]membership
	users         map[string]types.User
	userTenants   map[string]map[string]userTenant
	codes         map[string]code
	notifications map[string]notification
}

func newState() *state {
	return &state{
		tenants:       map[string]types.Tenant{},
		memberships:   map[string]map[string]membership{},
		users:         map[string]types.User{},
		userTenants:   map[string]map[string]userTenant{},
		codes:         map[string]code{},
		notifications: map[string]notification{},
	}
}

func (s *state) next() int64 {
	s.seq++
	return s.seq
}

func (s *state) clone() *state {
	c := &state{
		seq:           s.seq,
		tenants:       make(map[string]types.Tenant, len(s.tenants)),
		memberships:   make(map[string]map[string]membership, len(s.memberships)),
		users:         maps.Clone(s.users),
		userTenants:   make(map[string]map[string]userTenant, len(s.userTenants)),
		codes:         maps.Clone(s.codes),
		notifications: maps.Clone(s.notifications),
	}

	for id, t := range s.tenants {
		t.Courses = slices.Clone(t.Courses)
		c.tenants[id] = t
	}

	for id, m := range s.memberships {
		c.memberships[id] = maps.Clone(m)
	}

	for id, ut := range s.userTenants {
		c.userTenants[id] = maps.Clone(ut)
	}

	return c
}

// roles rebuilds the role sets of a tenant from its membership rows
func (s *state) roles(tenantID string) (types.Roles, error) {
	assignments := make(map[string]types.Role, len(s.memberships[tenantID]))
	for userID, m := range s.memberships[tenantID] {
		assignments[userID] = m.role
	}

	return types.NewRoles(assignments)
}

func (s *state) tenantIDs(userID string) []string {
	ut := s.userTenants[userID]

	ids := slices.Collect(maps.Keys(ut))
	slices.SortFunc(ids, func(a, b string) int {
		return cmp.Compare(ut[a].seq, ut[b].seq)
	})

	return ids
}

func now() time.Time {
	return time.Now().UTC()
}
