// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"fmt"

	"github.com/canonical/center-service/internal/types"
)

const (
	OWNER_RELATION      = "owner"
	ADMIN_PLUS_RELATION = "admin_plus"
	ADMIN_RELATION      = "admin"
	STUDENT_RELATION    = "student"
	MEMBER_RELATION     = "member"

	CAN_MANAGE_ROLES_PERMISSION = "can_manage_roles"
	CAN_VIEW_CODES_PERMISSION   = "can_view_codes"
	CAN_VIEW_MEMBERS_PERMISSION = "can_view_members"
)

func UserTuple(userId string) string {
	return "user:" + userId
}

func CenterTuple(tenantId string) string {
	return "center:" + tenantId
}

// RoleRelation maps a membership role onto the relation that holds it
func RoleRelation(role types.Role) (string, error) {
	switch role {
	case types.RoleOwner:
		return OWNER_RELATION, nil
	case types.RoleAdminPlus:
		return ADMIN_PLUS_RELATION, nil
	case types.RoleAdmin:
		return ADMIN_RELATION, nil
	case types.RoleStudent:
		return STUDENT_RELATION, nil
	}

	return "", fmt.Errorf("%w: %q", types.ErrUnknownRole, role)
}
