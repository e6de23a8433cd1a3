// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

type Location struct {
	Country  string `json:"country,omitempty"`
	Province string `json:"province,omitempty"`
	District string `json:"district,omitempty"`
}

// Tenant is a center, Version is bumped by every membership mutation
type Tenant struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	SchoolName     string    `json:"school_name,omitempty" db:"school_name"`
	Color          string    `json:"color,omitempty" db:"color"`
	Animal         string    `json:"animal,omitempty" db:"animal"`
	EducationLevel string    `json:"education_level,omitempty" db:"education_level"`
	Courses        []string  `json:"courses" db:"courses"`
	Location       Location  `json:"location" db:"location"`
	Roles          Roles     `json:"roles"`
	Version        int64     `json:"version" db:"version"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type CodeKind string

const (
	CodeKindStudent CodeKind = "student"
	CodeKindAdmin   CodeKind = "admin"
)

// Role returns the role granted when a code of this kind is redeemed
func (k CodeKind) Role() Role {
	switch k {
	case CodeKindAdmin:
		return RoleAdmin
	case CodeKindStudent:
		return RoleStudent
	}

	return ""
}

func (k CodeKind) Valid() bool {
	return k == CodeKindStudent || k == CodeKindAdmin
}

type InvitationCode struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"center_id" db:"tenant_id"`
	Kind      CodeKind  `json:"kind" db:"kind"`
	Code      string    `json:"code" db:"code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CodePreview is what a prospective member sees before redeeming a code
type CodePreview struct {
	TenantID string   `json:"center_id"`
	Name     string   `json:"name"`
	Courses  []string `json:"courses"`
	Country  string   `json:"country,omitempty"`
	Role     Role     `json:"role"`
}

type User struct {
	ID         string    `json:"id" db:"id"`
	Email      string    `json:"email,omitempty" db:"email"`
	FirstName  string    `json:"first_name,omitempty" db:"first_name"`
	LastName   string    `json:"last_name,omitempty" db:"last_name"`
	NationalID string    `json:"national_id,omitempty" db:"national_id"`
	Course     string    `json:"course,omitempty" db:"course"`
	AvatarURL  string    `json:"avatar_url,omitempty" db:"avatar_url"`
	TenantIDs  []string  `json:"center_ids"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Profile holds the user fields a caller may set while joining a center,
// empty values leave the stored value untouched
type Profile struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	NationalID string `json:"national_id"`
	Course     string `json:"course"`
}

func (p Profile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.LastName
	}
}

type Member struct {
	UserID    string `json:"user_id" db:"user_id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty" db:"first_name"`
	LastName  string `json:"last_name,omitempty" db:"last_name"`
	Course    string `json:"course,omitempty" db:"course"`
	Role      Role   `json:"role" db:"role"`
}

type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Link      string    `json:"link,omitempty" db:"link"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type NotificationPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}
