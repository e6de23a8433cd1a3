// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/canonical/center-service/internal/db"
	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/monitoring"
	"github.com/canonical/center-service/internal/tracing"
	"github.com/canonical/center-service/internal/types"
)

var _ StorageInterface = (*Storage)(nil)

var tenantColumns = []string{
	"t.id", "t.name", "t.school_name", "t.color", "t.animal", "t.education_level",
	"t.courses", "t.location", "t.version", "t.created_at",
}

type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*types.Tenant, error) {
	var (
		t        types.Tenant
		courses  []byte
		location []byte
	)

	err := row.Scan(
		&t.ID, &t.Name, &t.SchoolName, &t.Color, &t.Animal, &t.EducationLevel,
		&courses, &location, &t.Version, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(courses) > 0 {
		if err := json.Unmarshal(courses, &t.Courses); err != nil {
			return nil, fmt.Errorf("failed to decode courses: %w", err)
		}
	}

	if len(location) > 0 {
		if err := json.Unmarshal(location, &t.Location); err != nil {
			return nil, fmt.Errorf("failed to decode location: %w", err)
		}
	}

	return &t, nil
}

func (s *Storage) CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateTenant")
	defer span.End()

	id := t.ID
	if id == "" {
		uid, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate tenant ID: %w", err)
		}
		id = uid.String()
	}

	courses := t.Courses
	if courses == nil {
		courses = []string{}
	}

	coursesJSON, err := json.Marshal(courses)
	if err != nil {
		return nil, fmt.Errorf("failed to encode courses: %w", err)
	}

	locationJSON, err := json.Marshal(t.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to encode location: %w", err)
	}

	created := *t
	created.ID = id
	created.Courses = courses
	created.Version = 0

	err = s.db.Statement(ctx).
		Insert("tenants").
		Columns("id", "name", "school_name", "color", "animal", "education_level", "courses", "location", "version").
		Values(id, t.Name, t.SchoolName, t.Color, t.Animal, t.EducationLevel, string(coursesJSON), string(locationJSON), 0).
		Suffix("RETURNING created_at").
		QueryRowContext(ctx).
		Scan(&created.CreatedAt)

	if err != nil {
		return nil, classify(err, "insert tenant")
	}

	return &created, nil
}

// GetTenantByID loads the tenant together with its role sets
func (s *Storage) GetTenantByID(ctx context.Context, id string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetTenantByID")
	defer span.End()

	t, err := scanTenant(
		s.db.Statement(ctx).
			Select(tenantColumns...).
			From("tenants t").
			Where(sq.Eq{"t.id": id}).
			QueryRowContext(ctx),
	)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, classify(err, "get tenant")
	}

	rows, err := s.db.Statement(ctx).
		Select("user_id", "role").
		From("memberships").
		Where(sq.Eq{"tenant_id": id}).
		QueryContext(ctx)
	if err != nil {
		return nil, classify(err, "list tenant roles")
	}
	defer rows.Close()

	assignments := make(map[string]types.Role)
	for rows.Next() {
		var (
			userID string
			role   types.Role
		)
		if err := rows.Scan(&userID, &role); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		assignments[userID] = role
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate membership rows")
	}

	roles, err := types.NewRoles(assignments)
	if err != nil {
		return nil, fmt.Errorf("tenant %s has inconsistent roles: %w", id, err)
	}
	t.Roles = roles

	return t, nil
}

// ListTenantsByUserID returns the tenants the user belongs to, without role sets
func (s *Storage) ListTenantsByUserID(ctx context.Context, userID string) ([]*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListTenantsByUserID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select(tenantColumns...).
		From("tenants t").
		Join("user_tenants ut ON t.id = ut.tenant_id").
		Where(sq.Eq{"ut.user_id": userID}).
		OrderBy("ut.created_at").
		QueryContext(ctx)
	if err != nil {
		return nil, classify(err, "list tenants")
	}
	defer rows.Close()

	tenants := make([]*types.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate tenant rows")
	}

	return tenants, nil
}

func (s *Storage) BumpTenantVersion(ctx context.Context, id string, expected int64) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.BumpTenantVersion")
	defer span.End()

	var version int64
	err := s.db.Statement(ctx).
		Update("tenants").
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": id, "version": expected}).
		Suffix("RETURNING version").
		QueryRowContext(ctx).
		Scan(&version)

	if err != nil {
		if isNoRows(err) {
			return 0, fmt.Errorf("tenant %s is no longer at version %d: %w", id, expected, ErrConflict)
		}
		return 0, classify(err, "bump tenant version")
	}

	return version, nil
}

func (s *Storage) AddMember(ctx context.Context, tenantID, userID string, role types.Role) error {
	ctx, span := s.tracer.Start(ctx, "storage.AddMember")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Insert("memberships").
		Columns("tenant_id", "user_id", "role").
		Values(tenantID, userID, string(role)).
		ExecContext(ctx)

	if err != nil {
		// a racing writer inserted the same membership first
		if IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to add member: %w: %w", ErrConflict, ErrDuplicateKey)
		}
		return classify(err, "add member")
	}

	return nil
}

func (s *Storage) UpdateMember(ctx context.Context, tenantID, userID string, role types.Role) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateMember")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("memberships").
		Set("role", string(role)).
		Where(sq.Eq{
			"tenant_id": tenantID,
			"user_id":   userID,
		}).
		ExecContext(ctx)

	if err != nil {
		return classify(err, "update member")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) RemoveMember(ctx context.Context, tenantID, userID string) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoveMember")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("memberships").
		Where(sq.Eq{
			"tenant_id": tenantID,
			"user_id":   userID,
		}).
		ExecContext(ctx)

	if err != nil {
		return classify(err, "remove member")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) GetMemberRole(ctx context.Context, tenantID, userID string) (types.Role, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetMemberRole")
	defer span.End()

	var role types.Role
	err := s.db.Statement(ctx).
		Select("role").
		From("memberships").
		Where(sq.Eq{
			"tenant_id": tenantID,
			"user_id":   userID,
		}).
		QueryRowContext(ctx).
		Scan(&role)

	if err != nil {
		if isNoRows(err) {
			return "", ErrNotFound
		}
		return "", classify(err, "get member role")
	}

	return role, nil
}

func (s *Storage) ListMembersByTenantID(ctx context.Context, tenantID string) ([]*types.Member, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListMembersByTenantID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("m.user_id", "m.role", "COALESCE(u.email, '')", "COALESCE(u.first_name, '')", "COALESCE(u.last_name, '')", "COALESCE(u.course, '')").
		From("memberships m").
		LeftJoin("users u ON u.id = m.user_id").
		Where(sq.Eq{"m.tenant_id": tenantID}).
		OrderBy("m.created_at", "m.user_id").
		QueryContext(ctx)
	if err != nil {
		return nil, classify(err, "list members")
	}
	defer rows.Close()

	members := make([]*types.Member, 0)
	for rows.Next() {
		var m types.Member
		if err := rows.Scan(&m.UserID, &m.Role, &m.Email, &m.FirstName, &m.LastName, &m.Course); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate member rows")
	}

	return members, nil
}

func (s *Storage) CreateInvitationCode(ctx context.Context, c *types.InvitationCode) (*types.InvitationCode, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateInvitationCode")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invitation code ID: %w", err)
	}

	created := *c
	created.ID = id.String()

	err = s.db.Statement(ctx).
		Insert("invitation_codes").
		Columns("id", "tenant_id", "kind", "code").
		Values(created.ID, c.TenantID, string(c.Kind), c.Code).
		Suffix("RETURNING created_at").
		QueryRowContext(ctx).
		Scan(&created.CreatedAt)

	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, WrapDuplicateKeyError(err, "invitation code already exists")
		}
		return nil, classify(err, "insert invitation code")
	}

	return &created, nil
}

func (s *Storage) GetInvitationCode(ctx context.Context, code string) (*types.InvitationCode, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetInvitationCode")
	defer span.End()

	var c types.InvitationCode
	err := s.db.Statement(ctx).
		Select("id", "tenant_id", "kind", "code", "created_at").
		From("invitation_codes").
		Where(sq.Eq{"code": code}).
		QueryRowContext(ctx).
		Scan(&c.ID, &c.TenantID, &c.Kind, &c.Code, &c.CreatedAt)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, classify(err, "get invitation code")
	}

	return &c, nil
}

// ListInvitationCodes returns the codes of a tenant, newest first
func (s *Storage) ListInvitationCodes(ctx context.Context, tenantID string) ([]*types.InvitationCode, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListInvitationCodes")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("id", "tenant_id", "kind", "code", "created_at").
		From("invitation_codes").
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("created_at DESC", "id DESC").
		QueryContext(ctx)
	if err != nil {
		return nil, classify(err, "list invitation codes")
	}
	defer rows.Close()

	codes := make([]*types.InvitationCode, 0)
	for rows.Next() {
		var c types.InvitationCode
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Kind, &c.Code, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invitation code: %w", err)
		}
		codes = append(codes, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate invitation code rows")
	}

	return codes, nil
}

// UpsertUser inserts the user or patches the non empty fields of an existing one
func (s *Storage) UpsertUser(ctx context.Context, u *types.User) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpsertUser")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Insert("users").
		Columns("id", "email", "first_name", "last_name", "national_id", "course", "avatar_url").
		Values(u.ID, u.Email, u.FirstName, u.LastName, u.NationalID, u.Course, u.AvatarURL).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
			first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), users.first_name),
			last_name = COALESCE(NULLIF(EXCLUDED.last_name, ''), users.last_name),
			national_id = COALESCE(NULLIF(EXCLUDED.national_id, ''), users.national_id),
			course = COALESCE(NULLIF(EXCLUDED.course, ''), users.course),
			avatar_url = COALESCE(NULLIF(EXCLUDED.avatar_url, ''), users.avatar_url)`).
		ExecContext(ctx)

	if err != nil {
		return classify(err, "upsert user")
	}

	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetUserByID")
	defer span.End()

	var u types.User
	err := s.db.Statement(ctx).
		Select("id", "email", "first_name", "last_name", "national_id", "course", "avatar_url", "created_at").
		From("users").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.NationalID, &u.Course, &u.AvatarURL, &u.CreatedAt)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, classify(err, "get user")
	}

	rows, err := s.db.Statement(ctx).
		Select("tenant_id").
		From("user_tenants").
		Where(sq.Eq{"user_id": id}).
		OrderBy("created_at").
		QueryContext(ctx)
	if err != nil {
		return nil, classify(err, "list user tenants")
	}
	defer rows.Close()

	u.TenantIDs = make([]string, 0)
	for rows.Next() {
		var tenantID string
		if err := rows.Scan(&tenantID); err != nil {
			return nil, fmt.Errorf("failed to scan user tenant: %w", err)
		}
		u.TenantIDs = append(u.TenantIDs, tenantID)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate user tenant rows")
	}

	return &u, nil
}

func (s *Storage) AddUserTenant(ctx context.Context, userID, tenantID string) error {
	ctx, span := s.tracer.Start(ctx, "storage.AddUserTenant")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Insert("user_tenants").
		Columns("user_id", "tenant_id").
		Values(userID, tenantID).
		Suffix("ON CONFLICT (user_id, tenant_id) DO NOTHING").
		ExecContext(ctx)

	if err != nil {
		return classify(err, "add user tenant")
	}

	return nil
}

func (s *Storage) RemoveUserTenant(ctx context.Context, userID, tenantID string) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoveUserTenant")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Delete("user_tenants").
		Where(sq.Eq{
			"user_id":   userID,
			"tenant_id": tenantID,
		}).
		ExecContext(ctx)

	if err != nil {
		return classify(err, "remove user tenant")
	}

	return nil
}

func (s *Storage) CreateNotifications(ctx context.Context, ns []*types.Notification) error {
	ctx, span := s.tracer.Start(ctx, "storage.CreateNotifications")
	defer span.End()

	if len(ns) == 0 {
		return nil
	}

	query := s.db.Statement(ctx).
		Insert("notifications").
		Columns("id", "user_id", "title", "message", "link", "read")

	for _, n := range ns {
		if n.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate notification ID: %w", err)
			}
			n.ID = id.String()
		}
		query = query.Values(n.ID, n.UserID, n.Title, n.Message, n.Link, n.Read)
	}

	if _, err := query.ExecContext(ctx); err != nil {
		return classify(err, "insert notifications")
	}

	return nil
}

func (s *Storage) ListNotifications(ctx context.Context, userID string, page, size int64) ([]*types.Notification, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListNotifications")
	defer span.End()

	pageSize := db.PageSize(size)

	rows, err := s.db.Statement(ctx).
		Select("id", "user_id", "title", "message", "link", "read", "created_at").
		From("notifications").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(pageSize).
		Offset(db.Offset(page, pageSize)).
		QueryContext(ctx)
	if err != nil {
		return nil, classify(err, "list notifications")
	}
	defer rows.Close()

	notifications := make([]*types.Notification, 0)
	for rows.Next() {
		var n types.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Link, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate notification rows")
	}

	return notifications, nil
}

func (s *Storage) MarkNotificationRead(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.MarkNotificationRead")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("notifications").
		Set("read", true).
		Where(sq.Eq{"id": id, "user_id": userID}).
		ExecContext(ctx)

	if err != nil {
		return classify(err, "mark notification read")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.MarkAllNotificationsRead")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("notifications").
		Set("read", true).
		Where(sq.Eq{"user_id": userID, "read": false}).
		ExecContext(ctx)

	if err != nil {
		return 0, classify(err, "mark notifications read")
	}

	return res.RowsAffected()
}

func (s *Storage) DeleteReadNotifications(ctx context.Context, userID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteReadNotifications")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("notifications").
		Where(sq.Eq{"user_id": userID, "read": true}).
		ExecContext(ctx)

	if err != nil {
		return 0, classify(err, "delete read notifications")
	}

	return res.RowsAffected()
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}
