// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/canonical/center-service/internal/authorization"
	"github.com/canonical/center-service/internal/cache"
	"github.com/canonical/center-service/internal/codes"
	"github.com/canonical/center-service/internal/kratos"
	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/monitoring"
	"github.com/canonical/center-service/internal/openfga"
	"github.com/canonical/center-service/internal/storage/memory"
	"github.com/canonical/center-service/internal/tracing"
	"github.com/canonical/center-service/internal/transaction"
	"github.com/canonical/center-service/internal/types"
	"github.com/canonical/center-service/pkg/notifications"
)

// defaultRetries mirrors the TX_* defaults the server starts with
var defaultRetries = transaction.Config{MaxAttempts: 5, BaseDelay: 20 * time.Millisecond, MaxDelay: 500 * time.Millisecond}

// latentTransactor adds store latency between the work of an attempt and
// its commit. When overlap is set, the first overlap attempts also wait
// for each other before committing so they all run on the same snapshot.
type latentTransactor struct {
	store *memory.Store
	delay time.Duration

	overlap  int32
	attempts atomic.Int32
	barrier  sync.WaitGroup
}

func (l *latentTransactor) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return l.store.WithTx(ctx, func(ctx context.Context) error {
		n := l.attempts.Add(1)

		if err := fn(ctx); err != nil {
			if n <= l.overlap {
				l.barrier.Done()
			}
			return err
		}

		if n <= l.overlap {
			l.barrier.Done()
			l.barrier.Wait()
		}

		time.Sleep(l.delay)
		return nil
	})
}

func (l *latentTransactor) overlapNext(n int32) {
	l.overlap = l.attempts.Load() + n
	l.barrier.Add(int(n))
}

type fixture struct {
	store   *memory.Store
	tx      *latentTransactor
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := logging.NewNoopLogger()
	monitor := monitoring.NewNoopMonitor("center-service", logger)
	tracer := tracing.NewNoopTracer()

	store := memory.NewStore()
	tx := &latentTransactor{store: store, delay: 5 * time.Millisecond}
	runner := transaction.NewRunner(tx, defaultRetries, tracer, monitor, logger)
	authz := authorization.NewAuthorizer(openfga.NewNoopClient(tracer, monitor, logger), tracer, monitor, logger)
	notifier := notifications.NewService(store, tracer, monitor, logger)

	return &fixture{
		store: store,
		tx:    tx,
		service: NewService(
			store, runner, codes.NewGenerator(), cache.NewNoopCache(), authz, notifier, kratos.NewNoopClient(),
			tracer, monitor, logger,
		),
	}
}

// check asserts the structural invariants of a tenant: exclusive role sets
// and the user -> tenant index agreeing with them
func (f *fixture) check(t *testing.T, tenantID, owner string) *types.Tenant {
	t.Helper()

	ctx := context.Background()

	tenant, err := f.store.GetTenantByID(ctx, tenantID)
	if err != nil {
		t.Fatalf("failed to read tenant: %v", err)
	}

	if err := tenant.Roles.Validate(); err != nil {
		t.Fatalf("roles of %s are inconsistent: %v", tenantID, err)
	}

	if tenant.Roles.Owner != owner {
		t.Fatalf("expected owner %s, got %s", owner, tenant.Roles.Owner)
	}

	for userID := range tenant.Roles.Assignments() {
		tenants, err := f.store.ListTenantsByUserID(ctx, userID)
		if err != nil {
			t.Fatalf("failed to list tenants of %s: %v", userID, err)
		}

		if !slices.ContainsFunc(tenants, func(t *types.Tenant) bool { return t.ID == tenantID }) {
			t.Errorf("%s holds a role in %s but the tenant is missing from the user index", userID, tenantID)
		}
	}

	return tenant
}

func (f *fixture) indexed(t *testing.T, userID, tenantID string) bool {
	t.Helper()

	tenants, err := f.store.ListTenantsByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to list tenants of %s: %v", userID, err)
	}

	return slices.ContainsFunc(tenants, func(t *types.Tenant) bool { return t.ID == tenantID })
}

func (f *fixture) create(t *testing.T, owner string) (*types.Tenant, string, string) {
	t.Helper()

	outcome, err := f.service.CreateTenant(context.Background(), owner, TenantAttributes{Name: "Club X", Courses: []string{"1A"}}, "")
	if err != nil {
		t.Fatalf("failed to create center: %v", err)
	}

	var student, admin string
	for _, c := range outcome.Codes {
		switch c.Kind {
		case types.CodeKindStudent:
			student = c.Code
		case types.CodeKindAdmin:
			admin = c.Code
		}
	}

	return outcome.Tenant, student, admin
}

func expectKind(t *testing.T, err error, kind types.ErrorKind) {
	t.Helper()

	if types.KindOf(err) != kind {
		t.Fatalf("expected kind %s, got %v", kind, err)
	}
}

func TestMembershipLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tenant, studentCode, adminCode := f.create(t, "u1")
	if studentCode == "" || adminCode == "" || studentCode == adminCode {
		t.Fatalf("expected two distinct codes, got %q and %q", studentCode, adminCode)
	}
	if !f.indexed(t, "u1", tenant.ID) {
		t.Fatalf("owner is missing from the user index")
	}
	f.check(t, tenant.ID, "u1")

	if _, err := f.service.RedeemInvitationCode(ctx, "u2", studentCode, types.Profile{FirstName: "Ana"}); err != nil {
		t.Fatalf("failed to redeem: %v", err)
	}
	tenant = f.check(t, tenant.ID, "u1")
	if !slices.Contains(tenant.Roles.Student, "u2") {
		t.Fatalf("expected u2 in the student set, got %+v", tenant.Roles)
	}

	inbox, err := f.store.ListNotifications(ctx, "u1", 1, 10)
	if err != nil {
		t.Fatalf("failed to list notifications: %v", err)
	}
	if len(inbox) != 1 || inbox[0].Message != "Ana joined Club X." {
		t.Fatalf("expected one notification for the owner, got %v", inbox)
	}

	if _, err := f.service.ChangeRole(ctx, "u1", tenant.ID, "u2", types.RoleStudent, types.RoleAdmin); err != nil {
		t.Fatalf("failed to change role: %v", err)
	}
	tenant = f.check(t, tenant.ID, "u1")
	if slices.Contains(tenant.Roles.Student, "u2") || !slices.Contains(tenant.Roles.Admin, "u2") {
		t.Fatalf("expected u2 moved to the admin set, got %+v", tenant.Roles)
	}

	_, err = f.service.ChangeRole(ctx, "u1", tenant.ID, "u2", types.RoleStudent, types.RoleAdmin)
	expectKind(t, err, types.KindNoOp)

	_, err = f.service.RemoveMember(ctx, "u2", tenant.ID, "u1", "")
	expectKind(t, err, types.KindForbidden)

	_, err = f.service.LeaveTenant(ctx, "u1", tenant.ID)
	expectKind(t, err, types.KindOwnerCannotLeave)

	_, err = f.service.RedeemInvitationCode(ctx, "u2", studentCode, types.Profile{})
	expectKind(t, err, types.KindAlreadyMember)

	after := f.check(t, tenant.ID, "u1")
	if after.Version != tenant.Version {
		t.Fatalf("rejected operations changed the version from %d to %d", tenant.Version, after.Version)
	}
}

func TestStaleFromRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tenant, _, adminCode := f.create(t, "u1")

	if _, err := f.service.RedeemInvitationCode(ctx, "u2", adminCode, types.Profile{}); err != nil {
		t.Fatalf("failed to redeem: %v", err)
	}

	_, err := f.service.ChangeRole(ctx, "u1", tenant.ID, "u2", types.RoleStudent, types.RoleAdminPlus)
	expectKind(t, err, types.KindStaleRole)

	_, err = f.service.RemoveMember(ctx, "u1", tenant.ID, "u2", types.RoleStudent)
	expectKind(t, err, types.KindStaleRole)

	f.check(t, tenant.ID, "u1")
}

func TestRedeemAfterLeaving(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tenant, studentCode, _ := f.create(t, "u1")

	if _, err := f.service.RedeemInvitationCode(ctx, "u2", studentCode, types.Profile{}); err != nil {
		t.Fatalf("failed to redeem: %v", err)
	}

	outcome, err := f.service.LeaveTenant(ctx, "u2", tenant.ID)
	if err != nil {
		t.Fatalf("failed to leave: %v", err)
	}
	if outcome.Change.From != types.RoleStudent {
		t.Fatalf("expected to leave the student role, got %s", outcome.Change.From)
	}
	if f.indexed(t, "u2", tenant.ID) {
		t.Fatalf("tenant still indexed for u2 after leaving")
	}

	if _, err := f.service.RedeemInvitationCode(ctx, "u2", studentCode, types.Profile{}); err != nil {
		t.Fatalf("failed to redeem again: %v", err)
	}

	f.check(t, tenant.ID, "u1")
}

func TestConcurrentRedeem(t *testing.T) {
	const n = 50

	ctx := context.Background()
	f := newFixture(t)

	tenant, studentCode, _ := f.create(t, "u1")
	base := f.tx.attempts.Load()
	f.tx.overlapNext(n)

	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.RedeemInvitationCode(ctx, fmt.Sprintf("student-%02d", i), studentCode, types.Profile{})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("redeem %d failed: %v", i, err)
		}
	}

	after := f.check(t, tenant.ID, "u1")
	if len(after.Roles.Student) != n {
		t.Fatalf("expected %d students, got %d", n, len(after.Roles.Student))
	}
	if after.Version != tenant.Version {
		t.Fatalf("joins by distinct users must not move the version, got %d want %d", after.Version, tenant.Version)
	}
	if got := f.tx.attempts.Load() - base; got != n {
		t.Fatalf("expected one attempt per join, got %d", got)
	}
}

func TestConcurrentRedeemSameUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tenant, studentCode, adminCode := f.create(t, "u1")
	f.tx.overlapNext(2)

	var wg sync.WaitGroup
	errs := make([]error, 2)

	for i, code := range []string{studentCode, adminCode} {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			_, errs[i] = f.service.RedeemInvitationCode(ctx, "u2", code, types.Profile{})
		}(i, code)
	}
	wg.Wait()

	var joined int
	for _, err := range errs {
		switch types.KindOf(err) {
		case "":
			joined++
		case types.KindAlreadyMember:
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if joined != 1 {
		t.Fatalf("expected exactly one join, got %v", errs)
	}

	after := f.check(t, tenant.ID, "u1")
	if _, ok := after.Roles.RoleOf("u2"); !ok {
		t.Fatalf("u2 is not a member")
	}
}

func TestConcurrentConflictingRoleChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tenant, studentCode, _ := f.create(t, "u1")

	if _, err := f.service.RedeemInvitationCode(ctx, "u2", studentCode, types.Profile{}); err != nil {
		t.Fatalf("failed to redeem: %v", err)
	}

	targets := []types.Role{types.RoleAdmin, types.RoleAdminPlus}
	errs := make([]error, len(targets))
	f.tx.overlapNext(int32(len(targets)))

	var wg sync.WaitGroup
	for i, to := range targets {
		wg.Add(1)
		go func(i int, to types.Role) {
			defer wg.Done()
			_, errs[i] = f.service.ChangeRole(ctx, "u1", tenant.ID, "u2", types.RoleStudent, to)
		}(i, to)
	}
	wg.Wait()

	var winner types.Role
	for i, err := range errs {
		switch types.KindOf(err) {
		case "":
			if winner != "" {
				t.Fatalf("both changes succeeded")
			}
			winner = targets[i]
		case types.KindStaleRole:
		default:
			t.Fatalf("expected the loser to see StaleRole, got %v", err)
		}
	}

	if winner == "" {
		t.Fatalf("neither change succeeded: %v", errs)
	}

	after := f.check(t, tenant.ID, "u1")
	if role, _ := after.Roles.RoleOf("u2"); role != winner {
		t.Fatalf("expected u2 to hold %s, got %s", winner, role)
	}
}

func TestConcurrentLeaveAndRemove(t *testing.T) {
	ctx := context.Background()

	for round := range 10 {
		f := newFixture(t)

		tenant, studentCode, _ := f.create(t, "u1")

		if _, err := f.service.RedeemInvitationCode(ctx, "u2", studentCode, types.Profile{}); err != nil {
			t.Fatalf("failed to redeem: %v", err)
		}

		var (
			wg              sync.WaitGroup
			leaveErr, rmErr error
		)

		f.tx.overlapNext(2)

		wg.Add(2)
		go func() {
			defer wg.Done()
			_, leaveErr = f.service.LeaveTenant(ctx, "u2", tenant.ID)
		}()
		go func() {
			defer wg.Done()
			_, rmErr = f.service.RemoveMember(ctx, "u1", tenant.ID, "u2", "")
		}()
		wg.Wait()

		if (leaveErr == nil) == (rmErr == nil) {
			t.Fatalf("round %d: expected exactly one success, got leave=%v remove=%v", round, leaveErr, rmErr)
		}

		for _, err := range []error{leaveErr, rmErr} {
			if err != nil && types.KindOf(err) != types.KindNotAMember {
				t.Fatalf("round %d: expected the loser to see NotAMember, got %v", round, err)
			}
		}

		after := f.check(t, tenant.ID, "u1")
		if _, ok := after.Roles.RoleOf("u2"); ok || f.indexed(t, "u2", tenant.ID) {
			t.Fatalf("round %d: u2 still present after leaving", round)
		}
	}
}

func TestCanceledContext(t *testing.T) {
	f := newFixture(t)

	tenant, _, _ := f.create(t, "u1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.ChangeRole(ctx, "u1", tenant.ID, "u1", types.RoleStudent, types.RoleAdmin)
	expectKind(t, err, types.KindTimeout)

	_, err = f.service.LeaveTenant(ctx, "u2", tenant.ID)
	expectKind(t, err, types.KindTimeout)
}
