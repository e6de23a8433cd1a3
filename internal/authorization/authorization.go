// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"fmt"

	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/monitoring"
	"github.com/canonical/center-service/internal/openfga"
	"github.com/canonical/center-service/internal/tracing"
	"github.com/canonical/center-service/internal/types"
)

var ErrInvalidAuthModel = fmt.Errorf("invalid authorization model schema")

var _ AuthorizerInterface = (*Authorizer)(nil)

type Authorizer struct {
	client AuthzClientInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *Authorizer) ValidateModel(ctx context.Context) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.ValidateModel")
	defer span.End()

	v0AuthzModel := NewAuthorizationModelProvider("v0")
	model := *v0AuthzModel.GetModel()

	eq, err := a.client.CompareModel(ctx, model)
	if err != nil {
		return err
	}
	if !eq {
		return ErrInvalidAuthModel
	}
	return nil
}

func (a *Authorizer) AssignRole(ctx context.Context, tenantId, userId string, role types.Role) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.AssignRole")
	defer span.End()

	relation, err := RoleRelation(role)
	if err != nil {
		return err
	}

	return a.client.WriteTuple(ctx, UserTuple(userId), relation, CenterTuple(tenantId))
}

func (a *Authorizer) RemoveRole(ctx context.Context, tenantId, userId string, role types.Role) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.RemoveRole")
	defer span.End()

	relation, err := RoleRelation(role)
	if err != nil {
		return err
	}

	return a.client.DeleteTuple(ctx, UserTuple(userId), relation, CenterTuple(tenantId))
}

func (a *Authorizer) MoveRole(ctx context.Context, tenantId, userId string, from, to types.Role) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.MoveRole")
	defer span.End()

	fromRelation, err := RoleRelation(from)
	if err != nil {
		return err
	}

	toRelation, err := RoleRelation(to)
	if err != nil {
		return err
	}

	user, object := UserTuple(userId), CenterTuple(tenantId)

	return a.client.ReplaceTuple(
		ctx,
		*openfga.NewTuple(user, fromRelation, object),
		*openfga.NewTuple(user, toRelation, object),
	)
}

func NewAuthorizer(client AuthzClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Authorizer {
	authorizer := new(Authorizer)
	authorizer.client = client
	authorizer.tracer = tracer
	authorizer.monitor = monitor
	authorizer.logger = logger

	return authorizer
}
