// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"encoding/json"
	"fmt"

	fga "github.com/openfga/go-sdk"
	"github.com/openfga/language/pkg/go/transformer"
)

var models = map[string]string{
	"v0": `model
  schema 1.1

type user

type center
  relations
    define owner: [user]
    define admin_plus: [user]
    define admin: [user]
    define student: [user]
    define member: owner or admin_plus or admin or student
    define can_manage_roles: owner
    define can_view_codes: owner or admin_plus
    define can_view_members: member
`,
}

type AuthorizationModelProvider struct {
	version string
}

func (a *AuthorizationModelProvider) DSL() string {
	return models[a.version]
}

// GetModel parses the DSL of the selected version, it panics on an unknown
// version or a broken DSL as both are programming errors
func (a *AuthorizationModelProvider) GetModel() *fga.AuthorizationModel {
	dsl, ok := models[a.version]
	if !ok {
		panic(fmt.Sprintf("unknown authorization model version %q", a.version))
	}

	data, err := transformer.TransformDSLToJSON(dsl)
	if err != nil {
		panic(fmt.Sprintf("invalid authorization model %s: %s", a.version, err))
	}

	model := new(fga.AuthorizationModel)
	if err := json.Unmarshal([]byte(data), model); err != nil {
		panic(fmt.Sprintf("invalid authorization model %s: %s", a.version, err))
	}

	return model
}

func NewAuthorizationModelProvider(version string) *AuthorizationModelProvider {
	a := new(AuthorizationModelProvider)
	a.version = version

	return a
}
