// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

// CentersClaim is the token claim listing the centers the subject belongs to
const CentersClaim = "centers"

type KratosIdentity struct {
	ID     string       `json:"id"`
	Traits KratosTraits `json:"traits"`
}

type KratosTraits struct {
	Email string `json:"email"`
}

// TokenHookResponse follows the Hydra token hook contract, claims set here are
// merged into the issued tokens
type TokenHookResponse struct {
	Session TokenHookSession `json:"session"`
}

type TokenHookSession struct {
	IDToken     map[string]interface{} `json:"id_token,omitempty"`
	AccessToken map[string]interface{} `json:"access_token,omitempty"`
}
