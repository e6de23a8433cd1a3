// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	httpTypes "github.com/canonical/center-service/internal/http/types"
	"github.com/canonical/center-service/internal/identity"
)

const clientTimeout = 30 * time.Second

// apiError is a non-2xx envelope returned by the server
type apiError struct {
	status   int
	kind     string
	message  string
	warnings []string
}

func (e *apiError) Error() string {
	if e.kind == "" {
		return fmt.Sprintf("api error (status %d): %s", e.status, e.message)
	}

	return fmt.Sprintf("api error (status %d, %s): %s", e.status, e.kind, e.message)
}

// envelope mirrors httpTypes.Response, keeping data raw until the caller
// knows what to decode it into
type envelope struct {
	httpTypes.Response
	Data json.RawMessage `json:"data,omitempty"`
}

type centerClient struct {
	endpoint string
	userID   string
	token    string
	language string

	client *http.Client
}

func (c *centerClient) do(ctx context.Context, method, path string, in, out interface{}) (*envelope, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set(identity.HeaderName, c.userID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	env := new(envelope)
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		return env, &apiError{
			status:   resp.StatusCode,
			kind:     string(env.ErrorKind),
			message:  env.Message,
			warnings: env.Warnings,
		}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return env, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return env, nil
}

func newCenterClient(endpoint, userID, token, language string) *centerClient {
	if !strings.HasPrefix(endpoint, "http") {
		endpoint = "http://" + endpoint
	}

	return &centerClient{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		userID:   userID,
		token:    token,
		language: language,
		client: &http.Client{
			Timeout:   clientTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func getClient() *centerClient {
	return newCenterClient(endpoint, userID, accessToken, language)
}
