// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"
)

func TestResolveTag(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		accept   string
		expected language.Tag
	}{
		{name: "default", url: "/", expected: language.English},
		{name: "accept language", url: "/", accept: "es-AR,es;q=0.9", expected: language.Spanish},
		{name: "unsupported accept language", url: "/", accept: "ja", expected: language.English},
		{name: "query param wins", url: "/?lang=es", accept: "en-US", expected: language.Spanish},
		{name: "invalid query param", url: "/?lang=not_a_tag!", accept: "es", expected: language.Spanish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}

			if got := ResolveTag(r); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name     string
		tag      language.Tag
		key      string
		args     []any
		expected string
	}{
		{name: "english", tag: language.English, key: "OwnerCannotLeave", expected: "The owner cannot leave the center."},
		{name: "spanish", tag: language.Spanish, key: "OwnerCannotLeave", expected: "El dueño no puede salir del centro."},
		{name: "arguments", tag: language.Spanish, key: MsgJoinedCenter, args: []any{"Club X"}, expected: "Te uniste a Club X."},
		{name: "unknown key", tag: language.English, key: "missing", expected: "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.tag, tt.key, tt.args...); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCatalogsHaveTheSameKeys(t *testing.T) {
	for key := range catalog[language.English] {
		if _, ok := catalog[language.Spanish][key]; !ok {
			t.Errorf("missing spanish translation for %q", key)
		}
	}
}

func TestMiddleware(t *testing.T) {
	var got language.Tag

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/?lang=es", nil)
	Middleware(next).ServeHTTP(httptest.NewRecorder(), req)

	if got != language.Spanish {
		t.Errorf("expected %s, got %s", language.Spanish, got)
	}

	if tag := FromContext(context.Background()); tag != language.English {
		t.Errorf("expected default %s, got %s", language.English, tag)
	}
}
