// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package i18n localizes the short messages carried by API responses.
package i18n

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LangParam is the query parameter used to select a language.
const LangParam = "lang"

var supportedTags = []language.Tag{
	language.English,
	language.Spanish,
}

var tagMatcher = language.NewMatcher(supportedTags)

// Supported returns the list of supported language tags.
func Supported() []language.Tag {
	tags := make([]language.Tag, len(supportedTags))
	copy(tags, supportedTags)
	return tags
}

// Default returns the default language tag.
func Default() language.Tag {
	return language.English
}

func match(tags ...language.Tag) language.Tag {
	_, idx, confidence := tagMatcher.Match(tags...)
	if confidence == language.No {
		return Default()
	}

	return supportedTags[idx]
}

// ResolveTag picks the language from the lang query param, then from
// Accept-Language, falling back to English
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return Default()
	}

	if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return match(tag)
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return match(tags...)
		}
	}

	return Default()
}

// Message renders key in the given language, unknown keys are returned as is
func Message(tag language.Tag, key string, args ...any) string {
	return message.NewPrinter(tag).Sprintf(key, args...)
}

type tagContextKey struct{}

// WithTag stores the request language so that text rendered away from the
// request, e.g. notifications, follows it
func WithTag(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, tagContextKey{}, tag)
}

func FromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(tagContextKey{}).(language.Tag); ok {
		return tag
	}

	return Default()
}

// Middleware resolves the request language once and stores it in the context
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithTag(r.Context(), ResolveTag(r))))
	})
}
