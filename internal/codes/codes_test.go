// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package codes

import (
	"bytes"
	"errors"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestGenerate(t *testing.T) {
	g := NewGenerator()
	seen := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		code, err := g.Generate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !Valid(code) {
			t.Fatalf("generated code %q is not valid", code)
		}

		if seen[code] {
			t.Fatalf("code %q generated twice", code)
		}
		seen[code] = true
	}
}

func TestGenerateEncoding(t *testing.T) {
	g := &Generator{source: bytes.NewReader(bytes.Repeat([]byte{0xab}, entropyBytes))}

	code, err := g.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if code != "abababababababababababababababab" {
		t.Fatalf("unexpected code %q", code)
	}
}

func TestGenerateSourceError(t *testing.T) {
	tests := []struct {
		name   string
		source Generator
	}{
		{name: "reader error", source: Generator{source: failingReader{}}},
		{name: "short read", source: Generator{source: bytes.NewReader([]byte{1, 2, 3})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.source.Generate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected bool
	}{
		{name: "valid", code: "0123456789abcdef0123456789abcdef", expected: true},
		{name: "uppercase", code: "0123456789ABCDEF0123456789ABCDEF", expected: false},
		{name: "too short", code: "0123456789abcdef", expected: false},
		{name: "too long", code: "0123456789abcdef0123456789abcdef0", expected: false},
		{name: "not hex", code: "0123456789abcdef0123456789abcdeg", expected: false},
		{name: "empty", code: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.code); got != tt.expected {
				t.Errorf("Valid(%q) = %v, expected %v", tt.code, got, tt.expected)
			}
		})
	}
}
