// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package codes issues invitation codes.
package codes

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

const (
	// entropyBytes gives 128 bits of entropy per code
	entropyBytes = 16
	// Length is the size of an encoded code
	Length = entropyBytes * 2
)

type GeneratorInterface interface {
	Generate() (string, error)
}

var _ GeneratorInterface = (*Generator)(nil)

// Generator produces lowercase hex codes from a cryptographically secure source
type Generator struct {
	source io.Reader
}

func (g *Generator) Generate() (string, error) {
	b := make([]byte, entropyBytes)

	if _, err := io.ReadFull(g.source, b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return hex.EncodeToString(b), nil
}

// Valid reports whether s has the shape of a generated code, it says
// nothing about the code existing
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}

	for _, c := range s {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}

	return true
}

func NewGenerator() *Generator {
	g := new(Generator)
	g.source = rand.Reader

	return g
}
