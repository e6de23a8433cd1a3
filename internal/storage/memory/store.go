// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package memory is an in-process implementation of the storage contracts,
// used by tests and by local development servers.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/canonical/center-service/internal/storage"
)

var _ storage.StorageInterface = (*Store)(nil)

type txContextKey struct{}

type op func(*state) error

// tx buffers writes, reads see the snapshot taken at begin plus own writes
type tx struct {
	work *state
	ops  []op
}

// Store keeps every table in memory. Transactions are optimistic: writes are
// replayed onto the latest committed state at commit, and a version bump
// that no longer matches fails the whole transaction with storage.ErrConflict.
type Store struct {
	mu    sync.RWMutex
	state *state

	// commitHook runs under the write lock right before a commit is applied
	commitHook func()
}

func txFromContext(ctx context.Context) *tx {
	if t, ok := ctx.Value(txContextKey{}).(*tx); ok {
		return t
	}
	return nil
}

// WithTx runs fn in a transaction, nested calls join the outer one
func (s *Store) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	t := &tx{work: s.state.clone()}
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txContextKey{}, t)); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.commit(t)
}

func (s *Store) commit(t *tx) error {
	if len(t.ops) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commitHook != nil {
		s.commitHook()
	}

	// every op already succeeded on the snapshot, a failed replay means a
	// concurrent commit changed what the transaction read
	work := s.state.clone()
	for _, o := range t.ops {
		if err := o(work); err != nil {
			return fmt.Errorf("failed to commit transaction: %w: %v", storage.ErrConflict, err)
		}
	}

	s.state = work

	return nil
}

// write applies o to the transaction carried by ctx, or commits it directly
func (s *Store) write(ctx context.Context, o op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if t := txFromContext(ctx); t != nil {
		if err := o(t.work); err != nil {
			return err
		}
		t.ops = append(t.ops, o)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return o(s.state)
}

func (s *Store) read(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if t := txFromContext(ctx); t != nil {
		return fn(t.work)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(s.state)
}

func NewStore() *Store {
	s := new(Store)
	s.state = newState()

	return s
}
