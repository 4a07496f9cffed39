// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package synclock implements the two-tier (per-user, per-key) advisory
// reader/writer lock manager that serializes synchronization snapshots
// against concurrent writes.
//
// The locks are in-process, not store-level: they make a logical unit of
// work (e.g. "snapshot of everything this user can see") consistent in the
// face of concurrent writers touching the same key name, independent of the
// isolation the underlying store provides for any single statement sequence.
//
// Acquisition is all-or-nothing per attempt: a failed attempt never leaves
// anything partially locked, which is what prevents deadlock between
// concurrent multi-key acquisitions. Attempts retry on a fixed backoff until
// an overall timeout; no fairness is guaranteed between competing acquirers.
package synclock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mlevkov/go-note-sync/internal/logger"
)

// Defaults of the retry/timeout policy, used when the configured values are
// zero.
const (
	DefaultRetryDelay = 200 * time.Millisecond
	DefaultTimeout    = 10 * time.Second
)

// ErrTimeout is returned when an acquisition does not succeed within its
// overall timeout. The caller is guaranteed that no resource is left held.
var ErrTimeout = errors.New("sync lock acquisition timed out")

// KeyNameSource supplies the set of key names visible to a user. The set is
// only ever mutated by code holding that user's writer lock, so reading it
// while holding the user's reader lock is safe.
type KeyNameSource interface {
	GetUserKeyNames(ctx context.Context, userID string) ([]string, error)
}

// Manager owns the two lock tables, one keyed by user identifier and one by
// key name. A single mutex guards both tables, so a multi-resource check and
// claim happens atomically.
type Manager struct {
	mu    sync.Mutex
	users *table
	keys  *table

	keySource  KeyNameSource
	retryDelay time.Duration
	timeout    time.Duration

	logger *logger.Logger
}

// NewManager constructs a lock manager. retryDelay and timeout fall back to
// the package defaults when zero.
func NewManager(keySource KeyNameSource, retryDelay, timeout time.Duration, log *logger.Logger) *Manager {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Manager{
		users:      newTable(),
		keys:       newTable(),
		keySource:  keySource,
		retryDelay: retryDelay,
		timeout:    timeout,
		logger:     log,
	}
}

// Lock is a releasable handle over the exact resource set acquired.
type Lock struct {
	manager  *Manager
	userID   string
	keyNames []string
	writer   bool
	released bool
	mu       sync.Mutex
}

// TakeReaderLock acquires a shared lock over userID and every key name the
// user can currently see.
//
// Each attempt first claims a user-level reader slot, then resolves the
// user's key names (outside the manager mutex — the store call must not
// block other acquirers), then atomically verifies and claims a reader slot
// on every key. If any key is unavailable the user reader slot is rolled
// back and the attempt retries after the fixed backoff. A zero timeout means
// the manager default.
func (m *Manager) TakeReaderLock(ctx context.Context, userID string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		timeout = m.timeout
	}
	deadline := time.Now().Add(timeout)

	for {
		claimed := false
		m.mu.Lock()
		if m.users.isOpenForRead(userID) {
			m.users.addReader(userID)
			claimed = true
		}
		m.mu.Unlock()

		if claimed {
			keyNames, err := m.keySource.GetUserKeyNames(ctx, userID)
			if err != nil {
				m.mu.Lock()
				m.users.removeReader(userID)
				m.mu.Unlock()
				return nil, fmt.Errorf("error resolving key names for reader lock: %w", err)
			}

			m.mu.Lock()
			if allOpenForRead(m.keys, keyNames) {
				for _, keyName := range keyNames {
					m.keys.addReader(keyName)
				}
				m.mu.Unlock()
				return &Lock{manager: m, userID: userID, keyNames: keyNames}, nil
			}
			m.users.removeReader(userID)
			m.mu.Unlock()
		}

		if time.Now().Add(m.retryDelay).After(deadline) {
			m.logger.Debug().Str("user_id", userID).Msg("reader lock acquisition timed out")
			return nil, ErrTimeout
		}
		time.Sleep(m.retryDelay)
	}
}

// TakeWriterLock acquires an exclusive lock over userID and every name in
// keyNames. The user-level and all key-level write-openness checks and the
// claims happen under one mutex hold; a failed attempt claims nothing and
// retries after the fixed backoff. A zero timeout means the manager default.
func (m *Manager) TakeWriterLock(ctx context.Context, userID string, keyNames []string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		timeout = m.timeout
	}
	deadline := time.Now().Add(timeout)

	for {
		m.mu.Lock()
		if m.users.isOpenForWrite(userID) && allOpenForWrite(m.keys, keyNames) {
			m.users.addWriter(userID)
			for _, keyName := range keyNames {
				m.keys.addWriter(keyName)
			}
			m.mu.Unlock()
			return &Lock{manager: m, userID: userID, keyNames: keyNames, writer: true}, nil
		}
		m.mu.Unlock()

		if time.Now().Add(m.retryDelay).After(deadline) {
			m.logger.Debug().
				Str("user_id", userID).
				Strs("key_names", keyNames).
				Msg("writer lock acquisition timed out")
			return nil, ErrTimeout
		}
		time.Sleep(m.retryDelay)
	}
}

// Release returns every resource the handle holds. A writer handle vacates
// the user writer slot and every key writer slot; a reader handle decrements
// the user reader slot and every key reader slot it was granted. Release is
// idempotent.
func (l *Lock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	l.released = true

	m := l.manager
	m.mu.Lock()
	defer m.mu.Unlock()

	if l.writer {
		m.users.removeWriter(l.userID)
		for _, keyName := range l.keyNames {
			m.keys.removeWriter(keyName)
		}
		return
	}

	m.users.removeReader(l.userID)
	for _, keyName := range l.keyNames {
		m.keys.removeReader(keyName)
	}
}

// KeyNames returns the exact key-name set the handle holds.
func (l *Lock) KeyNames() []string {
	return l.keyNames
}

func allOpenForRead(t *table, keys []string) bool {
	for _, key := range keys {
		if !t.isOpenForRead(key) {
			return false
		}
	}
	return true
}

func allOpenForWrite(t *table, keys []string) bool {
	for _, key := range keys {
		if !t.isOpenForWrite(key) {
			return false
		}
	}
	return true
}
