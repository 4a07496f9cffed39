// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package guard holds the in-process protection state of the server: the
// one-time login challenge table and the request replay table. Each
// structure is an independently constructible component owned by the server
// context and guarded by its own mutex; both run a background sweep as a
// [workers.Worker].
package guard

import (
	"context"
	"crypto/hmac"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/mlevkov/go-note-sync/internal/crypto"
	"github.com/mlevkov/go-note-sync/internal/logger"
)

const (
	// challengeTTL bounds how long an issued challenge stays answerable.
	challengeTTL = 10 * time.Minute

	// challengeSweepEvery is the interval between full scans of the
	// challenge table.
	challengeSweepEvery = 10 * time.Minute

	// pollInterval is the tick of the background sweep loops. The tick is
	// short so shutdown is prompt; the heavy work runs on the sweep
	// thresholds above.
	pollInterval = 100 * time.Millisecond

	challengeNonceBytes = 32
)

type challenge struct {
	nonce    string
	issuedAt time.Time
}

// ChallengeManager issues single-use password-proof challenges per username
// and expires them. State machine per username: Absent → Issued → Consumed.
// At most one live challenge exists per username; issuing overwrites any
// prior unconsumed one.
type ChallengeManager struct {
	mu         sync.Mutex
	challenges map[string]challenge
	lastSweep  time.Time

	// now is replaceable in tests.
	now func() time.Time

	logger *logger.Logger
}

// NewChallengeManager constructs an empty challenge table.
func NewChallengeManager(log *logger.Logger) *ChallengeManager {
	return &ChallengeManager{
		challenges: make(map[string]challenge),
		now:        time.Now,
		logger:     log,
	}
}

// IssueChallenge generates a cryptographically random nonce for username,
// stores it (overwriting any prior unconsumed challenge), and returns it.
func (m *ChallengeManager) IssueChallenge(username string) (string, error) {
	nonce, err := crypto.RandBytes(challengeNonceBytes)
	if err != nil {
		return "", err
	}
	encoded := hex.EncodeToString(nonce)

	m.mu.Lock()
	m.challenges[strings.ToLower(username)] = challenge{
		nonce:    encoded,
		issuedAt: m.now(),
	}
	m.mu.Unlock()

	return encoded, nil
}

// ValidateChallenge checks response against the live challenge for username.
//
// The expected response is the keyed hash of the stored challenge nonce
// under the (possibly truncated to hashLength) password hash; see
// [crypto.ChallengeResponse]. On a constant-time match the challenge is
// atomically removed — a challenge can be consumed at most once. On any
// failure nothing is consumed.
func (m *ChallengeManager) ValidateChallenge(username, passwordHash, response string, hashLength int) bool {
	key := strings.ToLower(username)

	m.mu.Lock()
	defer m.mu.Unlock()

	live, ok := m.challenges[key]
	if !ok {
		m.logger.Debug().Str("username", key).Msg("challenge validation without a live challenge")
		return false
	}

	expected := crypto.ChallengeResponse(live.nonce, passwordHash, hashLength)
	if !hmac.Equal([]byte(expected), []byte(response)) {
		m.logger.Debug().Str("username", key).Msg("challenge response mismatch")
		return false
	}

	delete(m.challenges, key)
	return true
}

// Run drives the expiry sweep until ctx is cancelled. It implements
// [workers.Worker].
func (m *ChallengeManager) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			if now := m.now(); now.Sub(m.lastSweep) >= challengeSweepEvery {
				m.lastSweep = now
				m.sweepLocked(now)
			}
			m.mu.Unlock()
		}
	}
}

// sweepLocked discards challenges older than challengeTTL. Caller holds mu.
func (m *ChallengeManager) sweepLocked(now time.Time) {
	for username, live := range m.challenges {
		if now.Sub(live.issuedAt) > challengeTTL {
			delete(m.challenges, username)
		}
	}
}
