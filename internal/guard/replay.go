// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package guard

import (
	"context"
	"sync"
	"time"

	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/models"
)

const (
	// acceptWindow bounds how old a request's declared timestamp may be.
	acceptWindow = 20 * time.Minute

	// retention keeps accepted identifiers slightly past the acceptance
	// window, so a request cannot slip through right as its twin is pruned.
	retention = 21 * time.Minute

	// replaySweepEvery is the interval between prune passes.
	replaySweepEvery = 5 * time.Minute
)

type nonceEntry struct {
	id         string
	acceptedAt time.Time
}

// RequestValidator rejects replayed or stale request identifiers across the
// whole service.
//
// Accepted identifiers are held in a hash set for O(1) membership checks and
// in an insertion-ordered queue so pruning only inspects the oldest entries.
// Both structures are updated together under one mutex.
type RequestValidator struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	queue     []nonceEntry
	lastSweep time.Time

	// now is replaceable in tests.
	now func() time.Time

	logger *logger.Logger
}

// NewRequestValidator constructs an empty replay table.
func NewRequestValidator(log *logger.Logger) *RequestValidator {
	return &RequestValidator{
		seen:   make(map[string]time.Time),
		now:    time.Now,
		logger: log,
	}
}

// ValidateRequest accepts req at most once.
//
// Acceptance requires, in order: structural validity of the envelope
// (non-empty required fields), an identifier that has not been recorded
// before, and a declared timestamp no older than the acceptance window.
// On acceptance the identifier is recorded atomically in both the set and
// the queue. A request can be "not a replay" yet still invalid.
func (v *RequestValidator) ValidateRequest(req *models.SignedRequest) bool {
	if !req.Valid() {
		v.logger.Debug().Str("request_id", req.RequestID).Msg("structurally invalid request envelope")
		return false
	}

	now := v.now()

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, replayed := v.seen[req.RequestID]; replayed {
		v.logger.Debug().Str("request_id", req.RequestID).Msg("replayed request identifier")
		return false
	}

	if now.Sub(req.Timestamp) > acceptWindow {
		v.logger.Debug().
			Str("request_id", req.RequestID).
			Time("timestamp", req.Timestamp).
			Msg("request timestamp outside acceptance window")
		return false
	}

	v.seen[req.RequestID] = now
	v.queue = append(v.queue, nonceEntry{id: req.RequestID, acceptedAt: now})

	return true
}

// Run drives the prune sweep until ctx is cancelled. It implements
// [workers.Worker].
func (v *RequestValidator) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.mu.Lock()
			if now := v.now(); now.Sub(v.lastSweep) >= replaySweepEvery {
				v.lastSweep = now
				v.sweepLocked(now)
			}
			v.mu.Unlock()
		}
	}
}

// sweepLocked drops entries older than the retention threshold from the
// front of the queue and from the set. The queue is insertion-ordered, so
// the walk stops at the first entry young enough to keep. Caller holds mu.
func (v *RequestValidator) sweepLocked(now time.Time) {
	keep := 0
	for ; keep < len(v.queue); keep++ {
		if now.Sub(v.queue[keep].acceptedAt) <= retention {
			break
		}
		delete(v.seen, v.queue[keep].id)
	}

	if keep > 0 {
		v.queue = append(v.queue[:0], v.queue[keep:]...)
	}
}
