// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Signable is implemented by every value that can carry detached role-tagged
// signatures. Multiple roles may coexist on one value (e.g. "user", "key",
// "old-key"), each representing an independent proof required for one
// operation.
//
// The signature collection is excluded from the canonical payload that gets
// signed; see [crypto.CanonicalPayload].
type Signable interface {
	// GetSignatures returns the current signature collection, keyed by role.
	// A nil map means the value is unsigned.
	GetSignatures() map[string]string

	// SetSignatures replaces the signature collection.
	SetSignatures(signatures map[string]string)
}

// SignedRequest is the common envelope embedded in every mutating request.
//
// RequestID and Timestamp make the request non-repeatable: the request
// validator records every accepted RequestID and rejects duplicates as well
// as requests whose Timestamp falls outside the acceptance window.
type SignedRequest struct {
	// RequestID is the unique identifier of this request (UUID). Accepted
	// at most once.
	RequestID string `json:"request_id"`

	// Username names the acting user.
	Username string `json:"username"`

	// Timestamp is the client-declared creation time of the request.
	Timestamp time.Time `json:"timestamp"`

	// Signatures holds the role-tagged detached signatures over the
	// canonical payload of the full request value.
	Signatures map[string]string `json:"signatures,omitempty"`
}

// GetSignatures implements [Signable].
func (r *SignedRequest) GetSignatures() map[string]string {
	return r.Signatures
}

// SetSignatures implements [Signable].
func (r *SignedRequest) SetSignatures(signatures map[string]string) {
	r.Signatures = signatures
}

// Valid reports whether the envelope carries all structurally required
// fields. A request can be "not a replay" yet still invalid.
func (r *SignedRequest) Valid() bool {
	return r.RequestID != "" && r.Username != "" && !r.Timestamp.IsZero()
}
