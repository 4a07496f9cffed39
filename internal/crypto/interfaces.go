package crypto

import "github.com/mlevkov/go-note-sync/models"

// Verifier checks role-tagged detached signatures on signable values.
//
// Every mutating server operation composes one or more Verify calls against
// the acting user's stored public key and, where a shared key is involved,
// the key's stored public key, before touching the durable store.
type Verifier interface {
	// Verify recomputes the canonical payload of s and checks the signature
	// stored under role. It returns false if the named signature is absent
	// or invalid; a plain mismatch is never an error.
	Verify(role string, s models.Signable) bool
}

// Signer produces role-tagged detached signatures in addition to verifying
// them. Multiple roles may coexist on one value (e.g. "user", "key",
// "old-key"), each an independent proof required for one operation.
type Signer interface {
	Verifier

	// Sign computes the canonical payload of s, signs it, and attaches the
	// signature tagged by role, preserving signatures under other roles.
	Sign(role string, s models.Signable) error
}
