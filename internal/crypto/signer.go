// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/mlevkov/go-note-sync/models"
)

// AlgorithmEd25519 is the only signing algorithm currently accepted for
// account and key proof pairs.
const AlgorithmEd25519 = "ed25519"

// Signature roles composed by the authorization chain.
const (
	RoleUser   = "user"    // proof of control of the account key pair
	RoleKey    = "key"     // proof of access to the note's shared key
	RoleOldKey = "old-key" // proof of access to the previous key during re-key
	RoleServer = "server"  // server-produced proof on mutation events
)

// KeyRole returns the role tagging a key proof for one specific key name.
// A batch touches several key names at once; signatures live in a
// map[role]signature, so a flat "key" role would let the proof for one name
// overwrite the proof for another.
func KeyRole(keyName string) string {
	return RoleKey + ":" + keyName
}

var (
	// ErrUnsupportedAlgorithm is returned when a verifier or signer is
	// requested for an algorithm the chain does not implement.
	ErrUnsupportedAlgorithm = errors.New("unsupported signature algorithm")

	// ErrInvalidKeyMaterial is returned when supplied key bytes cannot be
	// decoded or have the wrong length for the requested algorithm.
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrNoPrivateKey is returned by Sign on a verify-only instance.
	ErrNoPrivateKey = errors.New("no private key available for signing")
)

// ed25519Chain implements [Signer] over raw ed25519 keys. The private key is
// optional; without it the instance is verify-only.
type ed25519Chain struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// NewVerifier constructs a verify-only instance for the given algorithm and
// base64-encoded public key.
func NewVerifier(algorithm, publicKey string) (Verifier, error) {
	return newChain(algorithm, publicKey, "")
}

// NewSigner constructs a signing-capable instance for the given algorithm
// and base64-encoded public and private keys.
func NewSigner(algorithm, publicKey, privateKey string) (Signer, error) {
	if privateKey == "" {
		return nil, ErrNoPrivateKey
	}
	return newChain(algorithm, publicKey, privateKey)
}

func newChain(algorithm, publicKey, privateKey string) (*ed25519Chain, error) {
	if algorithm != AlgorithmEd25519 {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}

	pub, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding public key: %w", ErrInvalidKeyMaterial, err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes", ErrInvalidKeyMaterial, ed25519.PublicKeySize)
	}

	chain := &ed25519Chain{public: ed25519.PublicKey(pub)}

	if privateKey != "" {
		priv, err := base64.StdEncoding.DecodeString(privateKey)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding private key: %w", ErrInvalidKeyMaterial, err)
		}
		// accept both the 64-byte private key and the 32-byte seed form
		switch len(priv) {
		case ed25519.PrivateKeySize:
			chain.private = ed25519.PrivateKey(priv)
		case ed25519.SeedSize:
			chain.private = ed25519.NewKeyFromSeed(priv)
		default:
			return nil, fmt.Errorf("%w: private key must be %d or %d bytes", ErrInvalidKeyMaterial, ed25519.PrivateKeySize, ed25519.SeedSize)
		}
	}

	return chain, nil
}

// Sign implements [Signer].
func (c *ed25519Chain) Sign(role string, s models.Signable) error {
	if c.private == nil {
		return ErrNoPrivateKey
	}

	payload, err := CanonicalPayload(s)
	if err != nil {
		return err
	}

	signature := ed25519.Sign(c.private, payload)

	signatures := s.GetSignatures()
	if signatures == nil {
		signatures = make(map[string]string, 1)
	}
	signatures[role] = base64.StdEncoding.EncodeToString(signature)
	s.SetSignatures(signatures)

	return nil
}

// Verify implements [Verifier].
func (c *ed25519Chain) Verify(role string, s models.Signable) bool {
	encoded, ok := s.GetSignatures()[role]
	if !ok {
		return false
	}

	signature, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}

	payload, err := CanonicalPayload(s)
	if err != nil {
		return false
	}

	return ed25519.Verify(c.public, payload, signature)
}

// GenerateKeyPair produces a fresh ed25519 key pair, base64-encoded. Used by
// the server for its event signing key; clients generate their own pairs.
func GenerateKeyPair() (publicKey, privateKey string, err error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return "", "", fmt.Errorf("error generating key pair: %w", err)
	}

	return base64.StdEncoding.EncodeToString(pub), base64.StdEncoding.EncodeToString(priv), nil
}
