package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PasswordAlgorithmPBKDF2 names the key-derivation function behind the
// stored password-verification material.
const PasswordAlgorithmPBKDF2 = "pbkdf2-sha256"

// DefaultPasswordIterations is the PBKDF2 iteration count suggested to
// clients at registration time.
const DefaultPasswordIterations = 100_000

const passwordKeyLength = 32

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("error reading random bytes: %w", err)
	}
	return b, nil
}

// DerivePasswordHash derives the hex-encoded PBKDF2-SHA256 verification
// hash from a password and hex-encoded salt. The server only ever receives
// the derived hash from clients; this helper exists for tests and tooling.
func DerivePasswordHash(password, saltHex string, iterations int) (string, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return "", fmt.Errorf("error decoding password salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, iterations, passwordKeyLength, sha256.New)
	return hex.EncodeToString(key), nil
}

// ChallengeResponse computes the expected answer to a login challenge: an
// HMAC-SHA256 of the challenge nonce keyed by the (possibly truncated)
// password hash, hex-encoded.
//
// hashLength bounds how many characters of the password hash are used as
// the key; zero or out-of-range means the full hash.
func ChallengeResponse(challenge, passwordHash string, hashLength int) string {
	key := passwordHash
	if hashLength > 0 && hashLength < len(key) {
		key = key[:hashLength]
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(challenge))
	return hex.EncodeToString(mac.Sum(nil))
}
