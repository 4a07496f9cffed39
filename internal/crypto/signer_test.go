package crypto

import (
	"testing"
	"time"

	"github.com/mlevkov/go-note-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequest() *models.UpdateNoteRequest {
	return &models.UpdateNoteRequest{
		SignedRequest: models.SignedRequest{
			RequestID: "6f1e9c52-9be5-4c7e-8f6d-2f3a1b4c5d6e",
			Username:  "alice",
			Timestamp: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		},
		NoteID:  "0c7d41aa-11f2-4f5c-9d3e-aaa111bbb222",
		KeyName: "personal",
		Items: []models.NoteItem{
			{Type: "content", Version: 3, Data: "ciphertext"},
		},
	}
}

func TestSignVerify_RoundTrip(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	signer, err := NewSigner(AlgorithmEd25519, pub, priv)
	require.NoError(t, err)

	req := newTestRequest()
	require.NoError(t, signer.Sign(RoleUser, req))

	assert.True(t, signer.Verify(RoleUser, req))

	verifier, err := NewVerifier(AlgorithmEd25519, pub)
	require.NoError(t, err)
	assert.True(t, verifier.Verify(RoleUser, req))
}

func TestVerify_AbsentRole(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	signer, err := NewSigner(AlgorithmEd25519, pub, priv)
	require.NoError(t, err)

	req := newTestRequest()
	require.NoError(t, signer.Sign(RoleUser, req))

	// the "key" role was never signed
	assert.False(t, signer.Verify(RoleKey, req))
}

func TestSign_KeyRolesCoexist(t *testing.T) {
	pubA, privA, err := GenerateKeyPair()
	require.NoError(t, err)
	pubB, privB, err := GenerateKeyPair()
	require.NoError(t, err)

	signerA, err := NewSigner(AlgorithmEd25519, pubA, privA)
	require.NoError(t, err)
	signerB, err := NewSigner(AlgorithmEd25519, pubB, privB)
	require.NoError(t, err)

	// name-tagged roles: the second proof must not overwrite the first
	req := newTestRequest()
	require.NoError(t, signerA.Sign(KeyRole("personal"), req))
	require.NoError(t, signerB.Sign(KeyRole("team"), req))

	assert.True(t, signerA.Verify(KeyRole("personal"), req))
	assert.True(t, signerB.Verify(KeyRole("team"), req))
	assert.False(t, signerA.Verify(KeyRole("team"), req))
}

func TestVerify_TamperedPayload(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	signer, err := NewSigner(AlgorithmEd25519, pub, priv)
	require.NoError(t, err)

	req := newTestRequest()
	require.NoError(t, signer.Sign(RoleUser, req))

	req.Items[0].Data = "tampered"
	assert.False(t, signer.Verify(RoleUser, req))
}

func TestVerify_WrongKey(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)
	otherPub, _, err := GenerateKeyPair()
	require.NoError(t, err)

	signer, err := NewSigner(AlgorithmEd25519, pub, priv)
	require.NoError(t, err)

	req := newTestRequest()
	require.NoError(t, signer.Sign(RoleUser, req))

	verifier, err := NewVerifier(AlgorithmEd25519, otherPub)
	require.NoError(t, err)
	assert.False(t, verifier.Verify(RoleUser, req))
}

func TestSign_RolesCoexist(t *testing.T) {
	userPub, userPriv, err := GenerateKeyPair()
	require.NoError(t, err)
	keyPub, keyPriv, err := GenerateKeyPair()
	require.NoError(t, err)

	userSigner, err := NewSigner(AlgorithmEd25519, userPub, userPriv)
	require.NoError(t, err)
	keySigner, err := NewSigner(AlgorithmEd25519, keyPub, keyPriv)
	require.NoError(t, err)

	req := newTestRequest()
	require.NoError(t, userSigner.Sign(RoleUser, req))
	require.NoError(t, keySigner.Sign(RoleKey, req))

	// both proofs must still verify independently
	assert.True(t, userSigner.Verify(RoleUser, req))
	assert.True(t, keySigner.Verify(RoleKey, req))

	// cross-role checks must fail: each proof is bound to its own key
	assert.False(t, userSigner.Verify(RoleKey, req))
	assert.False(t, keySigner.Verify(RoleUser, req))
}

func TestCanonicalPayload_ExcludesSignatures(t *testing.T) {
	req := newTestRequest()

	unsigned, err := CanonicalPayload(req)
	require.NoError(t, err)

	req.SetSignatures(map[string]string{RoleUser: "c2lnbmF0dXJl"})
	signed, err := CanonicalPayload(req)
	require.NoError(t, err)

	assert.Equal(t, unsigned, signed, "canonical payload must not depend on attached signatures")
	assert.Equal(t, map[string]string{RoleUser: "c2lnbmF0dXJl"}, req.GetSignatures(), "signatures must be restored after canonicalization")
}

func TestNewVerifier_UnsupportedAlgorithm(t *testing.T) {
	_, err := NewVerifier("rsa-4096", "AAAA")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestNewVerifier_BadKeyMaterial(t *testing.T) {
	_, err := NewVerifier(AlgorithmEd25519, "not-base64!!!")
	assert.ErrorIs(t, err, ErrInvalidKeyMaterial)

	// valid base64, wrong length
	_, err = NewVerifier(AlgorithmEd25519, "AAAA")
	assert.ErrorIs(t, err, ErrInvalidKeyMaterial)
}

func TestNewSigner_RequiresPrivateKey(t *testing.T) {
	pub, _, err := GenerateKeyPair()
	require.NoError(t, err)

	_, err = NewSigner(AlgorithmEd25519, pub, "")
	assert.ErrorIs(t, err, ErrNoPrivateKey)
}
