package models

// RegisterRequest creates a new account. Registration is the only mutating
// operation without a signature chain: the account key pair it carries is
// what every later request will be verified against.
type RegisterRequest struct {
	Username            string `json:"username"`
	KeyAlgorithm        string `json:"key_algorithm"`
	PublicKey           string `json:"public_key"`
	EncryptedPrivateKey string `json:"encrypted_private_key"`
	PasswordSalt        string `json:"password_salt"`
	PasswordIterations  int    `json:"password_iterations"`
	PasswordAlgorithm   string `json:"password_algorithm"`
	PasswordHash        string `json:"password_hash"`
	EncryptedSymKey     string `json:"encrypted_sym_key"`
	QuotaTier           string `json:"quota_tier,omitempty"`
}

// ChallengeRequest asks the server to issue a one-time login challenge for
// the named user.
type ChallengeRequest struct {
	Username string `json:"username"`
}

// LoginRequest answers a previously issued challenge. Response must equal
// the keyed hash of the challenge nonce under the (possibly truncated)
// password hash; see the challenge manager.
type LoginRequest struct {
	Username   string `json:"username"`
	Response   string `json:"response"`
	HashLength int    `json:"hash_length,omitempty"`
}

// CreateKeyRequest registers a new shared key ownership record for the
// acting user. Requires the "user" proof.
type CreateKeyRequest struct {
	SignedRequest
	KeyName              string `json:"key_name"`
	Algorithm            string `json:"algorithm"`
	PublicKey            string `json:"public_key"`
	EncryptedKeyMaterial string `json:"encrypted_key_material"`
}

// ShareKeyRequest grants another user access to an existing KeyName by
// inserting a new ownership record for them. Requires the "user" proof of
// the sharer and the "key" proof of the shared KeyName. The key material is
// re-encrypted client-side for the target user before sharing.
type ShareKeyRequest struct {
	SignedRequest
	KeyName              string `json:"key_name"`
	TargetUsername       string `json:"target_username"`
	EncryptedKeyMaterial string `json:"encrypted_key_material"`
}

// DeleteKeyRequest removes the acting user's ownership record of a KeyName.
// Requires "user" and "key" proofs; refused while any of the user's notes
// still reference the KeyName.
type DeleteKeyRequest struct {
	SignedRequest
	KeyName string `json:"key_name"`
}

// UpdateNoteRequest creates or updates a single note. Requires "user" and
// "key" proofs; when NewKeyName is set the note is re-keyed within the same
// transaction and the "old-key" proof of the current KeyName is additionally
// required.
type UpdateNoteRequest struct {
	SignedRequest
	NoteID     string     `json:"note_id"`
	KeyName    string     `json:"key_name"`
	NewKeyName string     `json:"new_key_name,omitempty"`
	Items      []NoteItem `json:"items"`
}

// DeleteNoteRequest removes a note and all of its items. Requires "user"
// and "key" proofs.
type DeleteNoteRequest struct {
	SignedRequest
	NoteID string `json:"note_id"`
}

// BatchRequest applies a sequence of heterogeneous note mutations
// atomically. Requires the "user" proof plus a "key:<name>" proof for every
// KeyName touched by the batch, so proofs for distinct keys coexist in the
// signature collection.
type BatchRequest struct {
	SignedRequest
	Actions []SyncAction `json:"actions"`
}

// SnapshotRequest produces a consistent snapshot of every key and note the
// acting user can see, taken under the user's reader lock. Requires the
// "user" proof.
type SnapshotRequest struct {
	SignedRequest
}

// DeleteUserRequest removes the account together with all exclusively-owned
// keys and their notes. Requires the "user" proof.
type DeleteUserRequest struct {
	SignedRequest
}
