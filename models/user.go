package models

import "time"

// Quota tiers an account can be on. The tier selects the byte limits the
// quota policy applies to note mutations.
const (
	QuotaTierDefault = "default"
	QuotaTierPremium = "premium"
)

// User represents an account entity used for authentication and authorization.
// It contains identity attributes, the account's asymmetric key pair and the
// password-verification material used by the challenge login flow.
// Sensitive fields must never be exposed outside trusted boundaries.
type User struct {
	// UserID is the unique identifier of the user (UUID).
	UserID string `json:"user_id"`

	// Username is the unique account name. Stored and compared
	// case-insensitively (lower-cased at the persistence layer).
	Username string `json:"username"`

	// KeyAlgorithm names the asymmetric algorithm of the account key pair
	// (currently "ed25519").
	KeyAlgorithm string `json:"key_algorithm"`

	// PublicKey is the base64-encoded public half of the account key pair.
	// Every mutating request must carry a "user" signature verifiable
	// against this key.
	PublicKey string `json:"public_key"`

	// EncryptedPrivateKey is the private half of the account key pair,
	// encrypted client-side. The server stores it opaquely and never
	// decrypts it.
	EncryptedPrivateKey string `json:"encrypted_private_key"`

	// Password-verification material. The server never sees the plain
	// password: the client derives PasswordHash with PBKDF2 using
	// PasswordSalt/PasswordIterations and proves knowledge of it through
	// the challenge-response login flow.
	PasswordSalt       string `json:"password_salt"`
	PasswordIterations int    `json:"password_iterations"`
	PasswordAlgorithm  string `json:"password_algorithm"`
	PasswordHash       string `json:"-"`

	// EncryptedSymKey is the user's symmetric key material for client-side
	// data encryption, itself encrypted; opaque to the server.
	EncryptedSymKey string `json:"encrypted_sym_key"`

	// Usage counters maintained by the store after every note mutation.
	UsedBytes int64 `json:"used_bytes"`
	NoteCount int64 `json:"note_count"`

	// QuotaTier references the quota limits applied to this account
	// (e.g. "default", "premium").
	QuotaTier string `json:"quota_tier"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}
