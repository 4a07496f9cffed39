package models

import "time"

// Key is a single ownership record of a shared symmetric key.
//
// The logical identity of "the key" is KeyName: when a key is shared between
// users, each user holds their own Key row carrying the same KeyName and
// equivalent cryptographic material. A signature that verifies against the
// public key of any holder of a KeyName is valid proof of access to that key.
type Key struct {
	// ID identifies this ownership record, not the logical key.
	ID string `json:"id"`

	// UserID is the owner of this record.
	UserID string `json:"user_id"`

	// KeyName is the logical identity of the key, shared across all
	// ownership records of the same key.
	KeyName string `json:"key_name"`

	// Algorithm names the signing algorithm of the key proof pair.
	Algorithm string `json:"algorithm"`

	// PublicKey is the base64-encoded public half used to verify "key" and
	// "old-key" request signatures.
	PublicKey string `json:"public_key"`

	// EncryptedKeyMaterial is the symmetric key material, encrypted for
	// this owner client-side; opaque to the server.
	EncryptedKeyMaterial string `json:"encrypted_key_material"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the Key model.
func (k Key) TableName() string {
	return "keys"
}
