package models

// RegisterResponse returns the persisted account record.
type RegisterResponse struct {
	User User `json:"user"`
}

// IssueChallengeResponse carries the one-time login challenge nonce.
type IssueChallengeResponse struct {
	Challenge string `json:"challenge"`
}

// LoginResponse carries the session token issued after a successful
// challenge validation, together with the account's key parameters the
// client needs to decrypt its data.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UpdateNoteResponse reports the outcome of a single-note update. A
// non-empty Conflicts list means nothing was written.
type UpdateNoteResponse struct {
	NoteID    string            `json:"note_id"`
	Conflicts []VersionConflict `json:"conflicts,omitempty"`
}

// BatchResponse reports the outcome of a batch apply. A non-empty Conflicts
// list means the whole batch was rolled back.
type BatchResponse struct {
	Conflicts []VersionConflict `json:"conflicts,omitempty"`
}

// SnapshotResponse is a consistent view of everything the acting user can
// see: all key ownership records and all notes under those key names.
type SnapshotResponse struct {
	Keys  []Key  `json:"keys"`
	Notes []Note `json:"notes"`
}

// NotesResponse lists the notes visible to a session-token holder.
type NotesResponse struct {
	Notes  []Note `json:"notes"`
	Length int    `json:"length"`
}

// KeyResponse returns a single key ownership record.
type KeyResponse struct {
	Key Key `json:"key"`
}
