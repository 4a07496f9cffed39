package models

// VersionConflict reports that a client's expected item version did not
// match the stored version. Conflicts are first-class results, not errors:
// the conflicting item is left untouched and, under batch apply, the whole
// batch is rolled back.
type VersionConflict struct {
	// NoteID is the note whose item conflicted.
	NoteID string `json:"note_id"`

	// Type is the conflicting item type.
	Type string `json:"type"`

	// Expected is the version the client supplied.
	Expected int64 `json:"expected"`

	// Actual is the version currently stored. Zero means the item does not
	// exist on the server.
	Actual int64 `json:"actual"`
}
