package models

import "time"

// ItemTypeCreated is the sentinel item type written once when a note is
// created. A client submitting this type with a version greater than one is
// asking the server to drop a stale creation marker left by an interrupted
// earlier sync; the item applier handles that case specially.
const ItemTypeCreated = "created"

// Note is a synchronized encrypted document. A note is always associated
// with exactly one KeyName; the association only changes through an
// authorized re-key operation proving control of both the old and new key.
type Note struct {
	// NoteID is the unique identifier of the note (UUID).
	NoteID string `json:"note_id"`

	// KeyName names the shared key the note's items are encrypted under.
	KeyName string `json:"key_name"`

	// Items maps item type (e.g. "metadata", "content") to the current
	// stored item of that type.
	Items map[string]NoteItem `json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the database table
// associated with the Note model.
func (n Note) TableName() string {
	return "notes"
}

// NoteItem is one independently versioned named field of a note.
//
// Version starts at 1 on creation and increments by exactly one on every
// successful update. An update is only legal when the caller's expected
// version equals the stored version; otherwise a VersionConflict is produced
// and the item is left untouched.
type NoteItem struct {
	// Type is the item type key within its note ("metadata", "content", ...).
	Type string `json:"type"`

	// Version is the optimistic-concurrency version of the item. In client
	// requests it carries the expected stored version; zero means "fresh
	// item, insert at version 1".
	Version int64 `json:"version"`

	// Data is the opaque encrypted payload of the item.
	Data string `json:"data"`
}

// Size returns the byte size this item contributes to quota accounting.
func (i NoteItem) Size() int64 {
	return int64(len(i.Data))
}
