package models

// SyncActionKind discriminates the heterogeneous actions of a batch apply.
type SyncActionKind string

const (
	SyncActionCreate SyncActionKind = "create"
	SyncActionUpdate SyncActionKind = "update"
	SyncActionDelete SyncActionKind = "delete"
)

// SyncAction is one element of a batched note mutation. The populated fields
// depend on Kind:
//
//   - create: Note carries the new note and its initial items.
//   - update: NoteID and Items; NewKeyName is set when the update re-keys
//     the note.
//   - delete: NoteID only.
//
// A batch of actions is applied within one store transaction; any item-level
// version conflict rolls back the entire batch.
type SyncAction struct {
	Kind       SyncActionKind `json:"kind"`
	Note       *Note          `json:"note,omitempty"`
	NoteID     string         `json:"note_id,omitempty"`
	Items      []NoteItem     `json:"items,omitempty"`
	NewKeyName string         `json:"new_key_name,omitempty"`
}
