// Package notify delivers signed mutation events to configured webhook
// endpoints. Events carry a "server" role signature over their canonical
// payload so consumers can verify origin without trusting the transport.
package notify

import (
	"context"
	"time"

	"github.com/mlevkov/go-note-sync/models"
)

// Event kinds published after successful mutations.
const (
	EventNoteUpdated  = "note.updated"
	EventNoteDeleted  = "note.deleted"
	EventBatchApplied = "batch.applied"
	EventKeyCreated   = "key.created"
	EventKeyShared    = "key.shared"
	EventKeyDeleted   = "key.deleted"
	EventUserDeleted  = "user.deleted"
)

// Event is one mutation notification. Payload content is limited to
// identifiers; encrypted data never leaves the store through this path.
type Event struct {
	// EventID is the unique identifier of the event (UUID).
	EventID string `json:"event_id"`

	// Kind is one of the Event* constants.
	Kind string `json:"kind"`

	// Username names the acting user.
	Username string `json:"username"`

	// NoteID and KeyName identify the affected resources where applicable.
	NoteID  string `json:"note_id,omitempty"`
	KeyName string `json:"key_name,omitempty"`

	// Timestamp is the server-side completion time of the mutation.
	Timestamp time.Time `json:"timestamp"`

	// Signatures carries the "server" role signature over the canonical
	// payload of the event.
	Signatures map[string]string `json:"signatures,omitempty"`
}

// GetSignatures implements [models.Signable].
func (e *Event) GetSignatures() map[string]string {
	return e.Signatures
}

// SetSignatures implements [models.Signable].
func (e *Event) SetSignatures(signatures map[string]string) {
	e.Signatures = signatures
}

var _ models.Signable = (*Event)(nil)

// Notifier publishes mutation events. Delivery is best-effort: a failed or
// slow consumer never fails the mutation that produced the event.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}

// NopNotifier discards every event. Used when no webhook targets are
// configured and in tests.
type NopNotifier struct{}

// Publish implements [Notifier].
func (NopNotifier) Publish(context.Context, Event) {}
