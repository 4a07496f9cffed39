package store

import (
	"context"

	"github.com/mlevkov/go-note-sync/models"
)

// UserRepository is the data-access layer for user accounts and their usage
// aggregates.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUserSize(ctx context.Context, userID string) (int64, error)
	DeleteUser(ctx context.Context, userID string) error

	// RecomputeUserUsage refreshes the user's size and note-count counters
	// from the current note contents. The operation is idempotent and is
	// retried a bounded number of times on transient database errors.
	RecomputeUserUsage(ctx context.Context, userID string) error
}

// KeyRepository is the data-access layer for shared key ownership records.
type KeyRepository interface {
	CreateKey(ctx context.Context, key models.Key) (models.Key, error)
	GetKeysByName(ctx context.Context, keyName string) ([]models.Key, error)
	GetUserKeys(ctx context.Context, userID string) ([]models.Key, error)
	GetUserKeyNames(ctx context.Context, userID string) ([]string, error)
	DeleteKey(ctx context.Context, userID, keyName string) error

	// CountUserNotes reports how many of the user's notes still reference
	// keyName; key deletion is refused while the count is non-zero.
	CountUserNotes(ctx context.Context, userID, keyName string) (int64, error)
}

// NoteRepository is the data-access layer for notes and their versioned
// items. All mutations flow through MultiApply so that single-note updates
// and batched heterogeneous actions share one conflict-detection path.
type NoteRepository interface {
	GetNote(ctx context.Context, noteID string) (models.Note, error)
	GetNotesByKeyNames(ctx context.Context, keyNames []string) ([]models.Note, error)

	// MultiApply applies the action sequence within one transaction. Any
	// item-level version conflict rolls the whole transaction back and the
	// full conflict list is returned with a nil error; no partial effects
	// are visible. On success the acting user's usage aggregates are
	// recomputed before commit.
	MultiApply(ctx context.Context, userID string, actions []models.SyncAction) ([]models.VersionConflict, error)
}
