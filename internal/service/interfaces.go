package service

import (
	"context"

	"github.com/mlevkov/go-note-sync/models"
)

// AuthService covers the account lifecycle: registration, the
// challenge-response login flow, session tokens for the read-only endpoints,
// and account deletion.
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (models.User, error)
	IssueChallenge(ctx context.Context, username string) (string, error)
	Login(ctx context.Context, req models.LoginRequest) (models.Token, models.User, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
	DeleteUser(ctx context.Context, req *models.DeleteUserRequest) error
}

// KeyService manages shared key ownership records.
type KeyService interface {
	CreateKey(ctx context.Context, req *models.CreateKeyRequest) (models.Key, error)
	ShareKey(ctx context.Context, req *models.ShareKeyRequest) (models.Key, error)
	DeleteKey(ctx context.Context, req *models.DeleteKeyRequest) error
}

// NoteService applies note mutations under the full authorization chain,
// quota policy, and writer locks. Version conflicts are results, not errors:
// a non-empty conflict slice means nothing was written.
type NoteService interface {
	UpdateNote(ctx context.Context, req *models.UpdateNoteRequest) ([]models.VersionConflict, error)
	DeleteNote(ctx context.Context, req *models.DeleteNoteRequest) error
	ApplyBatch(ctx context.Context, req *models.BatchRequest) ([]models.VersionConflict, error)
}

// SyncService produces consistent read views under the user's reader lock.
type SyncService interface {
	Snapshot(ctx context.Context, req *models.SnapshotRequest) (models.SnapshotResponse, error)
	GetNotes(ctx context.Context, userID string) ([]models.Note, error)
}
