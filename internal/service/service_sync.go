package service

import (
	"context"
	"fmt"

	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/internal/store"
	"github.com/mlevkov/go-note-sync/internal/synclock"
	"github.com/mlevkov/go-note-sync/models"
)

// syncService is the concrete implementation of SyncService. Reads happen
// under the user's reader lock, so the returned view is consistent with
// respect to concurrent writers: no snapshot observes half of a batch.
type syncService struct {
	keyRepository  store.KeyRepository
	noteRepository store.NoteRepository
	auth           *authorizer
	locks          *synclock.Manager

	logger *logger.Logger
}

// NewSyncService constructs a SyncService wired to the given repositories.
func NewSyncService(keyRepository store.KeyRepository, noteRepository store.NoteRepository, auth *authorizer, locks *synclock.Manager, logger *logger.Logger) SyncService {
	return &syncService{
		keyRepository:  keyRepository,
		noteRepository: noteRepository,
		auth:           auth,
		locks:          locks,
		logger:         logger,
	}
}

// Snapshot returns everything the acting user can see: all key ownership
// records and all notes under those key names. Requires the "user" proof.
// The key-name set is the one the reader lock actually granted, so keys
// shared or revoked mid-acquisition never produce a torn view.
func (s *syncService) Snapshot(ctx context.Context, req *models.SnapshotRequest) (models.SnapshotResponse, error) {
	user, err := s.auth.requireUser(ctx, &req.SignedRequest, req)
	if err != nil {
		return models.SnapshotResponse{}, err
	}

	return s.snapshotLocked(ctx, user.UserID)
}

// GetNotes returns the notes visible to the user identified by a session
// token. Same reader-lock discipline as Snapshot, notes only.
func (s *syncService) GetNotes(ctx context.Context, userID string) ([]models.Note, error) {
	snapshot, err := s.snapshotLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	return snapshot.Notes, nil
}

func (s *syncService) snapshotLocked(ctx context.Context, userID string) (models.SnapshotResponse, error) {
	log := logger.FromContext(ctx)

	lock, err := s.locks.TakeReaderLock(ctx, userID, 0)
	if err != nil {
		return models.SnapshotResponse{}, err
	}
	defer lock.Release()

	keys, err := s.keyRepository.GetUserKeys(ctx, userID)
	if err != nil {
		log.Err(err).Str("user_id", userID).Msg("error reading keys for snapshot")
		return models.SnapshotResponse{}, fmt.Errorf("error reading keys for snapshot: %w", err)
	}

	notes, err := s.noteRepository.GetNotesByKeyNames(ctx, lock.KeyNames())
	if err != nil {
		log.Err(err).Str("user_id", userID).Msg("error reading notes for snapshot")
		return models.SnapshotResponse{}, fmt.Errorf("error reading notes for snapshot: %w", err)
	}

	return models.SnapshotResponse{Keys: keys, Notes: notes}, nil
}
