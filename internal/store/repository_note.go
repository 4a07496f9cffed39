// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/models"
)

// noteRepository is the PostgreSQL-backed implementation of [NoteRepository].
//
// All note mutations, whether a single update or a heterogeneous batch, go
// through MultiApply: one transaction, per-item optimistic version checks,
// and an all-or-nothing outcome. Conflicts are detected by plain SELECT and
// affected-row counts rather than by constraint violations, so a conflicting
// item never aborts the open transaction mid-batch.
type noteRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewNoteRepository constructs a [NoteRepository] backed by the provided
// database connection and logger.
func NewNoteRepository(db *DB, logger *logger.Logger) NoteRepository {
	logger.Debug().Msg("creating note repository")
	return &noteRepository{
		db:     db,
		logger: logger,
	}
}

// GetNote returns one note together with all of its items.
func (r *noteRepository) GetNote(ctx context.Context, noteID string) (models.Note, error) {
	log := logger.FromContext(ctx)

	var note models.Note
	row := r.db.QueryRowContext(ctx, getNote, noteID)
	if err := row.Scan(&note.NoteID, &note.KeyName, &note.CreatedAt, &note.UpdatedAt); err != nil {
		if isNoRows(err) {
			return models.Note{}, ErrNoNoteWasFound
		}
		log.Err(err).Str("func", "*noteRepository.GetNote").Msg("error: scanning error")
		return models.Note{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	rows, err := r.db.QueryContext(ctx, getNoteItems, noteID)
	if err != nil {
		log.Err(err).Str("func", "*noteRepository.GetNote").Msg("error reading note items")
		return models.Note{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	note.Items = make(map[string]models.NoteItem)
	for rows.Next() {
		var item models.NoteItem
		if err := rows.Scan(&item.Type, &item.Version, &item.Data); err != nil {
			return models.Note{}, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		note.Items[item.Type] = item
	}
	if err := rows.Err(); err != nil {
		return models.Note{}, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return note, nil
}

// GetNotesByKeyNames returns every note stored under any of the key names,
// items included. Items are fetched with one query across all matched notes.
func (r *noteRepository) GetNotesByKeyNames(ctx context.Context, keyNames []string) ([]models.Note, error) {
	log := logger.FromContext(ctx)

	if len(keyNames) == 0 {
		return []models.Note{}, nil
	}

	query, args, err := buildGetNotesByKeyNames(keyNames)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*noteRepository.GetNotesByKeyNames").Msg("error executing query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	notes := make([]models.Note, 0)
	index := make(map[string]int)
	for rows.Next() {
		var note models.Note
		if err := rows.Scan(&note.NoteID, &note.KeyName, &note.CreatedAt, &note.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		note.Items = make(map[string]models.NoteItem)
		index[note.NoteID] = len(notes)
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	if len(notes) == 0 {
		return notes, nil
	}

	noteIDs := make([]string, 0, len(notes))
	for _, note := range notes {
		noteIDs = append(noteIDs, note.NoteID)
	}

	query, args, err = buildGetItemsByNoteIDs(noteIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	itemRows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*noteRepository.GetNotesByKeyNames").Msg("error reading note items")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var noteID string
		var item models.NoteItem
		if err := itemRows.Scan(&noteID, &item.Type, &item.Version, &item.Data); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		if i, ok := index[noteID]; ok {
			notes[i].Items[item.Type] = item
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return notes, nil
}

// MultiApply applies the action sequence within one transaction.
//
// Every item mutation carries an expected version; any mismatch is collected
// as a [models.VersionConflict] instead of failing the statement. When the
// whole batch ran without a single conflict, the acting user's usage
// aggregates are recomputed and the transaction commits. One conflict
// anywhere rolls everything back and the full conflict list is returned with
// a nil error, so the caller can hand the client a complete picture in one
// round trip.
func (r *noteRepository) MultiApply(ctx context.Context, userID string, actions []models.SyncAction) ([]models.VersionConflict, error) {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "*noteRepository.MultiApply").Msg("error beginning transaction")
		return nil, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	var conflicts []models.VersionConflict
	for _, action := range actions {
		actionConflicts, err := r.applyAction(ctx, tx, action)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, actionConflicts...)
	}

	if len(conflicts) > 0 {
		log.Info().
			Str("user_id", userID).
			Int("conflicts", len(conflicts)).
			Msg("rolling back batch with version conflicts")
		return conflicts, nil
	}

	if _, err := tx.ExecContext(ctx, recomputeUserUsage, userID); err != nil {
		log.Err(err).Str("func", "*noteRepository.MultiApply").Msg("error recomputing usage")
		return nil, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err := tx.Commit(); err != nil {
		log.Err(err).Str("func", "*noteRepository.MultiApply").Msg("error committing transaction")
		return nil, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil, nil
}

func (r *noteRepository) applyAction(ctx context.Context, tx *sql.Tx, action models.SyncAction) ([]models.VersionConflict, error) {
	switch action.Kind {
	case models.SyncActionCreate:
		return r.applyCreate(ctx, tx, action)
	case models.SyncActionUpdate:
		return r.applyUpdate(ctx, tx, action)
	case models.SyncActionDelete:
		return nil, r.applyDelete(ctx, tx, action.NoteID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action.Kind)
	}
}

func (r *noteRepository) applyCreate(ctx context.Context, tx *sql.Tx, action models.SyncAction) ([]models.VersionConflict, error) {
	if action.Note == nil {
		return nil, fmt.Errorf("%w: create action without note", ErrUnknownAction)
	}
	note := action.Note

	exists, err := noteExists(ctx, tx, note.NoteID)
	if err != nil {
		return nil, err
	}
	if !exists {
		if _, err := tx.ExecContext(ctx, createNote, note.NoteID, note.KeyName); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	var conflicts []models.VersionConflict
	for _, item := range note.Items {
		conflict, err := r.applyItem(ctx, tx, note.NoteID, item)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
		}
	}
	return conflicts, nil
}

func (r *noteRepository) applyUpdate(ctx context.Context, tx *sql.Tx, action models.SyncAction) ([]models.VersionConflict, error) {
	exists, err := noteExists(ctx, tx, action.NoteID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNoNoteWasFound
	}

	var conflicts []models.VersionConflict
	for _, item := range action.Items {
		conflict, err := r.applyItem(ctx, tx, action.NoteID, item)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
		}
	}

	if action.NewKeyName != "" {
		if _, err := tx.ExecContext(ctx, rekeyNote, action.NoteID, action.NewKeyName); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, touchNote, action.NoteID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}
	return conflicts, nil
}

func (r *noteRepository) applyDelete(ctx context.Context, tx *sql.Tx, noteID string) error {
	exists, err := noteExists(ctx, tx, noteID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNoNoteWasFound
	}

	if _, err := tx.ExecContext(ctx, deleteNoteItems, noteID); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if _, err := tx.ExecContext(ctx, deleteNote, noteID); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

// applyItem performs the optimistic version check for one item and mutates it
// accordingly. It returns a non-nil conflict when the expected version does
// not match the stored state; the transaction stays usable either way.
//
// Special case: the "created" sentinel item submitted with a version above
// one marks a stale creation marker from an interrupted earlier sync, and is
// resolved by dropping the stored row instead of a version comparison.
func (r *noteRepository) applyItem(ctx context.Context, tx *sql.Tx, noteID string, item models.NoteItem) (*models.VersionConflict, error) {
	if item.Type == models.ItemTypeCreated && item.Version > 1 {
		if _, err := tx.ExecContext(ctx, deleteNoteItemByType, noteID, item.Type); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		return nil, nil
	}

	if item.Version > 0 {
		res, err := tx.ExecContext(ctx, updateNoteItem, item.Data, noteID, item.Type, item.Version)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		if affected > 0 {
			return nil, nil
		}

		// no row matched the expected version: report the stored one,
		// zero when the item does not exist at all
		actual, err := storedItemVersion(ctx, tx, noteID, item.Type)
		if err != nil {
			return nil, err
		}
		return &models.VersionConflict{
			NoteID:   noteID,
			Type:     item.Type,
			Expected: item.Version,
			Actual:   actual,
		}, nil
	}

	// fresh item: insert at version 1, conflict when one already exists
	actual, err := storedItemVersion(ctx, tx, noteID, item.Type)
	if err != nil {
		return nil, err
	}
	if actual > 0 {
		return &models.VersionConflict{
			NoteID:   noteID,
			Type:     item.Type,
			Expected: 0,
			Actual:   actual,
		}, nil
	}

	if _, err := tx.ExecContext(ctx, insertNoteItem, noteID, item.Type, item.Data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil, nil
}

func noteExists(ctx context.Context, tx *sql.Tx, noteID string) (bool, error) {
	var note models.Note
	err := tx.QueryRowContext(ctx, getNote, noteID).
		Scan(&note.NoteID, &note.KeyName, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return true, nil
}

func storedItemVersion(ctx context.Context, tx *sql.Tx, noteID, itemType string) (int64, error) {
	var version int64
	err := tx.QueryRowContext(ctx, selectNoteItemVersion, noteID, itemType).Scan(&version)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return version, nil
}
