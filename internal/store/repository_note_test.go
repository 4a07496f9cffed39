package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mlevkov/go-note-sync/models"
)

var noteColumns = []string{"note_id", "key_name", "created_at", "updated_at"}

func newTestNoteRepo(t *testing.T) (*noteRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	wrapped, mock, db := newTestDB(t)
	repo := &noteRepository{
		db:     wrapped,
		logger: wrapped.logger,
	}
	return repo, mock, db
}

func noteRow(noteID, keyName string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(noteColumns).AddRow(noteID, keyName, now, now)
}

func TestGetNote_Success(t *testing.T) {
	repo, mock, db := newTestNoteRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectQuery("SELECT note_id").
		WithArgs("note-1").
		WillReturnRows(noteRow("note-1", "shared-notes"))
	mock.ExpectQuery("SELECT item_type").
		WithArgs("note-1").
		WillReturnRows(sqlmock.NewRows([]string{"item_type", "version", "data"}).
			AddRow("metadata", int64(2), "enc-meta").
			AddRow("content", int64(5), "enc-body"))

	note, err := repo.GetNote(ctx, "note-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if note.KeyName != "shared-notes" {
		t.Errorf("expected key name shared-notes, got %s", note.KeyName)
	}
	if len(note.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(note.Items))
	}
	if note.Items["content"].Version != 5 {
		t.Errorf("expected content version 5, got %d", note.Items["content"].Version)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	repo, mock, db := newTestNoteRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectQuery("SELECT note_id").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(noteColumns))

	_, err := repo.GetNote(ctx, "ghost")
	if !errors.Is(err, ErrNoNoteWasFound) {
		t.Fatalf("expected ErrNoNoteWasFound, got %v", err)
	}
}

func TestGetNotesByKeyNames_Empty(t *testing.T) {
	repo, _, db := newTestNoteRepo(t)
	defer db.Close()

	notes, err := repo.GetNotesByKeyNames(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("expected no notes, got %d", len(notes))
	}
}

func TestGetNotesByKeyNames_AttachesItems(t *testing.T) {
	repo, mock, db := newTestNoteRepo(t)
	defer db.Close()

	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery("SELECT note_id").
		WillReturnRows(sqlmock.NewRows(noteColumns).
			AddRow("note-1", "personal", now, now).
			AddRow("note-2", "shared-notes", now, now))
	mock.ExpectQuery("SELECT note_id, item_type").
		WillReturnRows(sqlmock.NewRows([]string{"note_id", "item_type", "version", "data"}).
			AddRow("note-1", "content", int64(1), "a").
			AddRow("note-2", "content", int64(4), "b").
			AddRow("note-2", "metadata", int64(1), "m"))

	notes, err := repo.GetNotesByKeyNames(ctx, []string{"personal", "shared-notes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if len(notes[1].Items) != 2 {
		t.Errorf("expected 2 items on note-2, got %d", len(notes[1].Items))
	}
	if notes[0].Items["content"].Data != "a" {
		t.Errorf("unexpected note-1 content: %+v", notes[0].Items["content"])
	}
}

func TestMultiApply_UpdateCommitsAndRecomputesUsage(t *testing.T) {
	repo, mock, db := newTestNoteRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT note_id").
		WithArgs("note-1").
		WillReturnRows(noteRow("note-1", "personal"))
	mock.ExpectExec("UPDATE note_items").
		WithArgs("new-data", "note-1", "content", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE notes SET updated_at").
		WithArgs("note-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET").
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	conflicts, err := repo.MultiApply(ctx, "user-1", []models.SyncAction{{
		Kind:   models.SyncActionUpdate,
		NoteID: "note-1",
		Items:  []models.NoteItem{{Type: "content", Version: 3, Data: "new-data"}},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %v", conflicts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMultiApply_VersionMismatchRollsBackWholeBatch(t *testing.T) {
	repo, mock, db := newTestNoteRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT note_id").
		WithArgs("note-1").
		WillReturnRows(noteRow("note-1", "personal"))
	mock.ExpectExec("UPDATE note_items").
		WithArgs("stale-data", "note-1", "content", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version").
		WithArgs("note-1", "content").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(5)))
	mock.ExpectExec("UPDATE notes SET updated_at").
		WithArgs("note-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	conflicts, err := repo.MultiApply(ctx, "user-1", []models.SyncAction{{
		Kind:   models.SyncActionUpdate,
		NoteID: "note-1",
		Items:  []models.NoteItem{{Type: "content", Version: 3, Data: "stale-data"}},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	want := models.VersionConflict{NoteID: "note-1", Type: "content", Expected: 3, Actual: 5}
	if conflicts[0] != want {
		t.Errorf("expected conflict %+v, got %+v", want, conflicts[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMultiApply_ConflictOnMissingItemReportsActualZero(t *testing.T) {
	repo, mock, db := newTestNoteRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT note_id").
		WithArgs("note-1").
		WillReturnRows(noteRow("note-1", "personal"))
	mock.ExpectExec("UPDATE note_items").
		WithArgs("data", "note-1", "content", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version").
		WithArgs("note-1", "content").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectExec("UPDATE notes SET updated_at").
		WithArgs("note-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	conflicts, err := repo.MultiApply(ctx, "user-1", []models.SyncAction{{
		Kind:   models.SyncActionUpdate,
		NoteID: "note-1",
		Items:  []models.NoteItem{{Type: "content", Version: 2, Data: "data"}},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].Actual != 0 {
		t.Fatalf("expected one conflict with Actual=0, got %v", conflicts)
	}
}

func TestMultiApply_CreateInsertsNoteAndItems(t *testing.T) {
	repo, mock, db := newTestNoteRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT note_id").
		WithArgs("note-1").
		WillReturnRows(sqlmock.NewRows(noteColumns))
	mock.ExpectExec("INSERT INTO notes").
		WithArgs("note-1", "personal").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT version").
		WithArgs("note-1", "content").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectExec("INSERT INTO note_items").
		WithArgs("note-1", "content", "enc-body").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET").
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	conflicts, err := repo.MultiApply(ctx, "user-1", []models.SyncAction{{
		Kind: models.SyncActionCreate,
		Note: &models.Note{
			NoteID:  "note-1",
			KeyName: "personal",
			Items: map[string]models.NoteItem{
				"content": {Type: "content", Version: 0, Data: "enc-body"},
			},
		},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %v", conflicts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMultiApply_CreateOverExistingItemConflicts(t *testing.T) {
	repo, mock, db := newTestNoteRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT note_id").
		WithArgs("note-1").
		WillReturnRows(noteRow("note-1", "personal"))
	mock.ExpectQuery("SELECT version").
		WithArgs("note-1", "content").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(2)))
	mock.ExpectRollback()

	conflicts, err := repo.MultiApply(ctx, "user-1", []models.SyncAction{{
		Kind: models.SyncActionCreate,
		Note: &models.Note{
			NoteID:  "note-1",
			KeyName: "personal",
			Items: map[string]models.NoteItem{
				"content": {Type: "content", Version: 0, Data: "enc-body"},
			},
		},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.VersionConflict{NoteID: "note-1", Type: "content", Expected: 0, Actual: 2}
	if len(conflicts) != 1 || conflicts[0] != want {
		t.Fatalf("expected conflict %+v, got %v", want, conflicts)
	}
}

func TestMultiApply_StaleCreationMarkerIsDropped(t *testing.T) {
	repo, mock, db := newTestNoteRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT note_id").
		WithArgs("note-1").
		WillReturnRows(noteRow("note-1", "personal"))
	mock.ExpectExec("DELETE FROM note_items").
		WithArgs("note-1", models.ItemTypeCreated).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE notes SET updated_at").
		WithArgs("note-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET").
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	conflicts, err := repo.MultiApply(ctx, "user-1", []models.SyncAction{{
		Kind:   models.SyncActionUpdate,
		NoteID: "note-1",
		Items:  []models.NoteItem{{Type: models.ItemTypeCreated, Version: 2}},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %v", conflicts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMultiApply_DeleteRemovesItemsThenNote(t *testing.T) {
	repo, mock, db := newTestNoteRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT note_id").
		WithArgs("note-1").
		WillReturnRows(noteRow("note-1", "personal"))
	mock.ExpectExec("DELETE FROM note_items").
		WithArgs("note-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM notes").
		WithArgs("note-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET").
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	conflicts, err := repo.MultiApply(ctx, "user-1", []models.SyncAction{{
		Kind:   models.SyncActionDelete,
		NoteID: "note-1",
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %v", conflicts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMultiApply_DeleteMissingNoteFails(t *testing.T) {
	repo, mock, db := newTestNoteRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT note_id").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(noteColumns))
	mock.ExpectRollback()

	_, err := repo.MultiApply(ctx, "user-1", []models.SyncAction{{
		Kind:   models.SyncActionDelete,
		NoteID: "ghost",
	}})
	if !errors.Is(err, ErrNoNoteWasFound) {
		t.Fatalf("expected ErrNoNoteWasFound, got %v", err)
	}
}

func TestMultiApply_UnknownActionFails(t *testing.T) {
	repo, mock, db := newTestNoteRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := repo.MultiApply(context.Background(), "user-1", []models.SyncAction{{
		Kind: "upsert",
	}})
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}
