package http

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/internal/service"
	"github.com/mlevkov/go-note-sync/models"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────
// Mock: service.AuthService
// ─────────────────────────────────────────────

// mockAuthService implements service.AuthService for unit tests.
// Each method field can be overridden per test case.
type mockAuthService struct {
	registerFn       func(ctx context.Context, req models.RegisterRequest) (models.User, error)
	issueChallengeFn func(ctx context.Context, username string) (string, error)
	loginFn          func(ctx context.Context, req models.LoginRequest) (models.Token, models.User, error)
	parseTokenFn     func(ctx context.Context, tokenString string) (models.Token, error)
	deleteUserFn     func(ctx context.Context, req *models.DeleteUserRequest) error
}

func (m *mockAuthService) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	return m.registerFn(ctx, req)
}

func (m *mockAuthService) IssueChallenge(ctx context.Context, username string) (string, error) {
	return m.issueChallengeFn(ctx, username)
}

func (m *mockAuthService) Login(ctx context.Context, req models.LoginRequest) (models.Token, models.User, error) {
	return m.loginFn(ctx, req)
}

func (m *mockAuthService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	return m.parseTokenFn(ctx, tokenString)
}

func (m *mockAuthService) DeleteUser(ctx context.Context, req *models.DeleteUserRequest) error {
	return m.deleteUserFn(ctx, req)
}

// ─────────────────────────────────────────────
// Mock: service.KeyService
// ─────────────────────────────────────────────

type mockKeyService struct {
	createKeyFn func(ctx context.Context, req *models.CreateKeyRequest) (models.Key, error)
	shareKeyFn  func(ctx context.Context, req *models.ShareKeyRequest) (models.Key, error)
	deleteKeyFn func(ctx context.Context, req *models.DeleteKeyRequest) error
}

func (m *mockKeyService) CreateKey(ctx context.Context, req *models.CreateKeyRequest) (models.Key, error) {
	return m.createKeyFn(ctx, req)
}

func (m *mockKeyService) ShareKey(ctx context.Context, req *models.ShareKeyRequest) (models.Key, error) {
	return m.shareKeyFn(ctx, req)
}

func (m *mockKeyService) DeleteKey(ctx context.Context, req *models.DeleteKeyRequest) error {
	return m.deleteKeyFn(ctx, req)
}

// ─────────────────────────────────────────────
// Mock: service.NoteService
// ─────────────────────────────────────────────

type mockNoteService struct {
	updateNoteFn func(ctx context.Context, req *models.UpdateNoteRequest) ([]models.VersionConflict, error)
	deleteNoteFn func(ctx context.Context, req *models.DeleteNoteRequest) error
	applyBatchFn func(ctx context.Context, req *models.BatchRequest) ([]models.VersionConflict, error)
}

func (m *mockNoteService) UpdateNote(ctx context.Context, req *models.UpdateNoteRequest) ([]models.VersionConflict, error) {
	return m.updateNoteFn(ctx, req)
}

func (m *mockNoteService) DeleteNote(ctx context.Context, req *models.DeleteNoteRequest) error {
	return m.deleteNoteFn(ctx, req)
}

func (m *mockNoteService) ApplyBatch(ctx context.Context, req *models.BatchRequest) ([]models.VersionConflict, error) {
	return m.applyBatchFn(ctx, req)
}

// ─────────────────────────────────────────────
// Mock: service.SyncService
// ─────────────────────────────────────────────

type mockSyncService struct {
	snapshotFn func(ctx context.Context, req *models.SnapshotRequest) (models.SnapshotResponse, error)
	getNotesFn func(ctx context.Context, userID string) ([]models.Note, error)
}

func (m *mockSyncService) Snapshot(ctx context.Context, req *models.SnapshotRequest) (models.SnapshotResponse, error) {
	return m.snapshotFn(ctx, req)
}

func (m *mockSyncService) GetNotes(ctx context.Context, userID string) ([]models.Note, error) {
	return m.getNotesFn(ctx, userID)
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

// newTestHandler builds a Handler over the given service mocks. Nil mocks
// are fine for tests that never reach the corresponding service.
func newTestHandler(auth service.AuthService, keys service.KeyService, notes service.NoteService, syncs service.SyncService) *Handler {
	return NewHandler(&service.Services{
		AuthService: auth,
		KeyService:  keys,
		NoteService: notes,
		SyncService: syncs,
	}, logger.Nop())
}

// jsonBody serialises v to a JSON request body string.
func jsonBody(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

// stubToken returns a models.Token with the given signed string and subject.
func stubToken(signed, userID string) models.Token {
	return models.Token{SignedString: signed, UserID: userID}
}
