package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mlevkov/go-note-sync/internal/crypto"
	"github.com/mlevkov/go-note-sync/internal/guard"
	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/internal/notify"
	"github.com/mlevkov/go-note-sync/internal/synclock"
	"github.com/mlevkov/go-note-sync/models"
)

// ─────────────────────────────────────────────
// Mock: store.UserRepository
// ─────────────────────────────────────────────

type mockUserRepository struct {
	createFn    func(ctx context.Context, user models.User) (models.User, error)
	findFn      func(ctx context.Context, username string) (models.User, error)
	sizeFn      func(ctx context.Context, userID string) (int64, error)
	deleteFn    func(ctx context.Context, userID string) error
	recomputeFn func(ctx context.Context, userID string) error
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return user, nil
}

func (m *mockUserRepository) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	if m.findFn != nil {
		return m.findFn(ctx, username)
	}
	return models.User{}, nil
}

func (m *mockUserRepository) GetUserSize(ctx context.Context, userID string) (int64, error) {
	if m.sizeFn != nil {
		return m.sizeFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockUserRepository) DeleteUser(ctx context.Context, userID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID)
	}
	return nil
}

func (m *mockUserRepository) RecomputeUserUsage(ctx context.Context, userID string) error {
	if m.recomputeFn != nil {
		return m.recomputeFn(ctx, userID)
	}
	return nil
}

// ─────────────────────────────────────────────
// Mock: store.KeyRepository
// ─────────────────────────────────────────────

type mockKeyRepository struct {
	createFn   func(ctx context.Context, key models.Key) (models.Key, error)
	byNameFn   func(ctx context.Context, keyName string) ([]models.Key, error)
	userKeysFn func(ctx context.Context, userID string) ([]models.Key, error)
	keyNamesFn func(ctx context.Context, userID string) ([]string, error)
	deleteFn   func(ctx context.Context, userID, keyName string) error
	countFn    func(ctx context.Context, userID, keyName string) (int64, error)
}

func (m *mockKeyRepository) CreateKey(ctx context.Context, key models.Key) (models.Key, error) {
	if m.createFn != nil {
		return m.createFn(ctx, key)
	}
	return key, nil
}

func (m *mockKeyRepository) GetKeysByName(ctx context.Context, keyName string) ([]models.Key, error) {
	if m.byNameFn != nil {
		return m.byNameFn(ctx, keyName)
	}
	return nil, nil
}

func (m *mockKeyRepository) GetUserKeys(ctx context.Context, userID string) ([]models.Key, error) {
	if m.userKeysFn != nil {
		return m.userKeysFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockKeyRepository) GetUserKeyNames(ctx context.Context, userID string) ([]string, error) {
	if m.keyNamesFn != nil {
		return m.keyNamesFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockKeyRepository) DeleteKey(ctx context.Context, userID, keyName string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, keyName)
	}
	return nil
}

func (m *mockKeyRepository) CountUserNotes(ctx context.Context, userID, keyName string) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, userID, keyName)
	}
	return 0, nil
}

// ─────────────────────────────────────────────
// Mock: store.NoteRepository
// ─────────────────────────────────────────────

type mockNoteRepository struct {
	getFn        func(ctx context.Context, noteID string) (models.Note, error)
	byKeyNamesFn func(ctx context.Context, keyNames []string) ([]models.Note, error)
	multiApplyFn func(ctx context.Context, userID string, actions []models.SyncAction) ([]models.VersionConflict, error)
}

func (m *mockNoteRepository) GetNote(ctx context.Context, noteID string) (models.Note, error) {
	if m.getFn != nil {
		return m.getFn(ctx, noteID)
	}
	return models.Note{}, nil
}

func (m *mockNoteRepository) GetNotesByKeyNames(ctx context.Context, keyNames []string) ([]models.Note, error) {
	if m.byKeyNamesFn != nil {
		return m.byKeyNamesFn(ctx, keyNames)
	}
	return nil, nil
}

func (m *mockNoteRepository) MultiApply(ctx context.Context, userID string, actions []models.SyncAction) ([]models.VersionConflict, error) {
	if m.multiApplyFn != nil {
		return m.multiApplyFn(ctx, userID, actions)
	}
	return nil, nil
}

// ─────────────────────────────────────────────
// Mock: notify.Notifier
// ─────────────────────────────────────────────

// recordingNotifier captures published events. Publish may run on a separate
// goroutine, so access goes through the mutex and tests that assert on
// events should poll via wait.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Publish(_ context.Context, event notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) wait(t *testing.T, want int) []notify.Event {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		n.mu.Lock()
		got := len(n.events)
		snapshot := append([]notify.Event(nil), n.events...)
		n.mu.Unlock()
		if got >= want {
			return snapshot
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d events, got %d", want, got)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// ─────────────────────────────────────────────
// Signed-request helpers
// ─────────────────────────────────────────────

// testIdentity is one user with a real ed25519 account key pair, so the
// authorization chain in tests runs against genuine signatures.
type testIdentity struct {
	user   models.User
	signer crypto.Signer
}

func newTestIdentity(t *testing.T, username string) *testIdentity {
	t.Helper()

	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generating account key pair: %v", err)
	}
	signer, err := crypto.NewSigner(crypto.AlgorithmEd25519, pub, priv)
	if err != nil {
		t.Fatalf("constructing signer: %v", err)
	}

	return &testIdentity{
		user: models.User{
			UserID:       "user-" + username,
			Username:     username,
			KeyAlgorithm: crypto.AlgorithmEd25519,
			PublicKey:    pub,
			QuotaTier:    models.QuotaTierDefault,
		},
		signer: signer,
	}
}

// testKey is one shared key with a real proof pair.
type testKey struct {
	key    models.Key
	signer crypto.Signer
}

func newTestKey(t *testing.T, userID, keyName string) *testKey {
	t.Helper()

	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generating key proof pair: %v", err)
	}
	signer, err := crypto.NewSigner(crypto.AlgorithmEd25519, pub, priv)
	if err != nil {
		t.Fatalf("constructing key signer: %v", err)
	}

	return &testKey{
		key: models.Key{
			ID:        "row-" + keyName,
			UserID:    userID,
			KeyName:   keyName,
			Algorithm: crypto.AlgorithmEd25519,
			PublicKey: pub,
		},
		signer: signer,
	}
}

func freshEnvelope(username string) models.SignedRequest {
	return models.SignedRequest{
		RequestID: uuid.NewString(),
		Username:  username,
		Timestamp: time.Now(),
	}
}

// newTestAuthorizer builds an authorizer over the given mocks with a real
// replay validator.
func newTestAuthorizer(users *mockUserRepository, keys *mockKeyRepository) *authorizer {
	return &authorizer{
		users:     users,
		keys:      keys,
		validator: guard.NewRequestValidator(logger.Nop()),
		logger:    logger.Nop(),
	}
}

// newTestLocks builds a lock manager with short test timings over the key
// repository mock.
func newTestLocks(keys *mockKeyRepository) *synclock.Manager {
	return synclock.NewManager(keys, time.Millisecond, 250*time.Millisecond, logger.Nop())
}
