package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mlevkov/go-note-sync/internal/config"
	"github.com/mlevkov/go-note-sync/internal/crypto"
	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWebhookNotifier_NoTargetsMeansNop(t *testing.T) {
	notifier, err := NewWebhookNotifier(config.Notify{}, logger.Nop())

	require.NoError(t, err)
	assert.IsType(t, NopNotifier{}, notifier)
}

func TestNewWebhookNotifier_BadSigningKey(t *testing.T) {
	cfg := config.Notify{
		WebhookURLs: []string{"https://hooks.example.com/notes"},
		SigningKey:  "not-base64!!!",
		PublicKey:   "not-base64!!!",
	}

	_, err := NewWebhookNotifier(cfg, logger.Nop())

	require.Error(t, err)
}

func TestWebhookNotifier_PublishDeliversSignedEvent(t *testing.T) {
	pub, priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	received := make(chan Event, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		received <- event
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier, err := NewWebhookNotifier(config.Notify{
		WebhookURLs: []string{server.URL},
		SigningKey:  priv,
		PublicKey:   pub,
	}, logger.Nop())
	require.NoError(t, err)

	notifier.Publish(context.Background(), Event{
		Kind:     EventNoteUpdated,
		Username: "alice",
		NoteID:   "note-1",
	})

	select {
	case event := <-received:
		assert.Equal(t, EventNoteUpdated, event.Kind)
		assert.Equal(t, "alice", event.Username)
		assert.NotEmpty(t, event.EventID)
		assert.False(t, event.Timestamp.IsZero())

		// the delivered payload verifies under the server role
		verifier, err := crypto.NewVerifier(crypto.AlgorithmEd25519, pub)
		require.NoError(t, err)
		assert.True(t, verifier.Verify(crypto.RoleServer, &event))
	case <-time.After(2 * time.Second):
		t.Fatal("webhook target never received the event")
	}
}

func TestWebhookNotifier_PublishSurvivesDeadTarget(t *testing.T) {
	pub, priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	server.Close()

	notifier, err := NewWebhookNotifier(config.Notify{
		WebhookURLs: []string{server.URL},
		SigningKey:  priv,
		PublicKey:   pub,
	}, logger.Nop())
	require.NoError(t, err)

	// delivery failure must not panic or surface to the caller
	notifier.Publish(context.Background(), Event{Kind: EventNoteDeleted, NoteID: "note-1"})
}

func TestNopNotifier_PublishIsNoOp(t *testing.T) {
	NopNotifier{}.Publish(context.Background(), Event{Kind: EventBatchApplied})
}
