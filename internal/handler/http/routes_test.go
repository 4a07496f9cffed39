package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mlevkov/go-note-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullMockServices wires every service with permissive defaults so the whole
// route table can be exercised through chi.
func fullMockServices() (*mockAuthService, *mockKeyService, *mockNoteService, *mockSyncService) {
	auth := &mockAuthService{
		registerFn: func(_ context.Context, req models.RegisterRequest) (models.User, error) {
			return models.User{UserID: "user-1", Username: req.Username}, nil
		},
		issueChallengeFn: func(context.Context, string) (string, error) {
			return "nonce", nil
		},
		loginFn: func(context.Context, models.LoginRequest) (models.Token, models.User, error) {
			return stubToken("signed", "user-1"), models.User{UserID: "user-1"}, nil
		},
		parseTokenFn: func(_ context.Context, tokenString string) (models.Token, error) {
			return stubToken(tokenString, "user-1"), nil
		},
		deleteUserFn: func(context.Context, *models.DeleteUserRequest) error {
			return nil
		},
	}
	keys := &mockKeyService{
		createKeyFn: func(_ context.Context, req *models.CreateKeyRequest) (models.Key, error) {
			return models.Key{KeyName: req.KeyName}, nil
		},
		shareKeyFn: func(_ context.Context, req *models.ShareKeyRequest) (models.Key, error) {
			return models.Key{KeyName: req.KeyName}, nil
		},
		deleteKeyFn: func(context.Context, *models.DeleteKeyRequest) error {
			return nil
		},
	}
	notes := &mockNoteService{
		updateNoteFn: func(context.Context, *models.UpdateNoteRequest) ([]models.VersionConflict, error) {
			return nil, nil
		},
		deleteNoteFn: func(context.Context, *models.DeleteNoteRequest) error {
			return nil
		},
		applyBatchFn: func(context.Context, *models.BatchRequest) ([]models.VersionConflict, error) {
			return nil, nil
		},
	}
	syncs := &mockSyncService{
		snapshotFn: func(context.Context, *models.SnapshotRequest) (models.SnapshotResponse, error) {
			return models.SnapshotResponse{}, nil
		},
		getNotesFn: func(context.Context, string) ([]models.Note, error) {
			return nil, nil
		},
	}
	return auth, keys, notes, syncs
}

func TestRoutes_AllEndpointsAreWired(t *testing.T) {
	auth, keys, notes, syncs := fullMockServices()
	router := newTestHandler(auth, keys, notes, syncs).Init()
	server := httptest.NewServer(router)
	defer server.Close()

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodPost, "/api/user/register", http.StatusCreated},
		{http.MethodPost, "/api/user/challenge", http.StatusOK},
		{http.MethodPost, "/api/user/login", http.StatusOK},
		{http.MethodPost, "/api/user/delete", http.StatusNoContent},
		{http.MethodPost, "/api/key/create", http.StatusCreated},
		{http.MethodPost, "/api/key/share", http.StatusCreated},
		{http.MethodPost, "/api/key/delete", http.StatusNoContent},
		{http.MethodPost, "/api/note/update", http.StatusOK},
		{http.MethodPost, "/api/note/delete", http.StatusNoContent},
		{http.MethodPost, "/api/sync/batch", http.StatusOK},
		{http.MethodPost, "/api/sync/snapshot", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, server.URL+tt.path, strings.NewReader("{}"))
			require.NoError(t, err)

			resp, err := server.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestRoutes_ListNotesRequiresToken(t *testing.T) {
	auth, keys, notes, syncs := fullMockServices()
	router := newTestHandler(auth, keys, notes, syncs).Init()
	server := httptest.NewServer(router)
	defer server.Close()

	// without a token
	resp, err := server.Client().Get(server.URL + "/api/notes")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// with a token
	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/notes", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer some-valid-token")

	resp, err = server.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutes_UnsupportedMethodAnswers404(t *testing.T) {
	auth, keys, notes, syncs := fullMockServices()
	router := newTestHandler(auth, keys, notes, syncs).Init()
	server := httptest.NewServer(router)
	defer server.Close()

	// a GET against a POST-only route hides the route entirely
	resp, err := server.Client().Get(server.URL + "/api/note/update")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRoutes_TraceIDHeaderIsSet(t *testing.T) {
	auth, keys, notes, syncs := fullMockServices()
	router := newTestHandler(auth, keys, notes, syncs).Init()
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := server.Client().Post(server.URL+"/api/user/challenge", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestRoutes_TraceIDIsPropagatedFromRequest(t *testing.T) {
	auth, keys, notes, syncs := fullMockServices()
	router := newTestHandler(auth, keys, notes, syncs).Init()
	server := httptest.NewServer(router)
	defer server.Close()

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/user/challenge", strings.NewReader("{}"))
	require.NoError(t, err)
	req.Header.Set("X-Trace-ID", "trace-42")

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "trace-42", resp.Header.Get("X-Trace-ID"))
}
