package wawi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/loyalty/backend/internal/domain/wawi"
	"github.com/loyalty/backend/internal/infrastructure/config"
)

// memoryStore is an in-memory credential store for tests
type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string)}
}

func (s *memoryStore) GetCredential(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *memoryStore) SetCredential(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memoryStore) DeleteCredential(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func testWawiConfig(tokenURL string) *config.WawiConfig {
	return &config.WawiConfig{
		BaseURL:           "http://wawi.local",
		TokenURL:          tokenURL,
		ClientID:          "client",
		ClientSecret:      "secret",
		Timeout:           5 * time.Second,
		MaxRetries:        3,
		RetryBaseDelay:    time.Millisecond,
		TokenExpiryBuffer: time.Minute,
	}
}

func TestTokenManagerAcquire(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	store := newMemoryStore()
	manager, err := NewTokenManager(testWawiConfig(server.URL), store, zap.NewNop())
	require.NoError(t, err)

	t.Run("acquires and persists", func(t *testing.T) {
		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
		assert.Equal(t, "tok-1", store.data[credentialKeyToken])
		assert.NotEmpty(t, store.data[credentialKeyExpiry])
	})

	t.Run("second call reuses the cached token", func(t *testing.T) {
		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
		assert.Equal(t, 1, calls)
	})

	t.Run("clear forces re-acquisition", func(t *testing.T) {
		require.NoError(t, manager.ClearToken(context.Background()))
		assert.Empty(t, store.data[credentialKeyToken])

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
		assert.Equal(t, 2, calls)
	})
}

func TestTokenManagerRestoresPersistedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("token endpoint must not be called for a valid persisted token")
	}))
	defer server.Close()

	store := newMemoryStore()
	store.data[credentialKeyToken] = "persisted-tok"
	store.data[credentialKeyExpiry] = time.Now().Add(time.Hour).Format(time.RFC3339)

	manager, err := NewTokenManager(testWawiConfig(server.URL), store, zap.NewNop())
	require.NoError(t, err)

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "persisted-tok", token)
}

func TestTokenManagerIgnoresExpiredPersistedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-tok","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	store := newMemoryStore()
	store.data[credentialKeyToken] = "stale-tok"
	store.data[credentialKeyExpiry] = time.Now().Add(-time.Hour).Format(time.RFC3339)

	manager, err := NewTokenManager(testWawiConfig(server.URL), store, zap.NewNop())
	require.NoError(t, err)

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-tok", token)
}

func TestTokenManagerFailedAcquisition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_client", http.StatusUnauthorized)
	}))
	defer server.Close()

	store := newMemoryStore()
	store.data[credentialKeyToken] = "leftover"
	store.data[credentialKeyExpiry] = time.Now().Add(-time.Hour).Format(time.RFC3339)

	manager, err := NewTokenManager(testWawiConfig(server.URL), store, zap.NewNop())
	require.NoError(t, err)

	_, err = manager.GetToken(context.Background())
	assert.ErrorIs(t, err, wawi.ErrAuthFailed)

	// Partial state is cleared so no stale token lingers
	assert.Empty(t, store.data[credentialKeyToken])
	assert.Empty(t, store.data[credentialKeyExpiry])
}

func TestNewTokenManagerValidatesConfig(t *testing.T) {
	cfg := testWawiConfig("http://token.local")
	cfg.ClientSecret = ""

	_, err := NewTokenManager(cfg, newMemoryStore(), zap.NewNop())
	assert.ErrorIs(t, err, wawi.ErrNotConfigured)
}
