package wawi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/loyalty/backend/internal/domain/wawi"
	"github.com/loyalty/backend/internal/infrastructure/config"
)

// Credential store keys for the persisted token
const (
	credentialKeyToken  = "wawi.access_token"
	credentialKeyExpiry = "wawi.token_expiry"
)

// CredentialStore is the durable key/value store backing token
// persistence, so a process restart reuses a still-valid token.
type CredentialStore interface {
	// GetCredential returns the stored value, or "" when absent
	GetCredential(ctx context.Context, key string) (string, error)

	// SetCredential stores a value under the key
	SetCredential(ctx context.Context, key, value string) error

	// DeleteCredential removes the key
	DeleteCredential(ctx context.Context, key string) error
}

// tokenResponse is the OAuth2 client-credentials exchange response
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenManager acquires, caches and refreshes the OAuth2 bearer token
// for the WAWI API. It performs no retries itself; bounded retry on
// authentication failure is the API client's responsibility.
type TokenManager struct {
	cfg        *config.WawiConfig
	store      CredentialStore
	httpClient *http.Client
	logger     *zap.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time
	loaded bool
}

// NewTokenManager creates a token manager for the configured WAWI endpoint
func NewTokenManager(cfg *config.WawiConfig, store CredentialStore, logger *zap.Logger) (*TokenManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", wawi.ErrNotConfigured, err)
	}
	return &TokenManager{
		cfg:   cfg,
		store: store,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("wawi-token"),
	}, nil
}

// GetToken returns a currently valid bearer token, transparently
// refreshing when absent or within the expiry buffer.
func (m *TokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		m.loadPersisted(ctx)
		m.loaded = true
	}

	if m.token != "" && time.Now().Before(m.expiry.Add(-m.cfg.TokenExpiryBuffer)) {
		return m.token, nil
	}

	return m.acquire(ctx)
}

// ClearToken invalidates the cached and persisted token, forcing the
// next GetToken call to re-acquire.
func (m *TokenManager) ClearToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = ""
	m.expiry = time.Time{}

	if err := m.store.DeleteCredential(ctx, credentialKeyToken); err != nil {
		return err
	}
	return m.store.DeleteCredential(ctx, credentialKeyExpiry)
}

// loadPersisted restores a previously acquired token from the credential
// store. An expired or unparseable persisted token is ignored.
func (m *TokenManager) loadPersisted(ctx context.Context) {
	token, err := m.store.GetCredential(ctx, credentialKeyToken)
	if err != nil || token == "" {
		return
	}
	expiryRaw, err := m.store.GetCredential(ctx, credentialKeyExpiry)
	if err != nil || expiryRaw == "" {
		return
	}
	expiry, err := time.Parse(time.RFC3339, expiryRaw)
	if err != nil {
		return
	}
	if time.Now().After(expiry.Add(-m.cfg.TokenExpiryBuffer)) {
		return
	}
	m.token = token
	m.expiry = expiry
	m.logger.Debug("Restored persisted WAWI token", zap.Time("expiry", expiry))
}

// acquire performs the client-credentials exchange. Callers must hold m.mu.
func (m *TokenManager) acquire(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", m.cfg.ClientID)
	form.Set("client_secret", m.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("wawi: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.clearPartial(ctx)
		return "", fmt.Errorf("%w: token endpoint unreachable: %v", wawi.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		m.clearPartial(ctx)
		return "", fmt.Errorf("%w: failed to read token response: %v", wawi.ErrAuthFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		m.clearPartial(ctx)
		return "", fmt.Errorf("%w: token endpoint returned %d", wawi.ErrAuthFailed, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil || tr.AccessToken == "" {
		m.clearPartial(ctx)
		return "", fmt.Errorf("%w: malformed token response", wawi.ErrAuthFailed)
	}

	m.token = tr.AccessToken
	m.expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)

	if err := m.store.SetCredential(ctx, credentialKeyToken, m.token); err != nil {
		m.logger.Warn("Failed to persist WAWI token", zap.Error(err))
	}
	if err := m.store.SetCredential(ctx, credentialKeyExpiry, m.expiry.Format(time.RFC3339)); err != nil {
		m.logger.Warn("Failed to persist WAWI token expiry", zap.Error(err))
	}

	m.logger.Info("Acquired WAWI token", zap.Time("expiry", m.expiry))
	return m.token, nil
}

// clearPartial drops any partial token state after a failed acquisition.
// Callers must hold m.mu.
func (m *TokenManager) clearPartial(ctx context.Context) {
	m.token = ""
	m.expiry = time.Time{}
	_ = m.store.DeleteCredential(ctx, credentialKeyToken)
	_ = m.store.DeleteCredential(ctx, credentialKeyExpiry)
}

// Ensure TokenManager implements the TokenSource port
var _ wawi.TokenSource = (*TokenManager)(nil)
