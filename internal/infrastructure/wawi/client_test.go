package wawi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/loyalty/backend/internal/domain/wawi"
)

// stubTokens is a scripted token source for client tests
type stubTokens struct {
	tokens  []string
	next    int
	cleared int
	getErr  error
}

func (s *stubTokens) GetToken(ctx context.Context) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	if s.next >= len(s.tokens) {
		return s.tokens[len(s.tokens)-1], nil
	}
	token := s.tokens[s.next]
	s.next++
	return token, nil
}

func (s *stubTokens) ClearToken(ctx context.Context) error {
	s.cleared++
	return nil
}

func newTestClient(t *testing.T, baseURL string, tokens wawi.TokenSource) *Client {
	t.Helper()
	cfg := testWawiConfig(baseURL + "/token")
	cfg.BaseURL = baseURL
	client, err := NewClient(cfg, tokens, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestSearchReadSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search_read", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"records":[{"id":1,"name":"ACME"},{"id":2,"name":"Globex"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &stubTokens{tokens: []string{"tok"}})

	records, err := client.SearchRead(context.Background(), wawi.ModelCustomer, wawi.Query{
		Fields: []string{"id", "name"},
		Domain: []wawi.Condition{wawi.Cond("active", "=", true)},
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].Int64("id"))
	assert.Equal(t, "Globex", records[1].String("name"))
}

func TestSearchReadRetriesExpiredToken(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") == "Bearer stale" {
			http.Error(w, "token expired", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"records":[{"id":1}]}`))
	}))
	defer server.Close()

	tokens := &stubTokens{tokens: []string{"stale", "fresh"}}
	client := newTestClient(t, server.URL, tokens)

	records, err := client.SearchRead(context.Background(), wawi.ModelOrder, wawi.Query{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, tokens.cleared)
}

func TestSearchReadRetriesTransientFailures(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch calls {
		case 1:
			http.Error(w, "slow down", http.StatusTooManyRequests)
		case 2:
			http.Error(w, "boom", http.StatusBadGateway)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"records":[]}`))
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &stubTokens{tokens: []string{"tok"}})

	records, err := client.SearchRead(context.Background(), wawi.ModelProduct, wawi.Query{})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 3, calls)
}

func TestSearchReadExhaustsRetryBudget(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &stubTokens{tokens: []string{"tok"}})

	_, err := client.SearchRead(context.Background(), wawi.ModelCustomer, wawi.Query{})
	require.Error(t, err)
	assert.ErrorIs(t, err, wawi.ErrUnavailable)
	assert.Equal(t, 3, calls)
}

func TestSearchReadSurfacesAPIError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"unknown model"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &stubTokens{tokens: []string{"tok"}})

	_, err := client.SearchRead(context.Background(), "no.such.model", wawi.Query{})
	require.Error(t, err)

	var apiErr *wawi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	// Non-retryable errors are surfaced immediately
	assert.Equal(t, 1, calls)
}

func TestSearchReadTokenAcquisitionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("API must not be reached without a token")
	}))
	defer server.Close()

	tokens := &stubTokens{getErr: wawi.ErrAuthFailed}
	client := newTestClient(t, server.URL, tokens)

	_, err := client.SearchRead(context.Background(), wawi.ModelCustomer, wawi.Query{})
	assert.ErrorIs(t, err, wawi.ErrAuthFailed)
}

func TestSearchReadMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &stubTokens{tokens: []string{"tok"}})

	_, err := client.SearchRead(context.Background(), wawi.ModelCustomer, wawi.Query{})
	assert.ErrorIs(t, err, wawi.ErrInvalidResponse)
}
