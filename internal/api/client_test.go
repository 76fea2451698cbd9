package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushp314/crova-storefront/internal/apperrors"
	"github.com/pushp314/crova-storefront/internal/logging"
)

// --- Test doubles ---

type fakeTokenSource struct {
	mu    sync.Mutex
	token string
}

func (f *fakeTokenSource) Token() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.token != ""
}

func (f *fakeTokenSource) ClearToken() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	return nil
}

func (f *fakeTokenSource) set(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

type fakeObserver struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeObserver) Unauthorized() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

func (f *fakeObserver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(t *testing.T, srv *httptest.Server, tokens TokenSource) *Client {
	t.Helper()
	c, err := New(DefaultConfig(srv.URL), tokens, newTestLogger())
	require.NoError(t, err)
	return c
}

// --- Tests ---

func TestGet_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tokens := &fakeTokenSource{}
	tokens.set("T")
	c := newTestClient(t, srv, tokens)

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.Get(context.Background(), "/products", &out))
	assert.True(t, out.OK)
	assert.Equal(t, "Bearer T", gotAuth)
}

func TestGet_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &fakeTokenSource{})

	require.NoError(t, c.Get(context.Background(), "/products", nil))
	assert.Empty(t, gotAuth)
}

func TestCorrelationID_FromContextOrGenerated(t *testing.T) {
	var gotIDs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIDs = append(gotIDs, r.Header.Get("X-Correlation-ID"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &fakeTokenSource{})

	ctx := logging.WithCorrelationID(context.Background(), "corr-1")
	require.NoError(t, c.Get(ctx, "/products", nil))
	require.NoError(t, c.Get(context.Background(), "/products", nil))

	require.Len(t, gotIDs, 2)
	assert.Equal(t, "corr-1", gotIDs[0])
	assert.NotEmpty(t, gotIDs[1], "a correlation id is generated when the context has none")
}

func TestUnauthorized_ClearsTokenAndNotifies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer srv.Close()

	tokens := &fakeTokenSource{}
	tokens.set("stale")
	observer := &fakeObserver{}

	c := newTestClient(t, srv, tokens)
	c.SetUnauthorizedObserver(observer)

	err := c.Get(context.Background(), "/auth/me", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, hasToken := tokens.Token()
	assert.False(t, hasToken, "401 must delete the persisted token")
	assert.Equal(t, 1, observer.count())

	// The original error is still surfaced to the caller.
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "token expired", appErr.Message)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
}

func TestUnauthorized_NoObserverRegistered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &fakeTokenSource{}
	tokens.set("stale")
	c := newTestClient(t, srv, tokens)

	// Must not panic without an observer.
	err := c.Get(context.Background(), "/auth/me", nil)
	assert.Error(t, err)

	_, hasToken := tokens.Token()
	assert.False(t, hasToken)
}

func TestPost_SendsBodyAndIdempotencyKey(t *testing.T) {
	var gotKey, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ord-1"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &fakeTokenSource{})

	var out struct {
		ID string `json:"id"`
	}
	err := c.Post(context.Background(), "/orders",
		map[string]any{"paymentMethod": "COD"}, &out,
		WithIdempotencyKey("key-123"),
	)
	require.NoError(t, err)
	assert.Equal(t, "ord-1", out.ID)
	assert.Equal(t, "key-123", gotKey)
	assert.Equal(t, "application/json", gotContentType)
}

func TestErrorBody_LegacyErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"quantity must be at least 1"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &fakeTokenSource{})

	err := c.Post(context.Background(), "/cart/update", map[string]any{}, nil)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "quantity must be at least 1", appErr.Message)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestErrorBody_ValidationFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"validation failed","errors":{"email":"is required"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &fakeTokenSource{})

	err := c.Post(context.Background(), "/auth/signup", map[string]any{}, nil)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "is required", appErr.Fields["email"])
}

func TestErrorBody_Unstructured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`no such page`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &fakeTokenSource{})

	err := c.Get(context.Background(), "/products/missing", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestReadBreaker_TripsOnServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &fakeTokenSource{})
	ctx := context.Background()

	// First failures are surfaced with the parsed body.
	for i := 0; i < 5; i++ {
		err := c.Get(ctx, "/products", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInternal), "attempt %d", i)
	}

	// The breaker is now open and rejects without hitting the server.
	err := c.Get(ctx, "/products", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
}

func TestMutations_BypassReadBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &fakeTokenSource{})
	ctx := context.Background()

	// Trip the read breaker.
	for i := 0; i < 6; i++ {
		_ = c.Get(ctx, "/products", nil)
	}
	require.ErrorIs(t, c.Get(ctx, "/products", nil), ErrCircuitOpen)

	// Mutations still go through.
	assert.NoError(t, c.Post(ctx, "/cart/add", map[string]any{"variantId": "v1"}, nil))
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New(DefaultConfig("http://bad url with spaces"), &fakeTokenSource{}, newTestLogger())
	assert.Error(t, err)
}
