package search

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushp314/crova-storefront/internal/api"
	"github.com/pushp314/crova-storefront/internal/state"
)

func newTestService(t *testing.T, srv *httptest.Server) *Service {
	t.Helper()
	st, err := state.NewStore(t.TempDir())
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client, err := api.New(api.DefaultConfig(srv.URL), st, logger)
	require.NoError(t, err)
	return NewService(client, st, logger)
}

func TestSearch_QueriesAndRecordsHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/search", r.URL.Path)
		assert.Equal(t, "linen shirt", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"products":[{"id":"p1","name":"Linen Shirt","slug":"linen-shirt"}]}`))
	}))
	defer srv.Close()

	svc := newTestService(t, srv)

	products, err := svc.Search(context.Background(), "  linen shirt ")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "linen-shirt", products[0].Slug)

	assert.Equal(t, []string{"linen shirt"}, svc.Recent())
}

func TestSearch_EmptyQueryRejectedLocally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty query must not reach the network")
	}))
	defer srv.Close()

	svc := newTestService(t, srv)

	_, err := svc.Search(context.Background(), "   ")
	assert.Error(t, err)
	assert.Empty(t, svc.Recent())
}

func TestSearch_FailedQueryNotRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad query"}`))
	}))
	defer srv.Close()

	svc := newTestService(t, srv)

	_, err := svc.Search(context.Background(), "x")
	require.Error(t, err)
	assert.Empty(t, svc.Recent())
}

func TestRecent_MostRecentFirstAndClearable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products":[]}`))
	}))
	defer srv.Close()

	svc := newTestService(t, srv)
	ctx := context.Background()

	for _, q := range []string{"shirts", "jackets", "shirts"} {
		_, err := svc.Search(ctx, q)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"shirts", "jackets"}, svc.Recent(), "repeat terms move to the front, no duplicates")

	require.NoError(t, svc.ClearRecent())
	assert.Empty(t, svc.Recent())
}
