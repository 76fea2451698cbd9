package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushp314/crova-storefront/internal/api"
	"github.com/pushp314/crova-storefront/internal/cache"
)

type staticTokens struct{}

func (staticTokens) Token() (string, bool) { return "", false }
func (staticTokens) ClearToken() error     { return nil }

func newTestService(t *testing.T, srv *httptest.Server) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client, err := api.New(api.DefaultConfig(srv.URL), staticTokens{}, logger)
	require.NoError(t, err)
	return NewService(client, cache.New(), logger)
}

func TestProducts_FetchesAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/products", r.URL.Path)
		_, _ = w.Write([]byte(`{"products":[{"id":"p1","name":"Oxford Shirt","slug":"oxford-shirt","price":4999}],"total":1,"page":1,"pages":1}`))
	}))
	defer srv.Close()

	svc := newTestService(t, srv)
	ctx := context.Background()

	list, err := svc.Products(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "oxford-shirt", list.Products[0].Slug)

	_, err = svc.Products(ctx, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "repeat listing must come from the cache")
}

func TestProducts_ParamsEncodedAndKeyedSeparately(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.String())
		_, _ = w.Write([]byte(`{"products":[],"total":0,"page":1,"pages":0}`))
	}))
	defer srv.Close()

	svc := newTestService(t, srv)
	ctx := context.Background()

	_, err := svc.Products(ctx, ListParams{Category: "shirts", Sort: SortPriceAsc, Page: 2})
	require.NoError(t, err)
	_, err = svc.Products(ctx, ListParams{Category: "outerwear"})
	require.NoError(t, err)

	require.Len(t, paths, 2, "different filter sets are distinct cache keys")
	assert.Contains(t, paths[0], "category=shirts")
	assert.Contains(t, paths[0], "sort=price_asc")
	assert.Contains(t, paths[0], "page=2")
	assert.Contains(t, paths[1], "category=outerwear")
}

func TestProduct_BySlugOrID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/oxford-shirt", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"p1","name":"Oxford Shirt","slug":"oxford-shirt","variants":[{"id":"v1","size":"M","color":"white","stock":3}]}`))
	}))
	defer srv.Close()

	svc := newTestService(t, srv)

	p, err := svc.Product(context.Background(), "oxford-shirt")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "M", p.Variants[0].Size)

	_, err = svc.Product(context.Background(), "")
	assert.Error(t, err)
}

func TestCollectionsAndCategories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collections":
			_, _ = w.Write([]byte(`[{"id":"c1","name":"Winter 25","slug":"winter-25"}]`))
		case "/categories":
			_, _ = w.Write([]byte(`[{"id":"cat1","name":"Shirts","slug":"shirts"}]`))
		}
	}))
	defer srv.Close()

	svc := newTestService(t, srv)
	ctx := context.Background()

	collections, err := svc.Collections(ctx)
	require.NoError(t, err)
	require.Len(t, collections, 1)
	assert.Equal(t, "winter-25", collections[0].Slug)

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Shirts", categories[0].Name)
}

func TestSubmitReview_InvalidatesCaches(t *testing.T) {
	var reviewFetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reviews/product/p1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method == http.MethodGet {
			reviewFetches.Add(1)
			_, _ = w.Write([]byte(`[{"id":"r1","productId":"p1","rating":5,"comment":"great fit"}]`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"review added"}`))
	}))
	defer srv.Close()

	svc := newTestService(t, srv)
	ctx := context.Background()

	_, err := svc.Reviews(ctx, "p1")
	require.NoError(t, err)
	_, err = svc.Reviews(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), reviewFetches.Load())

	require.NoError(t, svc.SubmitReview(ctx, "p1", ReviewInput{Rating: 5, Comment: "great fit"}))

	_, err = svc.Reviews(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), reviewFetches.Load(), "submitting a review must force a re-fetch")
}

func TestSubmitReview_ValidatesInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid review must not reach the network")
	}))
	defer srv.Close()

	svc := newTestService(t, srv)

	assert.Error(t, svc.SubmitReview(context.Background(), "p1", ReviewInput{Rating: 6, Comment: "x"}))
	assert.Error(t, svc.SubmitReview(context.Background(), "", ReviewInput{Rating: 5, Comment: "fine"}))
}

func TestSubmitDesignInquiry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/design/inquire", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	svc := newTestService(t, srv)

	err := svc.SubmitDesignInquiry(context.Background(), DesignInquiry{
		Name:    "Asha",
		Email:   "a@b.com",
		Message: "looking for a custom varsity jacket",
	})
	assert.NoError(t, err)

	err = svc.SubmitDesignInquiry(context.Background(), DesignInquiry{Name: "", Email: "bad", Message: "short"})
	assert.Error(t, err)
}
