package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daisyflowers/budtender/internal/model"
)

// pagedUpstream serves a fixed number of full pages followed by an empty one.
func pagedUpstream(t *testing.T, pages [][]model.Product, arrayKey string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.URL.Query().Get("visible"))

		var cursor int
		_, err := fmt.Sscanf(r.URL.Query().Get("pagination_id"), "%d", &cursor)
		require.NoError(t, err)

		var items []model.Product
		if cursor < len(pages) {
			items = pages[cursor]
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{arrayKey: items}))
	}))
}

func newTestFetcher(t *testing.T, url string, maxPages int) *Fetcher {
	t.Helper()
	f, err := NewFetcher(FetcherConfig{BaseURL: url, Token: "test-token", MaxPages: maxPages})
	require.NoError(t, err)
	return f
}

func TestFetchStopsOnEmptyPage(t *testing.T) {
	pages := [][]model.Product{
		{{Name: "A"}, {Name: "B"}},
		{{Name: "C"}},
	}
	srv := pagedUpstream(t, pages, "products")
	defer srv.Close()

	snap := newTestFetcher(t, srv.URL, 100).Fetch(context.Background(), nil)

	require.Len(t, snap.Products, 3)
	assert.Equal(t, "A", snap.Products[0].Name)
	assert.Equal(t, "C", snap.Products[2].Name)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestFetchAcceptsMenuProductsKey(t *testing.T) {
	pages := [][]model.Product{{{Name: "A"}}}
	srv := pagedUpstream(t, pages, "menu_products")
	defer srv.Close()

	snap := newTestFetcher(t, srv.URL, 100).Fetch(context.Background(), nil)
	require.Len(t, snap.Products, 1)
}

func TestFetchHonorsPageCeiling(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		// Never-ending catalog: every page has one product.
		_, _ = w.Write([]byte(`{"products":[{"name":"X"}]}`))
	}))
	defer srv.Close()

	snap := newTestFetcher(t, srv.URL, 5).Fetch(context.Background(), nil)

	assert.Equal(t, 5, requests)
	assert.Len(t, snap.Products, 5)
}

func TestFetchReturnsPartialOnPageError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pagination_id") == "0" {
			_, _ = w.Write([]byte(`{"products":[{"name":"A"},{"name":"B"}]}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	snap := newTestFetcher(t, srv.URL, 100).Fetch(context.Background(), nil)

	// Page 1 failed; page 0's products survive and no error surfaces.
	require.Len(t, snap.Products, 2)
}

func TestFetchEmptyOnFirstPageError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	snap := newTestFetcher(t, srv.URL, 100).Fetch(context.Background(), nil)
	assert.Empty(t, snap.Products)
}

func TestFetchReportsPageProgress(t *testing.T) {
	pages := [][]model.Product{
		{{Name: "A"}, {Name: "B"}},
		{{Name: "C"}},
	}
	srv := pagedUpstream(t, pages, "products")
	defer srv.Close()

	var totals []int
	newTestFetcher(t, srv.URL, 100).Fetch(context.Background(), func(_, _, total int) {
		totals = append(totals, total)
	})

	assert.Equal(t, []int{2, 3}, totals)
}

func TestNewFetcherRequiresBaseURL(t *testing.T) {
	_, err := NewFetcher(FetcherConfig{})
	require.Error(t, err)
}
