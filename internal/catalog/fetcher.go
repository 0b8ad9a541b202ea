// Package catalog retrieves and caches the upstream product menu.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/daisyflowers/budtender/internal/common"
	"github.com/daisyflowers/budtender/internal/model"
)

// FetcherConfig configures the upstream menu client.
type FetcherConfig struct {
	// BaseURL is the menu_products listing endpoint.
	BaseURL string
	// Token is the bearer token for the partner API.
	Token string
	// PageSize is items requested per page (default 100).
	PageSize int
	// MaxPages is the hard pagination ceiling (default 100).
	MaxPages int
}

// PageFunc is invoked after each fetched page, mainly for progress output.
type PageFunc func(page, pageCount, total int)

// Fetcher pages through the upstream menu API and concatenates results.
type Fetcher struct {
	httpClient *http.Client
	baseURL    string
	token      string
	pageSize   int
	maxPages   int
}

// NewFetcher creates an upstream menu fetcher.
func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: catalog base URL is required", common.ErrMissingConfig)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 100
	}

	return &Fetcher{
		baseURL:  cfg.BaseURL,
		token:    cfg.Token,
		pageSize: pageSize,
		maxPages: maxPages,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Fetch pages through the listing endpoint until an empty page or the
// page ceiling is reached. A page failure aborts further paging and the
// accumulation so far is returned as-is; partial results are accepted
// silently per the upstream contract, so no error surfaces to the caller.
func (f *Fetcher) Fetch(ctx context.Context, onPage PageFunc) model.Snapshot {
	var all []model.Product

	for page := 0; page < f.maxPages; page++ {
		products, err := f.fetchPage(ctx, page)
		if err != nil {
			common.LogError(err, "Catalog page fetch failed, keeping partial result", common.Fields{
				"page":        page,
				"accumulated": len(all),
			})
			break
		}
		if len(products) == 0 {
			break
		}
		all = append(all, products...)
		if onPage != nil {
			onPage(page, len(products), len(all))
		}
	}

	return model.Snapshot{Products: all, FetchedAt: time.Now()}
}

// menuPage is a single listing response. The upstream API uses either
// key depending on the endpoint version.
type menuPage struct {
	Products     []model.Product `json:"products"`
	MenuProducts []model.Product `json:"menu_products"`
}

func (p menuPage) items() []model.Product {
	if len(p.Products) > 0 {
		return p.Products
	}
	return p.MenuProducts
}

func (f *Fetcher) fetchPage(ctx context.Context, cursor int) ([]model.Product, error) {
	url := fmt.Sprintf("%s?visible=true&count=%d&pagination_id=%d", f.baseURL, f.pageSize, cursor)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", common.ErrUpstreamFetch, resp.StatusCode)
	}

	var page menuPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	return page.items(), nil
}
