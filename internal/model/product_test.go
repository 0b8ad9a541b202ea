package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreURL(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    string
	}{
		{
			name: "reuses slug from existing path",
			product: Product{
				ProductID: 1810631,
				Path:      "products/1810631/tasteology-berry-dream",
			},
			want: storeMenuBase + "1810631/tasteology-berry-dream",
		},
		{
			name: "keeps nested slug segments",
			product: Product{
				ProductID: 42,
				Path:      "products/42/some/nested-slug",
			},
			want: storeMenuBase + "42/some/nested-slug",
		},
		{
			name: "builds slug from brand and name",
			product: Product{
				ProductID: 7,
				Brand:     "Nira+",
				Name:      "Blue Dream 3.5g",
			},
			want: storeMenuBase + "7/nira-blue-dream-3-5g",
		},
		{
			name: "strips trademark symbols",
			product: Product{
				ProductID: 9,
				Brand:     "Hijinks™",
				Name:      "Gummies®",
			},
			want: storeMenuBase + "9/hijinks-gummies",
		},
		{
			name: "name only when brand missing",
			product: Product{
				ProductID: 11,
				Name:      "Solo Product",
			},
			want: storeMenuBase + "11/solo-product",
		},
		{
			name: "falls back to product id slug",
			product: Product{
				ProductID: 13,
			},
			want: storeMenuBase + "13/product-13",
		},
		{
			name:    "no product id yields no URL",
			product: Product{Name: "Orphan", Path: "products/0/orphan"},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StoreURL(tt.product))
		})
	}
}

func TestNewCard(t *testing.T) {
	p := Product{
		ProductID:   5,
		Name:        "Berry Dream",
		Brand:       "Tasteology",
		Kind:        "Edible",
		PriceEach:   25,
		THCLabel:    "5mg",
		CBDLabel:    "2.5mg",
		Description: "Berry flavored",
		Path:        "products/5/berry-dream",
		ImageURLs:   []string{"https://img.example/one.png", "https://img.example/two.png"},
	}

	card := NewCard(p)
	assert.Equal(t, "Berry Dream", card.Name)
	assert.Equal(t, "Tasteology", card.Brand)
	assert.Equal(t, "Edible", card.Kind)
	assert.InEpsilon(t, 25.0, card.Price, 0.001)
	assert.Equal(t, "5mg", card.THC)
	assert.Equal(t, "2.5mg", card.CBD)
	assert.Equal(t, storeMenuBase+"5/berry-dream", card.Path)
	assert.Equal(t, "https://img.example/one.png", card.Image)
}

func TestFirstImage(t *testing.T) {
	assert.Equal(t, "a", Product{ImageURLs: []string{"a", "b"}}.FirstImage())
	assert.Equal(t, "fallback", Product{Image: "fallback"}.FirstImage())
	assert.Empty(t, Product{}.FirstImage())
}

func TestSnapshotAge(t *testing.T) {
	fetched := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	snap := Snapshot{FetchedAt: fetched}
	require.Equal(t, 30*time.Minute, snap.Age(fetched.Add(30*time.Minute)))
}
