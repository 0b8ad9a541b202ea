// Package model defines the core domain types shared across the application.
package model

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Product is a single menu item as returned by the upstream catalog API.
// Products are immutable once fetched.
type Product struct {
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Kind        string   `json:"kind"`
	Type        string   `json:"type"`
	RootSubtype string   `json:"root_subtype"`
	THCLabel    string   `json:"thc_label"`
	CBDLabel    string   `json:"cbd_label"`
	Description string   `json:"description"`
	Path        string   `json:"path"`
	Image       string   `json:"image"`
	ImageURLs   []string `json:"image_urls"`
	ProductID   int64    `json:"product_id"`
	PriceEach   float64  `json:"price_each"`
}

// FirstImage returns the primary image reference for the product.
func (p Product) FirstImage() string {
	if len(p.ImageURLs) > 0 {
		return p.ImageURLs[0]
	}
	return p.Image
}

// Card is the outward-facing product shape: what gets serialized for the
// model prompt and returned to chat clients.
type Card struct {
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Kind        string  `json:"kind"`
	THC         string  `json:"thc"`
	CBD         string  `json:"cbd"`
	Description string  `json:"description"`
	Path        string  `json:"path"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
}

// NewCard builds a Card from a Product, resolving the canonical store URL
// and primary image.
func NewCard(p Product) Card {
	return Card{
		Name:        p.Name,
		Brand:       p.Brand,
		Kind:        p.Kind,
		Price:       p.PriceEach,
		THC:         p.THCLabel,
		CBD:         p.CBDLabel,
		Description: p.Description,
		Path:        StoreURL(p),
		Image:       p.FirstImage(),
	}
}

// NewCards maps a product list to cards.
func NewCards(products []Product) []Card {
	cards := make([]Card, 0, len(products))
	for _, p := range products {
		cards = append(cards, NewCard(p))
	}
	return cards
}

// storeMenuBase is the dispensary menu URL products are linked under.
const storeMenuBase = "https://beyond-hello.com/pennsylvania-dispensaries/bristol/medical-menu/menu/products/"

var (
	trademarkRe = regexp.MustCompile(`[™®]`)
	nonAlnumRe  = regexp.MustCompile(`[^a-z0-9]+`)
)

// StoreURL returns the canonical product page URL. The upstream path field
// usually has the form "products/<id>/<slug>"; when present its slug is
// reused. Otherwise a slug is derived from brand and name. Products without
// a product_id have no addressable page and yield an empty URL.
func StoreURL(p Product) string {
	if p.ProductID == 0 {
		return ""
	}

	if strings.Contains(p.Path, "/") {
		parts := strings.Split(p.Path, "/")
		if len(parts) >= 3 {
			slug := strings.Join(parts[2:], "/")
			return storeMenuBase + strconv.FormatInt(p.ProductID, 10) + "/" + slug
		}
	}

	slug := slugify(p.Brand)
	if namePart := slugify(p.Name); namePart != "" {
		if slug != "" {
			slug += "-" + namePart
		} else {
			slug = namePart
		}
	}
	if slug == "" {
		slug = "product-" + strconv.FormatInt(p.ProductID, 10)
	}
	return storeMenuBase + strconv.FormatInt(p.ProductID, 10) + "/" + slug
}

func slugify(s string) string {
	s = trademarkRe.ReplaceAllString(strings.ToLower(s), "")
	s = nonAlnumRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Snapshot is an immutable catalog fetch result: the ordered product list
// plus the time it was retrieved. Snapshots are replaced wholesale on
// refresh, never mutated.
type Snapshot struct {
	FetchedAt time.Time
	Products  []Product
}

// Age reports how long ago the snapshot was fetched.
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}
