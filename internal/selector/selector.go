// Package selector narrows the catalog to the candidate products handed
// to the recommendation step: brand allow-list, category filter,
// session-aware dedup, and randomized sampling.
package selector

import (
	"math/rand/v2"
	"strings"

	"github.com/daisyflowers/budtender/internal/classification"
	"github.com/daisyflowers/budtender/internal/common"
	"github.com/daisyflowers/budtender/internal/model"
)

// DefaultBrands is the fixed brand allow-list, matched case-insensitively
// as substrings of the product brand.
func DefaultBrands() []string {
	return []string{"hijinks", "lab", "nira+", "nira", "flower foundry", "seche", "tasteology"}
}

// Sampling bounds for the candidate slice.
const (
	sliceMin   = 15
	sliceMax   = 25
	sliceShare = 0.4

	// minAfterDedup is the smallest acceptable candidate count after
	// removing already-shown products.
	minAfterDedup = 3
	// resetThreshold is the shown-set size beyond which a too-small
	// dedup result triggers a shown-set reset.
	resetThreshold = 6
	// keepRecent is how many of the newest shown names survive a reset.
	keepRecent = 2
)

// Config configures a Selector.
type Config struct {
	// Classifier supplies category membership rules and the
	// "something different" detection. Required.
	Classifier *classification.Classifier
	// Rand is the random source. Defaults to an auto-seeded PCG.
	Rand *rand.Rand
	// Brands overrides the allow-list. Defaults to DefaultBrands.
	Brands []string
}

// Selector produces bounded candidate sets from catalog snapshots.
type Selector struct {
	classifier *classification.Classifier
	rand       *rand.Rand
	brands     []string
}

// New creates a Selector.
func New(cfg Config) *Selector {
	brands := cfg.Brands
	if len(brands) == 0 {
		brands = DefaultBrands()
	}
	r := cfg.Rand
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Selector{
		classifier: cfg.Classifier,
		rand:       r,
		brands:     brands,
	}
}

// Select filters and samples the catalog for one request. sess may be
// nil (the interactive client has no session); when present it is
// mutated per the variety rules, so callers must hold the session lock.
//
// The returned slice is always safe to retain: it never aliases products.
func (s *Selector) Select(products []model.Product, category model.Category, userText string, sess *model.Session) []model.Product {
	branded := s.filterBrands(products)
	filtered := s.filterCategory(branded, category)

	common.LogDebug("Catalog filtered", common.Fields{
		"total":    len(products),
		"branded":  len(branded),
		"filtered": len(filtered),
		"category": category.String(),
	})

	if sess != nil {
		filtered = s.applySessionMemory(products, filtered, category, userText, sess)

		if category != sess.LastCategory {
			sess.ClearShown()
			sess.LastCategory = category
		}
	}

	// Empty after filtering: fall back to the brand-only set rather than
	// returning nothing.
	if len(filtered) == 0 {
		common.LogInfo("No products after filtering, falling back to brand-only set", common.Fields{
			"category": category.String(),
		})
		filtered = branded
	}

	return s.sample(filtered)
}

// ChoosePair picks up to two random candidates as the shown pair. The
// pair is recorded into session memory by the caller; it is not
// reconciled with the products the model's prose discusses.
func (s *Selector) ChoosePair(candidates []model.Product) []model.Product {
	pair := shuffled(s.rand, candidates)
	if len(pair) > 2 {
		pair = pair[:2]
	}
	return pair
}

func (s *Selector) filterBrands(products []model.Product) []model.Product {
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if s.brandAllowed(p.Brand) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Selector) brandAllowed(brand string) bool {
	brand = strings.TrimSpace(strings.ToLower(brand))
	for _, approved := range s.brands {
		if strings.Contains(brand, approved) {
			return true
		}
	}
	return false
}

func (s *Selector) filterCategory(products []model.Product, category model.Category) []model.Product {
	if category == model.CategoryNone {
		return products
	}
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if s.classifier.MatchesCategory(p, category) {
			out = append(out, p)
		}
	}
	return out
}

// applySessionMemory removes already-shown products when the user asks
// for alternatives within the same category. If that leaves too few and
// the shown-set has grown large, the set is reset to its two most recent
// entries and filtering is retried from the full catalog.
func (s *Selector) applySessionMemory(all, filtered []model.Product, category model.Category, userText string, sess *model.Session) []model.Product {
	if !s.classifier.IsDifferentRequest(userText) || sess.LastCategory != category {
		return filtered
	}

	deduped := excludeShown(filtered, sess)
	common.LogDebug("Removed recently shown products", common.Fields{
		"before": len(filtered),
		"after":  len(deduped),
	})

	if len(deduped) < minAfterDedup && sess.ShownCount() > resetThreshold {
		sess.ResetShown(keepRecent)
		deduped = excludeShown(s.filterCategory(s.filterBrands(all), category), sess)
		common.LogInfo("Shown-set reset to restore variety", common.Fields{
			"available": len(deduped),
		})
	}

	return deduped
}

func excludeShown(products []model.Product, sess *model.Session) []model.Product {
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if !sess.HasShown(p.Name) {
			out = append(out, p)
		}
	}
	return out
}

// sample shuffles the set several times and returns a bounded random
// contiguous slice. The original pipeline layered a comparator-based
// perturbation between two Fisher-Yates passes; repeated Fisher-Yates
// passes give the same uniform result.
func (s *Selector) sample(products []model.Product) []model.Product {
	n := len(products)
	if n == 0 {
		return nil
	}

	mixed := shuffled(s.rand, products)
	s.rand.Shuffle(n, func(i, j int) { mixed[i], mixed[j] = mixed[j], mixed[i] })

	size := int(float64(n) * sliceShare)
	if size < sliceMin {
		size = sliceMin
	}
	if size > sliceMax {
		size = sliceMax
	}
	if size > n {
		size = n
	}

	start := s.rand.IntN(n - size + 1)
	return mixed[start : start+size]
}

func shuffled(r *rand.Rand, products []model.Product) []model.Product {
	out := make([]model.Product, len(products))
	copy(out, products)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
