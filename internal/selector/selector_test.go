package selector

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daisyflowers/budtender/internal/classification"
	"github.com/daisyflowers/budtender/internal/model"
)

func newTestSelector(t *testing.T) *Selector {
	t.Helper()
	return New(Config{
		Classifier: classification.NewDefault(),
		Rand:       rand.New(rand.NewPCG(1, 2)),
	})
}

func flowerCatalog(n int, brand string) []model.Product {
	products := make([]model.Product, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, model.Product{
			Name:  fmt.Sprintf("%s Flower %d", brand, i),
			Brand: brand,
			Kind:  "Flower",
		})
	}
	return products
}

func TestSelectFiltersByBrandAllowList(t *testing.T) {
	s := newTestSelector(t)

	catalog := append(flowerCatalog(10, "Hijinks"), flowerCatalog(10, "Unapproved Farms")...)
	candidates := s.Select(catalog, model.CategoryFlower, "flower please", nil)

	require.NotEmpty(t, candidates)
	for _, p := range candidates {
		assert.Contains(t, strings.ToLower(p.Brand), "hijinks")
	}
}

func TestSelectBrandMatchIsSubstringCaseInsensitive(t *testing.T) {
	s := newTestSelector(t)

	catalog := []model.Product{
		{Name: "A", Brand: "FLOWER FOUNDRY premium", Kind: "Flower"},
		{Name: "B", Brand: " tasteology ", Kind: "Flower"},
		{Name: "C", Brand: "Solevo", Kind: "Flower"},
	}
	candidates := s.Select(catalog, model.CategoryFlower, "flower", nil)

	names := candidateNames(candidates)
	assert.Contains(t, names, "A")
	assert.Contains(t, names, "B")
	assert.NotContains(t, names, "C")
}

func TestSelectNoCrossCategoryLeakage(t *testing.T) {
	s := newTestSelector(t)
	classifier := classification.NewDefault()

	catalog := append(flowerCatalog(20, "Hijinks"),
		model.Product{Name: "Gummy", Brand: "Tasteology", Kind: "Edible"},
		model.Product{Name: "Cart", Brand: "Seche", Kind: "Vaporizers"},
	)

	candidates := s.Select(catalog, model.CategoryFlower, "show me flower", nil)

	require.NotEmpty(t, candidates)
	for _, p := range candidates {
		assert.True(t, classifier.MatchesCategory(p, model.CategoryFlower),
			"candidate %q leaked across categories (kind %q)", p.Name, p.Kind)
	}
}

func TestSelectDifferentRequestExcludesShown(t *testing.T) {
	s := newTestSelector(t)

	catalog := flowerCatalog(20, "Hijinks")
	sess := model.NewSession(time.Now())
	sess.LastCategory = model.CategoryFlower
	sess.MarkShown("Hijinks Flower 0")
	sess.MarkShown("Hijinks Flower 1")

	candidates := s.Select(catalog, model.CategoryFlower, "show me something different", sess)

	names := candidateNames(candidates)
	assert.NotContains(t, names, "Hijinks Flower 0")
	assert.NotContains(t, names, "Hijinks Flower 1")
	assert.NotEmpty(t, candidates)
}

func TestSelectShownSetResetKeepsTwoMostRecent(t *testing.T) {
	s := newTestSelector(t)

	// 9 products, 8 already shown: dedup leaves 1 (<3) and the shown-set
	// is large (>6), so it resets down to the two most recent entries.
	catalog := flowerCatalog(9, "Hijinks")
	sess := model.NewSession(time.Now())
	sess.LastCategory = model.CategoryFlower
	for i := 0; i < 8; i++ {
		sess.MarkShown(fmt.Sprintf("Hijinks Flower %d", i))
	}

	candidates := s.Select(catalog, model.CategoryFlower, "something different please", sess)

	assert.Equal(t, 2, sess.ShownCount())
	assert.True(t, sess.HasShown("Hijinks Flower 6"))
	assert.True(t, sess.HasShown("Hijinks Flower 7"))

	names := candidateNames(candidates)
	assert.NotContains(t, names, "Hijinks Flower 6")
	assert.NotContains(t, names, "Hijinks Flower 7")
	assert.Contains(t, names, "Hijinks Flower 0")
}

func TestSelectNoResetWhenShownSetSmall(t *testing.T) {
	s := newTestSelector(t)

	// Dedup leaves too few, but only 4 products were ever shown: no reset.
	catalog := flowerCatalog(5, "Hijinks")
	sess := model.NewSession(time.Now())
	sess.LastCategory = model.CategoryFlower
	for i := 0; i < 4; i++ {
		sess.MarkShown(fmt.Sprintf("Hijinks Flower %d", i))
	}

	candidates := s.Select(catalog, model.CategoryFlower, "another one", sess)

	assert.Equal(t, 4, sess.ShownCount())
	names := candidateNames(candidates)
	assert.NotContains(t, names, "Hijinks Flower 0")
	assert.Contains(t, names, "Hijinks Flower 4")
}

func TestSelectCategoryChangeClearsShownSet(t *testing.T) {
	s := newTestSelector(t)

	catalog := append(flowerCatalog(5, "Hijinks"),
		model.Product{Name: "Gummy", Brand: "Tasteology", Kind: "Edible"})
	sess := model.NewSession(time.Now())
	sess.LastCategory = model.CategoryFlower
	sess.MarkShown("Hijinks Flower 0")

	s.Select(catalog, model.CategoryEdible, "edibles now", sess)

	assert.Equal(t, model.CategoryEdible, sess.LastCategory)
	assert.Equal(t, 0, sess.ShownCount())
}

func TestSelectFallsBackToBrandOnlySet(t *testing.T) {
	s := newTestSelector(t)

	// Approved brands carry no tinctures; category filter empties the
	// set, so selection falls back to brand-only.
	catalog := flowerCatalog(6, "Hijinks")
	candidates := s.Select(catalog, model.CategoryTincture, "any tinctures?", nil)

	require.NotEmpty(t, candidates)
	for _, p := range candidates {
		assert.Contains(t, strings.ToLower(p.Brand), "hijinks")
	}
}

func TestSelectEmptyCatalogYieldsEmptyCandidates(t *testing.T) {
	s := newTestSelector(t)

	assert.Empty(t, s.Select(nil, model.CategoryFlower, "flower", nil))
	assert.Empty(t, s.Select([]model.Product{{Name: "X", Brand: "Nobody", Kind: "Flower"}},
		model.CategoryFlower, "flower", nil))
}

func TestSelectSampleBounds(t *testing.T) {
	s := newTestSelector(t)

	tests := []struct {
		name    string
		total   int
		wantMin int
		wantMax int
	}{
		{"small set returned whole", 8, 8, 8},
		{"floor of fifteen", 20, 15, 15},
		{"forty percent in range", 50, 20, 20},
		{"ceiling of twenty-five", 200, 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := s.Select(flowerCatalog(tt.total, "Hijinks"), model.CategoryFlower, "flower", nil)
			assert.GreaterOrEqual(t, len(candidates), tt.wantMin)
			assert.LessOrEqual(t, len(candidates), tt.wantMax)
		})
	}
}

func TestChoosePair(t *testing.T) {
	s := newTestSelector(t)
	catalog := flowerCatalog(10, "Hijinks")

	pair := s.ChoosePair(catalog)
	require.Len(t, pair, 2)
	assert.NotEqual(t, pair[0].Name, pair[1].Name)

	all := candidateNames(catalog)
	assert.Contains(t, all, pair[0].Name)
	assert.Contains(t, all, pair[1].Name)

	assert.Len(t, s.ChoosePair(catalog[:1]), 1)
	assert.Empty(t, s.ChoosePair(nil))
}

func candidateNames(products []model.Product) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names
}
