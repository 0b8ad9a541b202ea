// Package classification maps free-text user queries to product categories.
package classification

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/daisyflowers/budtender/internal/model"
)

// Rule ties a category to the query patterns that detect it and the
// product kind/subtype values that satisfy it. Rules are evaluated in
// declaration order; the first query match wins.
type Rule struct {
	Category model.Category
	// Query is the regex matched against the lower-cased user text.
	Query string
	// Kinds are the product kind/type values (lower-case) that belong to
	// the category.
	Kinds []string
	// SubtypeContains lists root_subtype substrings that also qualify.
	SubtypeContains []string
	// SubtypeKinds restricts SubtypeContains matching to these kinds.
	// Empty means any kind qualifies on subtype alone.
	SubtypeKinds []string
}

// compiledRule holds a rule with its compiled query regex.
type compiledRule struct {
	query *regexp.Regexp
	Rule
}

// Classifier detects a category in user text and knows which products
// belong to each category.
type Classifier struct {
	differentQuery *regexp.Regexp
	rules          []compiledRule
	byCategory     map[model.Category]compiledRule
}

// differentPattern detects "show me something else" style follow-ups.
const differentPattern = `\b(different|other|another|new|alternative|else|show me something else|something different)\b`

// New creates a classifier from an ordered rule set.
func New(rules []Rule) (*Classifier, error) {
	compiled := make([]compiledRule, 0, len(rules))
	byCategory := make(map[model.Category]compiledRule, len(rules))

	for _, r := range rules {
		query := r.Query
		if !strings.HasPrefix(query, "(?i)") {
			query = "(?i)" + query
		}
		re, err := regexp.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule for %s: %w", r.Category, err)
		}
		cr := compiledRule{Rule: r, query: re}
		compiled = append(compiled, cr)
		byCategory[r.Category] = cr
	}

	return &Classifier{
		rules:          compiled,
		byCategory:     byCategory,
		differentQuery: regexp.MustCompile("(?i)" + differentPattern),
	}, nil
}

// NewDefault creates a classifier with the default rule set.
func NewDefault() *Classifier {
	c, err := New(DefaultRules())
	if err != nil {
		// The default rules are compile-time constants; a failure here is
		// a programming error.
		panic(err)
	}
	return c
}

// Classify returns the first category whose query pattern matches the
// text, or CategoryNone when nothing matches.
func (c *Classifier) Classify(text string) model.Category {
	for _, r := range c.rules {
		if r.query.MatchString(text) {
			return r.Category
		}
	}
	return model.CategoryNone
}

// IsDifferentRequest reports whether the user is asking for alternatives
// to what they were already shown.
func (c *Classifier) IsDifferentRequest(text string) bool {
	return c.differentQuery.MatchString(text)
}

// MatchesCategory reports whether a product belongs to the given
// category per that category's rule. CategoryNone matches everything.
func (c *Classifier) MatchesCategory(p model.Product, category model.Category) bool {
	if category == model.CategoryNone {
		return true
	}
	r, ok := c.byCategory[category]
	if !ok {
		return false
	}

	kind := strings.ToLower(p.Kind)
	typ := strings.ToLower(p.Type)
	for _, k := range r.Kinds {
		if kind == k || typ == k {
			return true
		}
	}

	if len(r.SubtypeContains) == 0 {
		return false
	}
	if len(r.SubtypeKinds) > 0 {
		allowed := false
		for _, k := range r.SubtypeKinds {
			if kind == k {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}
	subtype := strings.ToLower(p.RootSubtype)
	for _, marker := range r.SubtypeContains {
		if strings.Contains(subtype, marker) {
			return true
		}
	}
	return false
}
