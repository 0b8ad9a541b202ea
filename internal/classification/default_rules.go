package classification

import "github.com/daisyflowers/budtender/internal/model"

// DefaultRules returns the category rule table. Order is the tie-break:
// a query mentioning both pre-rolls and vapes resolves to whichever rule
// appears first.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: model.CategoryFlower,
			Query:    `\b(flower|flowers|bud|buds|strain|strains)\b`,
			Kinds:    []string{"flower"},
		},
		{
			Category: model.CategoryEdible,
			Query:    `\b(edible|edibles|gummy|gummies|gummie|gummys|chew|chews|troche|troches|ingestible|ingestibles)\b`,
			Kinds:    []string{"edible"},
		},
		{
			Category:        model.CategoryVape,
			Query:           `\b(vape|vapes|cartridge|cartridges|cart|carts|pen|pens)\b`,
			Kinds:           []string{"vaporizers", "vape"},
			SubtypeContains: []string{"cartridge"},
			SubtypeKinds:    []string{"extract"},
		},
		{
			Category: model.CategoryConcentrate,
			Query:    `\b(concentrate|concentrates|wax|shatter|diamond|diamonds|dab|dabs)\b`,
			Kinds:    []string{"concentrate"},
		},
		{
			Category:        model.CategoryPreRoll,
			Query:           `\b(pre-roll|preroll|pre roll|joint|joints)\b`,
			Kinds:           []string{"pre-roll"},
			SubtypeContains: []string{"pre-roll", "preroll"},
		},
		{
			Category: model.CategoryTincture,
			Query:    `\b(tincture|tinctures)\b`,
			Kinds:    []string{"tincture"},
		},
	}
}
