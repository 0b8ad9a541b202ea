package model

// Category is the product type a user's free-text query is mapped to.
type Category string

// Known categories, in the order the classifier evaluates them.
const (
	CategoryFlower      Category = "flower"
	CategoryEdible      Category = "edible"
	CategoryVape        Category = "vape"
	CategoryConcentrate Category = "concentrate"
	CategoryPreRoll     Category = "pre-roll"
	CategoryTincture    Category = "tincture"
	// CategoryNone means no category was detected in the query.
	CategoryNone Category = ""
)

func (c Category) String() string {
	if c == CategoryNone {
		return "none"
	}
	return string(c)
}
