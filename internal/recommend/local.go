package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/daisyflowers/budtender/internal/model"
)

// localMaxProducts caps how many candidates the local formatter lists.
const localMaxProducts = 5

// localClient formats recommendations without calling any model. It is
// the fallback when no credential is configured or the model call fails.
type localClient struct{}

// NewLocalClient creates the model-free fallback client.
func NewLocalClient() Client {
	return localClient{}
}

// Recommend formats up to five candidates as plain text.
func (localClient) Recommend(_ context.Context, cards []model.Card, _ string, category model.Category) (string, error) {
	var b strings.Builder

	scope := "approved brands"
	if category != model.CategoryNone {
		scope = category.String()
	}
	fmt.Fprintf(&b, "Found %d matching %s products.\n", len(cards), scope)

	for i, card := range cards {
		if i >= localMaxProducts {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, card.Name)
		if card.Kind != "" {
			fmt.Fprintf(&b, "   Type: %s\n", card.Kind)
		}
		if card.Brand != "" {
			fmt.Fprintf(&b, "   Brand: %s\n", card.Brand)
		}
		if card.Price > 0 {
			fmt.Fprintf(&b, "   Price: $%.2f\n", card.Price)
		}
	}

	b.WriteString("\n" + Disclaimer)
	return b.String(), nil
}
