// Package recommend sends candidate products to a language model and
// returns its phrased recommendation.
package recommend

import (
	"context"

	"github.com/daisyflowers/budtender/internal/model"
)

// Client defines the interface for recommendation providers.
type Client interface {
	// Recommend asks the provider to pick and phrase two products from
	// the candidate cards. The returned text always ends with the
	// compliance disclaimer.
	Recommend(ctx context.Context, cards []model.Card, userText string, category model.Category) (string, error)
}

// Config holds provider settings.
type Config struct {
	// Provider selects the implementation: anthropic, openai, or local.
	Provider string
	// APIKey authenticates against the provider. Required except for local.
	APIKey string
	// Model overrides the provider default model.
	Model string
	// BaseURL overrides the provider endpoint. Tests only.
	BaseURL string
	// MaxTokens caps the completion length.
	MaxTokens int
}
