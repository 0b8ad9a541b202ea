package recommend

import (
	"fmt"
	"strings"
)

// NewClient creates a recommendation client based on the provided
// configuration.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "anthropic", "":
		return newAnthropicClient(cfg)
	case "openai":
		return newOpenAIClient(cfg)
	case "local":
		return NewLocalClient(), nil
	default:
		return nil, fmt.Errorf("unsupported recommendation provider: %s", cfg.Provider)
	}
}
