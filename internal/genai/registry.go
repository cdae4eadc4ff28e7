package genai

import (
	"fmt"
	"strings"

	"github.com/chatlens/chatlens/internal/genai/driver"
	"github.com/chatlens/chatlens/internal/genai/driver/gemini"
)

// NewDriver builds the provider driver named by cfg.Provider.
func NewDriver(cfg Config) (driver.Driver, error) {
	cfg = cfg.withDefaults()

	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("genai: api key is required (set genai.api_key or CHATLENS_GENAI_API_KEY)")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gemini":
		client := gemini.NewClient(cfg.BaseURL, cfg.APIKey)
		client.Timeout = cfg.Timeout
		return client, nil
	default:
		return nil, fmt.Errorf("genai: unknown provider %q", cfg.Provider)
	}
}
