package genai

import "time"

// Default provider settings, matching the Gemini free-tier setup the service
// was built against.
const (
	DefaultProvider = "gemini"
	DefaultModel    = "gemini-2.0-flash"
	DefaultTimeout  = 30 * time.Second
)

// Config carries provider credentials and routing. Fixed at startup.
type Config struct {
	// Provider selects the driver. Only "gemini" is registered today.
	Provider string `mapstructure:"provider"`
	// APIKey authenticates against the provider.
	APIKey string `mapstructure:"api_key"`
	// BaseURL overrides the provider endpoint, mainly for tests.
	BaseURL string `mapstructure:"base_url"`
	// Model names the generation model.
	Model string `mapstructure:"model"`
	// Timeout bounds one provider call.
	Timeout time.Duration `mapstructure:"timeout"`
	// PromptFile optionally points at a YAML prompt definition replacing
	// the embedded default.
	PromptFile string `mapstructure:"prompt_file"`
}

// withDefaults fills zero values without mutating the receiver.
func (c Config) withDefaults() Config {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
