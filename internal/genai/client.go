// Package genai exposes the generative-language providers behind a single
// prompt-in, text-out client used by the dispatch engine.
package genai

import (
	"context"
	"fmt"

	"github.com/chatlens/chatlens/internal/genai/driver"
	"github.com/chatlens/chatlens/internal/genai/prompt"
)

// Client binds a provider driver, a model, and the assistant prompt template
// into the ChatClient shape the dispatcher consumes.
type Client struct {
	drv    driver.Driver
	model  string
	prompt *prompt.Prompt
}

// NewClient builds a chat client from configuration.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	drv, err := NewDriver(cfg)
	if err != nil {
		return nil, err
	}

	p, err := prompt.LoadFile(cfg.PromptFile)
	if err != nil {
		return nil, fmt.Errorf("genai: load prompt: %w", err)
	}

	return &Client{drv: drv, model: cfg.Model, prompt: p}, nil
}

// Generate wraps message in the assistant prompt and runs one generation.
// Provider and malformed-response failures pass through untouched so the
// dispatcher can classify them.
func (c *Client) Generate(ctx context.Context, message string) (string, error) {
	rendered, err := c.prompt.Render(message)
	if err != nil {
		return "", err
	}

	resp, err := c.drv.Generate(ctx, &driver.Request{Model: c.model, Prompt: rendered})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// ListModels surfaces the provider's model catalog.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	return c.drv.ListModels(ctx)
}

// Provider reports the active driver name.
func (c *Client) Provider() string {
	return c.drv.Name()
}

// Model reports the configured model.
func (c *Client) Model() string {
	return c.model
}
