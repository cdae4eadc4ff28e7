package driver

import "context"

// Driver defines the interface for generative-language providers.
type Driver interface {
	// Generate sends a single-prompt generation request and returns the
	// provider's response.
	Generate(ctx context.Context, req *Request) (*Response, error)
	// ListModels returns the model identifiers the provider advertises.
	ListModels(ctx context.Context) ([]string, error)
	// Name returns the driver identifier (e.g., "gemini").
	Name() string
}

// Request is a provider-agnostic generation request.
type Request struct {
	Model  string
	Prompt string
}

// Response is a provider-agnostic generation response. Text is the extracted
// generated body; drivers return a MalformedError instead of an empty Text.
type Response struct {
	Text         string
	FinishReason string
	Usage        *Usage
}

// Usage contains token usage statistics when the provider reports them.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
