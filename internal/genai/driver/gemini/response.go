package gemini

import (
	"strings"

	"github.com/chatlens/chatlens/internal/genai/driver"
)

type generateContentResponse struct {
	Candidates    []candidate    `json:"candidates"`
	UsageMetadata *usageMetadata `json:"usageMetadata,omitempty"`
}

type candidate struct {
	Content      candidateContent `json:"content"`
	FinishReason string           `json:"finishReason"`
}

type candidateContent struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// toDriverResponse extracts candidates[0].content.parts[0].text. A success
// status whose body lacks that field is reported as a MalformedError, never
// as an empty Text.
func toDriverResponse(resp *generateContentResponse) (*driver.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &driver.MalformedError{Provider: "gemini", Detail: "no candidates in response"}
	}

	first := resp.Candidates[0]
	if len(first.Content.Parts) == 0 {
		return nil, &driver.MalformedError{Provider: "gemini", Detail: "candidate has no content parts"}
	}

	text := first.Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return nil, &driver.MalformedError{Provider: "gemini", Detail: "candidate text is empty"}
	}

	response := &driver.Response{
		Text:         text,
		FinishReason: first.FinishReason,
	}

	if resp.UsageMetadata != nil {
		response.Usage = &driver.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}

	return response, nil
}
