package gemini

import (
	"fmt"
	"strings"

	"github.com/chatlens/chatlens/internal/genai/driver"
)

type generateContentRequest struct {
	Contents []contentEntry `json:"contents"`
}

type contentEntry struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

func buildGenerateRequest(req *driver.Request) (*generateContentRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	return &generateContentRequest{
		Contents: []contentEntry{
			{Parts: []part{{Text: req.Prompt}}},
		},
	}, nil
}
