package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatlens/chatlens/internal/genai/driver"
)

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient("", "")
	_, err := client.Generate(context.Background(), &driver.Request{Model: "gemini-2.0-flash", Prompt: "hi"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestClientRequiresPrompt(t *testing.T) {
	client := NewClient("", "test-key")
	_, err := client.Generate(context.Background(), &driver.Request{Model: "gemini-2.0-flash"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "prompt")
}

func TestClientSendsRequestAndParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-goog-api-key"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Contains(t, payload, "contents")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello there"}],"role":"model"},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":4,"candidatesTokenCount":3,"totalTokenCount":7}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	resp, err := client.Generate(context.Background(), &driver.Request{Model: "gemini-2.0-flash", Prompt: "hi"})
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, "hello there", resp.Text)
	require.Equal(t, "STOP", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	require.Equal(t, 7, resp.Usage.TotalTokens)
}

func TestClientReturnsProviderErrorOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exhausted"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Generate(context.Background(), &driver.Request{Model: "gemini-2.0-flash", Prompt: "hi"})
	require.Error(t, err)

	var perr *driver.ProviderError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	require.Equal(t, 42*time.Second, perr.RetryAfter)
	require.Contains(t, perr.Message, "quota exhausted")
}

func TestClientReturnsMalformedErrorOnMissingText(t *testing.T) {
	cases := map[string]string{
		"no candidates": `{"candidates":[]}`,
		"no parts":      `{"candidates":[{"content":{"parts":[]},"finishReason":"STOP"}]}`,
		"blank text":    `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`,
		"not json":      `<html>gateway error</html>`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			client := NewClient(server.URL, "test-key")
			client.HTTPClient = server.Client()

			_, err := client.Generate(context.Background(), &driver.Request{Model: "gemini-2.0-flash", Prompt: "hi"})
			require.Error(t, err)

			var merr *driver.MalformedError
			require.True(t, errors.As(err, &merr), "expected MalformedError, got %v", err)
		})
	}
}

func TestClientListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-goog-api-key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"models/gemini-2.0-flash"},{"name":"models/gemini-2.0-pro"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"models/gemini-2.0-flash", "models/gemini-2.0-pro"}, models)
}
