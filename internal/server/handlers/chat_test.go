package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlens/chatlens/internal/core"
)

type stubChatService struct {
	lastKey    string
	lastPrompt string
	text       string
	outcome    core.Outcome
}

func (s *stubChatService) Handle(ctx context.Context, key, prompt string) (string, core.Outcome) {
	s.lastKey = key
	s.lastPrompt = prompt
	return s.text, s.outcome
}

func setStubChatService(t *testing.T, stub *stubChatService) {
	t.Helper()
	SetChatService(stub)
	t.Cleanup(func() { SetChatService(nil) })
}

func postChat(t *testing.T, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ChatHandler(rec, req)
	return rec
}

func TestChatHandlerSuccess(t *testing.T) {
	stub := &stubChatService{
		text:    "Go is a programming language.",
		outcome: core.Outcome{Kind: core.OutcomeSuccess, Text: "Go is a programming language."},
	}
	setStubChatService(t, stub)

	rec := postChat(t, `{"message":"what is Go?","session_id":"alpha"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "what is Go?", resp.UserMessage)
	assert.Equal(t, "Go is a programming language.", resp.AIResponse)
	assert.Equal(t, "success", resp.Outcome)
	assert.Zero(t, resp.RetryAfter)
	assert.False(t, resp.Timestamp.IsZero())

	assert.Equal(t, "alpha", stub.lastKey)
	assert.Equal(t, "what is Go?", stub.lastPrompt)
}

func TestChatHandlerRateLimited(t *testing.T) {
	stub := &stubChatService{
		text: "too many requests; try again in 42 seconds",
		outcome: core.Outcome{
			Kind:       core.OutcomeRateLimited,
			Text:       "too many requests; try again in 42 seconds",
			RetryAfter: 42 * time.Second,
		},
	}
	setStubChatService(t, stub)

	rec := postChat(t, `{"message":"hello"}`, nil)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))

	var resp ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "rate_limited", resp.Outcome)
	assert.Equal(t, 42, resp.RetryAfter)
	assert.Contains(t, resp.AIResponse, "try again in 42 seconds")
}

func TestChatHandlerFallbackOutcomesReturnOK(t *testing.T) {
	for _, kind := range []core.OutcomeKind{
		core.OutcomeQuotaExceeded,
		core.OutcomeTransientFailure,
		core.OutcomeMalformedResponse,
	} {
		stub := &stubChatService{
			text:    "fallback text",
			outcome: core.Outcome{Kind: kind, Text: "fallback text"},
		}
		setStubChatService(t, stub)

		rec := postChat(t, `{"message":"hello"}`, nil)

		require.Equal(t, http.StatusOK, rec.Code, string(kind))

		var resp ChatResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, string(kind), resp.Outcome)
		assert.Equal(t, "fallback text", resp.AIResponse)
	}
}

func TestChatHandlerSessionIDHeader(t *testing.T) {
	stub := &stubChatService{
		text:    "ok",
		outcome: core.Outcome{Kind: core.OutcomeSuccess, Text: "ok"},
	}
	setStubChatService(t, stub)

	postChat(t, `{"message":"hello"}`, map[string]string{SessionIDHeader: "beta"})
	assert.Equal(t, "beta", stub.lastKey)

	// Body session id wins over the header.
	postChat(t, `{"message":"hello","session_id":"alpha"}`, map[string]string{SessionIDHeader: "beta"})
	assert.Equal(t, "alpha", stub.lastKey)
}

func TestChatHandlerRejectsEmptyMessage(t *testing.T) {
	stub := &stubChatService{text: "should not be called"}
	setStubChatService(t, stub)

	for _, body := range []string{`{"message":""}`, `{"message":"   "}`, `{}`} {
		rec := postChat(t, body, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Empty(t, stub.lastPrompt)
	}
}

func TestChatHandlerRejectsInvalidJSON(t *testing.T) {
	setStubChatService(t, &stubChatService{})

	rec := postChat(t, `not json`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandlerWithoutService(t *testing.T) {
	SetChatService(nil)

	rec := postChat(t, `{"message":"hello"}`, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
