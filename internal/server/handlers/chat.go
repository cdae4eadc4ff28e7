package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chatlens/chatlens/internal/core"
	apperrors "github.com/chatlens/chatlens/internal/errors"
)

// maxChatBodyBytes bounds the request body read for chat turns.
const maxChatBodyBytes = 64 * 1024

// SessionIDHeader carries the caller's session key when the request body
// does not set one.
const SessionIDHeader = "X-Session-ID"

// ChatService runs one chat turn and reports its outcome. Implemented by
// engine.Dispatcher.
type ChatService interface {
	Handle(ctx context.Context, key, prompt string) (string, core.Outcome)
}

var chatService ChatService

// SetChatService injects the dispatcher used by ChatHandler.
func SetChatService(service ChatService) {
	chatService = service
}

// ChatRequest is the JSON body for POST /api/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the JSON body for a completed chat turn.
type ChatResponse struct {
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	Outcome     string    `json:"outcome"`
	RetryAfter  int       `json:"retry_after_seconds,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ChatHandler handles POST /api/chat. Rate-limited turns return 429 with a
// Retry-After header; every other completed turn returns 200 with the
// outcome kind in the body, including provider-failure fallbacks.
func ChatHandler(w http.ResponseWriter, r *http.Request) {
	if chatService == nil {
		respondWithError(w, r, apperrors.NewInternalError("chat service not initialized"))
		return
	}

	var req ChatRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "request body must be valid JSON"))
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		respondWithError(w, r, apperrors.NewValidationError("message is required"))
		return
	}

	key := strings.TrimSpace(req.SessionID)
	if key == "" {
		key = strings.TrimSpace(r.Header.Get(SessionIDHeader))
	}

	text, outcome := chatService.Handle(r.Context(), key, message)

	resp := ChatResponse{
		UserMessage: message,
		AIResponse:  text,
		Outcome:     string(outcome.Kind),
		Timestamp:   time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")

	if outcome.Kind == core.OutcomeRateLimited {
		resp.RetryAfter = outcome.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(resp.RetryAfter))
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
