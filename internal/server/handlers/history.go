package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chatlens/chatlens/internal/core"
	"github.com/chatlens/chatlens/internal/core/store"
	apperrors "github.com/chatlens/chatlens/internal/errors"
)

// maxHistoryLimit caps the page size a caller may request.
const maxHistoryLimit = 200

// HistoryLister lists stored exchanges, newest first. Implemented by
// store.Store.
type HistoryLister interface {
	ListExchanges(ctx context.Context, query store.ExchangeQuery) ([]core.Exchange, error)
}

var (
	historyLister       HistoryLister
	historyDefaultLimit = 10
)

// SetHistoryLister injects the exchange store used by HistoryHandler.
// A defaultLimit of zero keeps the previous default.
func SetHistoryLister(lister HistoryLister, defaultLimit int) {
	historyLister = lister
	if defaultLimit > 0 {
		historyDefaultLimit = defaultLimit
	}
}

// HistoryEntry is one exchange in the history response.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Key       string    `json:"session_key"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse is the JSON body for GET /api/history.
type HistoryResponse struct {
	Exchanges []HistoryEntry `json:"exchanges"`
	Count     int            `json:"count"`
}

// HistoryHandler handles GET /api/history. Supports optional query
// parameters "key" (filter by session key) and "limit".
func HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if historyLister == nil {
		respondWithError(w, r, apperrors.NewInternalError("history store not initialized"))
		return
	}

	query := store.ExchangeQuery{
		Key:   strings.TrimSpace(r.URL.Query().Get("key")),
		Limit: historyDefaultLimit,
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			respondWithError(w, r, apperrors.NewValidationError("limit must be a positive integer"))
			return
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}
		query.Limit = limit
	}

	exchanges, err := historyLister.ListExchanges(r.Context(), query)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to list exchange history"))
		return
	}

	entries := make([]HistoryEntry, 0, len(exchanges))
	for _, exchange := range exchanges {
		entries = append(entries, HistoryEntry{
			ID:        exchange.ID,
			Key:       exchange.Key,
			Prompt:    exchange.Prompt,
			Response:  exchange.Response,
			Outcome:   string(exchange.Outcome),
			CreatedAt: exchange.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HistoryResponse{
		Exchanges: entries,
		Count:     len(entries),
	})
}
