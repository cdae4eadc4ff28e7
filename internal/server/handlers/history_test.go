package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlens/chatlens/internal/core"
	"github.com/chatlens/chatlens/internal/core/store"
)

type stubHistoryLister struct {
	lastQuery store.ExchangeQuery
	exchanges []core.Exchange
	err       error
}

func (s *stubHistoryLister) ListExchanges(ctx context.Context, query store.ExchangeQuery) ([]core.Exchange, error) {
	s.lastQuery = query
	return s.exchanges, s.err
}

func setStubHistoryLister(t *testing.T, stub *stubHistoryLister, defaultLimit int) {
	t.Helper()
	SetHistoryLister(stub, defaultLimit)
	t.Cleanup(func() {
		historyLister = nil
		historyDefaultLimit = 10
	})
}

func getHistory(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	HistoryHandler(rec, req)
	return rec
}

func TestHistoryHandlerListsExchanges(t *testing.T) {
	stub := &stubHistoryLister{
		exchanges: []core.Exchange{
			{
				ID:        "x1",
				Key:       "alpha",
				Prompt:    "hi",
				Response:  "hello",
				Outcome:   core.OutcomeSuccess,
				CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			},
		},
	}
	setStubHistoryLister(t, stub, 10)

	rec := getHistory(t, "/api/history")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HistoryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Exchanges, 1)
	assert.Equal(t, "x1", resp.Exchanges[0].ID)
	assert.Equal(t, "success", resp.Exchanges[0].Outcome)

	assert.Equal(t, store.ExchangeQuery{Limit: 10}, stub.lastQuery)
}

func TestHistoryHandlerQueryParameters(t *testing.T) {
	stub := &stubHistoryLister{}
	setStubHistoryLister(t, stub, 10)

	rec := getHistory(t, "/api/history?key=alpha&limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.ExchangeQuery{Key: "alpha", Limit: 3}, stub.lastQuery)

	// Limit is capped.
	getHistory(t, "/api/history?limit=99999")
	assert.Equal(t, maxHistoryLimit, stub.lastQuery.Limit)
}

func TestHistoryHandlerRejectsBadLimit(t *testing.T) {
	setStubHistoryLister(t, &stubHistoryLister{}, 10)

	for _, target := range []string{"/api/history?limit=abc", "/api/history?limit=0", "/api/history?limit=-5"} {
		rec := getHistory(t, target)
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHistoryHandlerStoreFailure(t *testing.T) {
	setStubHistoryLister(t, &stubHistoryLister{err: errors.New("disk gone")}, 10)

	rec := getHistory(t, "/api/history")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHistoryHandlerEmptyResult(t *testing.T) {
	setStubHistoryLister(t, &stubHistoryLister{}, 10)

	rec := getHistory(t, "/api/history")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HistoryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Exchanges)
}
