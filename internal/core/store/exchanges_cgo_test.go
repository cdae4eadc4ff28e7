//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/chatlens/chatlens/internal/config"
	"github.com/chatlens/chatlens/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	store, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func newTestExchange(key string, created time.Time, outcome core.OutcomeKind) core.Exchange {
	return core.Exchange{
		ID:        uuid.NewString(),
		Key:       key,
		Prompt:    "what is a goroutine?",
		Response:  "a lightweight thread managed by the Go runtime",
		Outcome:   outcome,
		CreatedAt: created,
	}
}

func TestRecordAndListExchanges(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	first := newTestExchange("alpha", base, core.OutcomeSuccess)
	second := newTestExchange("alpha", base.Add(time.Minute), core.OutcomeTransientFailure)
	third := newTestExchange("beta", base.Add(2*time.Minute), core.OutcomeSuccess)

	require.NoError(t, store.RecordExchange(ctx, first))
	require.NoError(t, store.RecordExchange(ctx, second))
	require.NoError(t, store.RecordExchange(ctx, third))

	all, err := store.ListExchanges(ctx, ExchangeQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, third.ID, all[0].ID)
	require.Equal(t, second.ID, all[1].ID)
	require.Equal(t, first.ID, all[2].ID)
	require.Equal(t, core.OutcomeTransientFailure, all[1].Outcome)
	require.Equal(t, base.Add(time.Minute), all[1].CreatedAt)

	alpha, err := store.ListExchanges(ctx, ExchangeQuery{Key: "alpha"})
	require.NoError(t, err)
	require.Len(t, alpha, 2)
	require.Equal(t, second.ID, alpha[0].ID)

	limited, err := store.ListExchanges(ctx, ExchangeQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, third.ID, limited[0].ID)
}

func TestRecordExchangeRequiresID(t *testing.T) {
	store := openTestStore(t)

	exchange := newTestExchange("alpha", time.Now(), core.OutcomeSuccess)
	exchange.ID = ""
	require.Error(t, store.RecordExchange(context.Background(), exchange))
}

func TestClearExchanges(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordExchange(ctx, newTestExchange("alpha", base, core.OutcomeSuccess)))
	require.NoError(t, store.RecordExchange(ctx, newTestExchange("alpha", base.Add(time.Minute), core.OutcomeSuccess)))
	require.NoError(t, store.RecordExchange(ctx, newTestExchange("beta", base.Add(2*time.Minute), core.OutcomeSuccess)))

	removed, err := store.ClearExchanges(ctx, "alpha")
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	remaining, err := store.ListExchanges(ctx, ExchangeQuery{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "beta", remaining[0].Key)

	removed, err = store.ClearExchanges(ctx, "")
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	remaining, err = store.ListExchanges(ctx, ExchangeQuery{})
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestPurgeExchanges(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordExchange(ctx, newTestExchange("alpha", base, core.OutcomeSuccess)))
	require.NoError(t, store.RecordExchange(ctx, newTestExchange("alpha", base.Add(time.Hour), core.OutcomeSuccess)))

	removed, err := store.PurgeExchanges(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	remaining, err := store.ListExchanges(ctx, ExchangeQuery{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
}
