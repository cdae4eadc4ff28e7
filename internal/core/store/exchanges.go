package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chatlens/chatlens/internal/core"
)

// ExchangeQuery filters exchange listings.
type ExchangeQuery struct {
	// Key restricts results to one session key when non-empty.
	Key string
	// Limit caps the number of rows returned; defaults to 10.
	Limit int
}

// RecordExchange persists one completed chat exchange.
func (s *Store) RecordExchange(ctx context.Context, exchange core.Exchange) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(exchange.ID) == "" {
		return errors.New("exchange id is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO exchanges (id, session_key, prompt, response, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, exchange.ID, exchange.Key, exchange.Prompt, exchange.Response, string(exchange.Outcome), exchange.CreatedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("store exchange: %w", err)
	}

	return nil
}

// ListExchanges returns stored exchanges, newest first.
func (s *Store) ListExchanges(ctx context.Context, query ExchangeQuery) ([]core.Exchange, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}

	queryText := `
		SELECT id, session_key, prompt, response, outcome, created_at
		FROM exchanges
	`
	args := make([]any, 0, 2)
	key := strings.TrimSpace(query.Key)
	if key != "" {
		queryText += " WHERE session_key = ?"
		args = append(args, key)
	}
	queryText += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.DB.QueryContext(ctx, queryText, args...)
	if err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var results []core.Exchange
	for rows.Next() {
		var (
			exchange  core.Exchange
			outcome   string
			createdAt int64
		)
		if err := rows.Scan(&exchange.ID, &exchange.Key, &exchange.Prompt, &exchange.Response, &outcome, &createdAt); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		exchange.Outcome = core.OutcomeKind(outcome)
		exchange.CreatedAt = time.Unix(createdAt, 0).UTC()
		results = append(results, exchange)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}

	return results, nil
}

// ClearExchanges deletes stored exchanges, optionally scoped to one session
// key, and reports how many rows were removed.
func (s *Store) ClearExchanges(ctx context.Context, key string) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var (
		result sql.Result
		err    error
	)
	if key = strings.TrimSpace(key); key != "" {
		result, err = s.DB.ExecContext(ctx, `DELETE FROM exchanges WHERE session_key = ?`, key)
	} else {
		result, err = s.DB.ExecContext(ctx, `DELETE FROM exchanges`)
	}
	if err != nil {
		return 0, fmt.Errorf("clear exchanges: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear exchanges: %w", err)
	}
	return affected, nil
}

// PurgeExchanges deletes exchanges created before the cutoff and reports how
// many rows were removed.
func (s *Store) PurgeExchanges(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `
		DELETE FROM exchanges WHERE created_at < ?
	`, before.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge exchanges: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge exchanges: %w", err)
	}
	return affected, nil
}
