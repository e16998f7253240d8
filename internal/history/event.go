package history

import (
	"context"
	"database/sql"
	"fmt"
)

// sequence hands out the monotonic number shared by every event table.
// Events of different types land in different tables, so per-table
// autoincrement IDs can't order an LLM call against the answer it
// produced. One shared counter gives the whole log a total order.
//
// The store runs a single connection, so the upsert needs no extra
// locking; the RETURNING clause makes read-and-advance one statement.
type sequence struct {
	db *sql.DB
}

// Next returns the next value and advances the counter.
func (s *sequence) Next(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO event_sequence (id, next_val) VALUES (1, 2)
		ON CONFLICT (id) DO UPDATE SET next_val = event_sequence.next_val + 1
		RETURNING next_val - 1`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("advance event sequence: %w", err)
	}
	return n, nil
}
