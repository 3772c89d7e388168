package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// rowQuerier is satisfied by *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sequenceCounter hands out one increasing sequence number shared by quiz
// results and LLM request events, so rows in different tables can be
// ordered against each other. The counter is a single-row table; the
// RETURNING clause makes each increment atomic.
type sequenceCounter struct {
	mu sync.Mutex
}

// newSequenceCounter ensures the counter table exists and is seeded.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS global_sequence (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			next_val INTEGER NOT NULL DEFAULT 1
		)`,
		`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return nil, fmt.Errorf("init sequence table: %w", err)
		}
	}
	return &sequenceCounter{}, nil
}

// Next returns the next sequence number. q may be a transaction so the
// number is only consumed when the surrounding write commits.
func (sc *sequenceCounter) Next(ctx context.Context, q rowQuerier) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := q.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}
