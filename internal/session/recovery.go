package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/lessonquiz/internal/store"
)

// DefaultRecoveryTTL is how long an unsaved score is retained.
const DefaultRecoveryTTL = 24 * time.Hour

// DefaultRecoveryMax bounds the number of unsaved scores retained.
const DefaultRecoveryMax = 1000

// PendingResult is a score that failed to persist.
type PendingResult struct {
	Data     store.ResultData
	Err      string
	FailedAt time.Time
}

// RecoveryBuffer holds scores whose persistence failed so an operator can
// retry them. Entries expire after the TTL; the oldest entry is evicted when
// the buffer is full.
type RecoveryBuffer struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries []PendingResult
	now     func() time.Time
}

// NewRecoveryBuffer creates a buffer. Non-positive arguments fall back to
// the defaults.
func NewRecoveryBuffer(ttl time.Duration, max int) *RecoveryBuffer {
	if ttl <= 0 {
		ttl = DefaultRecoveryTTL
	}
	if max <= 0 {
		max = DefaultRecoveryMax
	}
	return &RecoveryBuffer{ttl: ttl, max: max, now: time.Now}
}

// Add records a score that failed to persist. A later failure for the same
// session replaces the earlier entry.
func (b *RecoveryBuffer) Add(data store.ResultData, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.expireLocked()
	for i, p := range b.entries {
		if p.Data.SessionID == data.SessionID {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			break
		}
	}
	if len(b.entries) >= b.max {
		b.entries = b.entries[1:]
	}

	msg := ""
	if err != nil {
		msg = err.Error()
	}
	b.entries = append(b.entries, PendingResult{Data: data, Err: msg, FailedAt: b.now()})
}

// Pending returns the unexpired entries, oldest first.
func (b *RecoveryBuffer) Pending() []PendingResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.expireLocked()
	out := make([]PendingResult, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of unexpired entries.
func (b *RecoveryBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.expireLocked()
	return len(b.entries)
}

// Retry attempts to persist every pending entry. Entries that succeed are
// removed. It returns how many were saved and the joined errors of the rest.
func (b *RecoveryBuffer) Retry(ctx context.Context, rs ResultStore) (int, error) {
	pending := b.Pending()

	var (
		saved int
		errs  []error
	)
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := rs.PersistResult(ctx, p.Data); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", p.Data.SessionID, err))
			continue
		}
		b.remove(p.Data.SessionID)
		saved++
	}
	return saved, errors.Join(errs...)
}

func (b *RecoveryBuffer) remove(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, p := range b.entries {
		if p.Data.SessionID == sessionID {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return
		}
	}
}

func (b *RecoveryBuffer) expireLocked() {
	cutoff := b.now().Add(-b.ttl)
	i := 0
	for i < len(b.entries) && b.entries[i].FailedAt.Before(cutoff) {
		i++
	}
	if i > 0 {
		b.entries = b.entries[i:]
	}
}
