// Package registry holds pending question tokens and arbitrates the race
// between an answer and a timeout for the same token.
package registry

import (
	"fmt"
	"sync"
	"time"
)

// PendingEvent is one delivered question awaiting resolution.
type PendingEvent struct {
	TokenID              string
	SessionID            string
	ExpectedCorrectIndex int
	CreatedAt            time.Time
}

// ErrDuplicateToken is returned by Register when the token is already live.
// It indicates a programming error in the caller.
type ErrDuplicateToken struct {
	TokenID string
}

func (e *ErrDuplicateToken) Error() string {
	return fmt.Sprintf("token %q is already registered", e.TokenID)
}

// Registry is a mutex-guarded table of live tokens. It is safe for
// concurrent use by any number of sessions. Entries can only be looked up
// by consuming them; there is no check-then-act pair exposed.
type Registry struct {
	mu      sync.Mutex
	pending map[string]PendingEvent
	now     func() time.Time
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		pending: make(map[string]PendingEvent),
		now:     time.Now,
	}
}

// Register adds a live token for sessionID.
func (r *Registry) Register(tokenID, sessionID string, expectedCorrectIndex int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pending[tokenID]; exists {
		return &ErrDuplicateToken{TokenID: tokenID}
	}
	r.pending[tokenID] = PendingEvent{
		TokenID:              tokenID,
		SessionID:            sessionID,
		ExpectedCorrectIndex: expectedCorrectIndex,
		CreatedAt:            r.now(),
	}
	return nil
}

// ResolveOnce atomically removes and returns the entry for tokenID.
// Only the first caller for a registered token gets ok == true; every later
// or unknown call gets ok == false and must do nothing.
func (r *Registry) ResolveOnce(tokenID string) (PendingEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, ok := r.pending[tokenID]
	if !ok {
		return PendingEvent{}, false
	}
	delete(r.pending, tokenID)
	return ev, true
}
