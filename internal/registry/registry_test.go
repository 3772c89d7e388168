package registry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndResolve(t *testing.T) {
	r := New()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	require.NoError(t, r.Register("poll-1", "sess-a", 2))

	ev, ok := r.ResolveOnce("poll-1")
	require.True(t, ok)
	assert.Equal(t, PendingEvent{
		TokenID:              "poll-1",
		SessionID:            "sess-a",
		ExpectedCorrectIndex: 2,
		CreatedAt:            fixed,
	}, ev)

	_, ok = r.ResolveOnce("poll-1")
	assert.False(t, ok, "second resolve must observe nothing")
}

func TestResolveUnknown(t *testing.T) {
	r := New()
	_, ok := r.ResolveOnce("never-registered")
	assert.False(t, ok)
}

func TestRegisterDuplicate(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("t", "s1", 0))

	err := r.Register("t", "s2", 1)
	var dup *ErrDuplicateToken
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "t", dup.TokenID)

	// The original entry is untouched.
	ev, ok := r.ResolveOnce("t")
	require.True(t, ok)
	assert.Equal(t, "s1", ev.SessionID)
}

func TestTokenReusableAfterResolve(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("t", "s", 0))
	_, _ = r.ResolveOnce("t")
	assert.NoError(t, r.Register("t", "s", 1))
}

func TestResolveOnce_ConcurrentCallersWinExactlyOnce(t *testing.T) {
	const tokens = 200
	const racers = 8

	r := New()
	for i := 0; i < tokens; i++ {
		require.NoError(t, r.Register(fmt.Sprintf("tok-%d", i), "s", 0))
	}

	wins := make([]atomic.Int32, tokens)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for g := 0; g < racers; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for i := 0; i < tokens; i++ {
				if _, ok := r.ResolveOnce(fmt.Sprintf("tok-%d", i)); ok {
					wins[i].Add(1)
				}
			}
		}()
	}
	close(start)
	wg.Wait()

	for i := range wins {
		assert.Equal(t, int32(1), wins[i].Load(), "token %d", i)
	}
}

func TestConcurrentSessionsAreIndependent(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for s := 0; s < 16; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			for q := 0; q < 50; q++ {
				tok := fmt.Sprintf("s%d-q%d", s, q)
				if err := r.Register(tok, fmt.Sprintf("s%d", s), q%4); err != nil {
					t.Errorf("register %s: %v", tok, err)
					return
				}
				ev, ok := r.ResolveOnce(tok)
				if !ok || ev.ExpectedCorrectIndex != q%4 {
					t.Errorf("resolve %s: ok=%v ev=%+v", tok, ok, ev)
					return
				}
			}
		}(s)
	}
	wg.Wait()
}
