package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is a canned response for the MockProvider. An empty
// StopReason means "end".
type MockResponse struct {
	Content    json.RawMessage
	Usage      Usage
	StopReason string
	Err        error
}

// MockProvider is a deterministic Provider for tests. Queued responses are
// returned in FIFO order; once the queue is drained, Fallback answers, and
// without one every call fails with ErrProviderUnavailable.
type MockProvider struct {
	// Fallback, when set, builds the response for calls beyond the queue.
	Fallback func(Request) MockResponse

	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	var (
		resp MockResponse
		ok   bool
	)
	if len(m.responses) > 0 {
		resp, m.responses, ok = m.responses[0], m.responses[1:], true
	}
	fallback := m.Fallback
	m.mu.Unlock()

	if !ok {
		if fallback == nil {
			return nil, &ErrProviderUnavailable{}
		}
		resp = fallback(req)
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stop := resp.StopReason
	if stop == "" {
		stop = "end"
	}
	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: stop,
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// Pending returns the number of queued responses not yet consumed.
func (m *MockProvider) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
