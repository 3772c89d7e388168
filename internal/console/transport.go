package console

import (
	"context"
	"sync"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"

	"github.com/abhisek/lessonquiz/internal/session"
)

// Sender delivers messages into a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Transport implements session.Transport by turning deliveries into
// program messages. Each question gets a fresh random correlation id.
type Transport struct {
	mu     sync.Mutex
	sender Sender
}

// NewTransport creates a detached transport. Deliveries are dropped until
// Attach is called.
func NewTransport() *Transport {
	return &Transport{}
}

// Attach routes deliveries to s.
func (t *Transport) Attach(s Sender) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sender = s
}

func (t *Transport) send(msg tea.Msg) {
	t.mu.Lock()
	s := t.sender
	t.mu.Unlock()
	if s != nil {
		s.Send(msg)
	}
}

// DeliverQuestion implements session.Transport.
func (t *Transport) DeliverQuestion(_ context.Context, _ int64, d session.QuestionDelivery) (string, error) {
	token := uuid.NewString()
	t.send(questionMsg{token: token, delivery: d})
	return token, nil
}

// DeliverMessage implements session.Transport.
func (t *Transport) DeliverMessage(_ context.Context, _ int64, text string) error {
	t.send(statusMsg{text: text})
	return nil
}
