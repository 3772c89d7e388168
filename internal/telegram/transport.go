package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/abhisek/lessonquiz/internal/quizgen"
	"github.com/abhisek/lessonquiz/internal/session"
)

// Quiz poll limits imposed by the Bot API.
const (
	minOpenPeriod = 5 * time.Second
	maxOpenPeriod = 600 * time.Second
)

// Transport delivers questions as non-anonymous quiz polls. The poll id is
// the correlation id carried by the answers.
type Transport struct {
	api BotAPI
}

// NewTransport creates a Transport.
func NewTransport(api BotAPI) *Transport {
	return &Transport{api: api}
}

// DeliverQuestion implements session.Transport.
func (t *Transport) DeliverQuestion(_ context.Context, chatID int64, d session.QuestionDelivery) (string, error) {
	poll := newQuizPoll(chatID, d)
	msg, err := t.api.Send(poll)
	if err != nil {
		return "", fmt.Errorf("send poll: %w", err)
	}
	if msg.Poll == nil || msg.Poll.ID == "" {
		return "", errors.New("send poll: response carries no poll")
	}
	return msg.Poll.ID, nil
}

// DeliverMessage implements session.Transport.
func (t *Transport) DeliverMessage(_ context.Context, chatID int64, text string) error {
	if _, err := t.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func newQuizPoll(chatID int64, d session.QuestionDelivery) tgbotapi.SendPollConfig {
	q := d.Question
	text := fmt.Sprintf("%d/%d. %s", d.Number, d.Total, q.Text)

	options := make([]string, len(q.Options))
	for i, o := range q.Options {
		options[i] = truncate(o, quizgen.MaxOptionChars)
	}

	poll := tgbotapi.NewPoll(chatID, truncate(text, quizgen.MaxQuestionChars), options...)
	poll.Type = "quiz"
	poll.IsAnonymous = false
	poll.CorrectOptionID = int64(q.CorrectIndex)
	poll.Explanation = truncate(q.Explanation, quizgen.MaxExplanationChars)
	poll.OpenPeriod = openPeriod(d.OpenFor)
	return poll
}

// openPeriod converts d to whole seconds within the poll limits.
func openPeriod(d time.Duration) int {
	if d < minOpenPeriod {
		d = minOpenPeriod
	}
	if d > maxOpenPeriod {
		d = maxOpenPeriod
	}
	return int(d / time.Second)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
