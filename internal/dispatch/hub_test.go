package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lessonquiz/internal/llm"
	"github.com/abhisek/lessonquiz/internal/quiz"
	"github.com/abhisek/lessonquiz/internal/registry"
	"github.com/abhisek/lessonquiz/internal/session"
	"github.com/abhisek/lessonquiz/internal/store"
)

type delivery struct {
	chatID int64
	token  string
	q      quiz.Question
}

type fakeTransport struct {
	seq        atomic.Int64
	deliveries chan delivery

	mu       sync.Mutex
	messages map[int64][]string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{deliveries: make(chan delivery, 64), messages: make(map[int64][]string)}
}

func (t *fakeTransport) DeliverQuestion(_ context.Context, chatID int64, d session.QuestionDelivery) (string, error) {
	token := fmt.Sprintf("poll-%d", t.seq.Add(1))
	t.deliveries <- delivery{chatID: chatID, token: token, q: d.Question}
	return token, nil
}

func (t *fakeTransport) DeliverMessage(_ context.Context, chatID int64, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages[chatID] = append(t.messages[chatID], text)
	return nil
}

func (t *fakeTransport) Messages(chatID int64) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.messages[chatID]...)
}

func (t *fakeTransport) next(tb testing.TB) delivery {
	tb.Helper()
	select {
	case d := <-t.deliveries:
		return d
	case <-time.After(2 * time.Second):
		tb.Fatal("timed out waiting for a question")
		return delivery{}
	}
}

type fakeLessons map[string]string

func (f fakeLessons) GetLesson(_ context.Context, id string) (*store.Lesson, error) {
	text, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("lesson %q: %w", id, store.ErrNotFound)
	}
	return &store.Lesson{ID: id, Text: text}, nil
}

type fakeGenerator struct {
	n     int
	err   error
	block bool

	mu       sync.Mutex
	lessonID string
}

func (g *fakeGenerator) Generate(ctx context.Context, lessonText string) (quiz.QuestionSet, error) {
	g.mu.Lock()
	g.lessonID = llm.LessonFrom(ctx)
	g.mu.Unlock()
	if g.block {
		<-ctx.Done()
		return quiz.QuestionSet{}, ctx.Err()
	}
	if g.err != nil {
		return quiz.QuestionSet{}, g.err
	}
	var qs []quiz.Question
	for i := 0; i < g.n; i++ {
		q, err := quiz.NewQuestion(fmt.Sprintf("%s #%d?", lessonText, i+1), []string{"a", "b", "c"}, i%3, "")
		if err != nil {
			return quiz.QuestionSet{}, err
		}
		qs = append(qs, q)
	}
	return quiz.NewQuestionSet(qs)
}

type harness struct {
	hub       *Hub
	transport *fakeTransport
	results   chan session.Result
}

func newHarness(t *testing.T, gen *fakeGenerator) *harness {
	t.Helper()
	h := &harness{transport: newFakeTransport(), results: make(chan session.Result, 8)}
	h.hub = NewHub(Deps{
		Lessons:   fakeLessons{"fractions": "Fractions"},
		Generator: gen,
		Registry:  registry.New(),
		Transport: h.transport,
		OnFinish:  func(r session.Result, _ error) { h.results <- r },
	}, session.Options{QuestionDuration: time.Minute, FeedbackDelay: 0})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		h.hub.Shutdown(ctx)
	})
	return h
}

func (h *harness) result(tb testing.TB) session.Result {
	tb.Helper()
	select {
	case r := <-h.results:
		return r
	case <-time.After(2 * time.Second):
		tb.Fatal("timed out waiting for the session to finish")
		return session.Result{}
	}
}

func TestHub_RunsQuizToCompletion(t *testing.T) {
	gen := &fakeGenerator{n: 3}
	h := newHarness(t, gen)

	require.NoError(t, h.hub.StartQuiz(context.Background(), 7, 700, "fractions"))
	assert.True(t, h.hub.Active(7))
	gen.mu.Lock()
	assert.Equal(t, "fractions", gen.lessonID, "generation is tagged with the lesson")
	gen.mu.Unlock()

	for i := 0; i < 3; i++ {
		d := h.transport.next(t)
		assert.Equal(t, int64(700), d.chatID)
		chosen := d.q.CorrectIndex
		if i == 2 {
			chosen = (chosen + 1) % 3
		}
		require.True(t, h.hub.HandleAnswer(session.AnswerEvent{CorrelationID: d.token, ChosenIndex: chosen, ResponderID: 7}))
	}

	res := h.result(t)
	assert.Equal(t, session.OutcomeFinished, res.Outcome)
	assert.Equal(t, 2, res.CorrectCount)
	assert.Equal(t, 66, res.ScorePct)
	assert.Equal(t, "fractions", res.LessonID)

	h.hub.Wait()
	assert.False(t, h.hub.Active(7))
	assert.False(t, h.hub.HandleAnswer(session.AnswerEvent{CorrelationID: "poll-1", ResponderID: 7}))
}

func TestHub_OneSessionPerLearner(t *testing.T) {
	h := newHarness(t, &fakeGenerator{n: 1})

	require.NoError(t, h.hub.StartQuiz(context.Background(), 7, 700, "fractions"))
	err := h.hub.StartQuiz(context.Background(), 7, 700, "fractions")
	assert.ErrorIs(t, err, ErrSessionActive)

	require.NoError(t, h.hub.StartQuiz(context.Background(), 8, 800, "fractions"))
	assert.Equal(t, 2, h.hub.Len())
}

func TestHub_AnswersAreRoutedByResponder(t *testing.T) {
	h := newHarness(t, &fakeGenerator{n: 1})

	require.NoError(t, h.hub.StartQuiz(context.Background(), 7, 700, "fractions"))
	first := h.transport.next(t)
	require.NoError(t, h.hub.StartQuiz(context.Background(), 8, 800, "fractions"))
	second := h.transport.next(t)

	// Learner 8 answering learner 7's poll reaches session 8, which drops it.
	require.True(t, h.hub.HandleAnswer(session.AnswerEvent{CorrelationID: first.token, ChosenIndex: first.q.CorrectIndex, ResponderID: 8}))
	require.True(t, h.hub.HandleAnswer(session.AnswerEvent{CorrelationID: second.token, ChosenIndex: second.q.CorrectIndex, ResponderID: 8}))

	res := h.result(t)
	assert.Equal(t, int64(8), res.LearnerID)
	assert.Equal(t, 100, res.ScorePct)

	require.Eventually(t, func() bool {
		st, ok := h.hub.Session(7)
		return ok && st.ActiveToken == first.token && st.CurrentIndex == 0
	}, time.Second, 5*time.Millisecond)
}

func TestHub_UnknownResponderIsDropped(t *testing.T) {
	h := newHarness(t, &fakeGenerator{n: 1})
	assert.False(t, h.hub.HandleAnswer(session.AnswerEvent{CorrelationID: "x", ResponderID: 99}))
	assert.False(t, h.hub.Stop(99))
}

func TestHub_Stop(t *testing.T) {
	h := newHarness(t, &fakeGenerator{n: 2})

	require.NoError(t, h.hub.StartQuiz(context.Background(), 7, 700, "fractions"))
	h.transport.next(t)

	require.True(t, h.hub.Stop(7))
	res := h.result(t)
	assert.Equal(t, session.OutcomeAborted, res.Outcome)

	h.hub.Wait()
	assert.False(t, h.hub.Active(7))
	msgs := h.transport.Messages(700)
	require.NotEmpty(t, msgs)
	assert.True(t, strings.Contains(msgs[len(msgs)-1], "stopped"))

	// The learner can start again.
	require.NoError(t, h.hub.StartQuiz(context.Background(), 7, 700, "fractions"))
}

func TestHub_LessonNotFound(t *testing.T) {
	h := newHarness(t, &fakeGenerator{n: 1})

	err := h.hub.StartQuiz(context.Background(), 7, 700, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, h.hub.Active(7))
}

func TestHub_GenerationFailure(t *testing.T) {
	boom := errors.New("model unavailable")
	h := newHarness(t, &fakeGenerator{err: boom})

	err := h.hub.StartQuiz(context.Background(), 7, 700, "fractions")
	assert.ErrorIs(t, err, boom)
	assert.False(t, h.hub.Active(7))
	assert.Empty(t, h.transport.Messages(700))
}

func TestHub_StopDuringGeneration(t *testing.T) {
	h := newHarness(t, &fakeGenerator{block: true})

	errc := make(chan error, 1)
	go func() { errc <- h.hub.StartQuiz(context.Background(), 7, 700, "fractions") }()

	require.Eventually(t, func() bool { return h.hub.Active(7) }, time.Second, 5*time.Millisecond)
	require.True(t, h.hub.Stop(7))

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("StartQuiz did not return after Stop")
	}
	assert.False(t, h.hub.Active(7))
}

func TestHub_Shutdown(t *testing.T) {
	h := newHarness(t, &fakeGenerator{n: 2})

	require.NoError(t, h.hub.StartQuiz(context.Background(), 7, 700, "fractions"))
	h.transport.next(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.hub.Shutdown(ctx))

	res := h.result(t)
	assert.Equal(t, session.OutcomeAborted, res.Outcome)
	assert.Equal(t, 0, h.hub.Len())

	err := h.hub.StartQuiz(context.Background(), 7, 700, "fractions")
	assert.ErrorIs(t, err, context.Canceled)
}

type failingResults struct{}

func (failingResults) PersistResult(context.Context, store.ResultData) (int64, error) {
	return 0, errors.New("disk full")
}

type okResults struct{ n atomic.Int64 }

func (r *okResults) PersistResult(context.Context, store.ResultData) (int64, error) {
	return r.n.Add(1), nil
}

func TestHub_PersistenceFailureIsReportedAndRecovered(t *testing.T) {
	transport := newFakeTransport()
	recovery := session.NewRecoveryBuffer(time.Hour, 10)
	done := make(chan session.Result, 1)
	hub := NewHub(Deps{
		Lessons:   fakeLessons{"fractions": "Fractions"},
		Generator: &fakeGenerator{n: 1},
		Registry:  registry.New(),
		Transport: transport,
		Results:   failingResults{},
		Recovery:  recovery,
		Reporter:  &OperatorReporter{Sender: transport, ChatID: -1},
		OnFinish:  func(r session.Result, _ error) { done <- r },
	}, session.Options{QuestionDuration: time.Minute})

	require.NoError(t, hub.StartQuiz(context.Background(), 7, 700, "fractions"))
	d := transport.next(t)
	hub.HandleAnswer(session.AnswerEvent{CorrelationID: d.token, ChosenIndex: d.q.CorrectIndex, ResponderID: 7})

	select {
	case res := <-done:
		assert.False(t, res.Persisted)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
	}
	hub.Wait()

	ops := transport.Messages(-1)
	require.Len(t, ops, 1)
	assert.Contains(t, ops[0], "disk full")
	assert.Contains(t, ops[0], "/recover")
	require.Len(t, hub.PendingRecovery(), 1)

	// Swap in a working store and retry.
	good := &okResults{}
	hub.deps.Results = good
	n, err := hub.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, hub.PendingRecovery())
}

func TestOperatorReporter_NoChatOnlyLogs(t *testing.T) {
	transport := newFakeTransport()
	r := &OperatorReporter{Sender: transport}
	r.ReportPersistenceFailure(context.Background(), store.ResultData{SessionID: "s"}, errors.New("x"))
	assert.Empty(t, transport.Messages(0))
}
