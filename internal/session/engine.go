package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/lessonquiz/internal/quiz"
	"github.com/abhisek/lessonquiz/internal/registry"
	"github.com/abhisek/lessonquiz/internal/store"
)

// AnswerEvent is a learner's choice for a delivered question.
type AnswerEvent struct {
	CorrelationID string
	ChosenIndex   int
	ResponderID   int64
}

// TimeoutEvent fires when a question's time runs out.
type TimeoutEvent struct {
	CorrelationID string
}

// Result summarizes a completed session.
type Result struct {
	SessionID      string
	LearnerID      int64
	LessonID       string
	CorrectCount   int
	TotalQuestions int
	ScorePct       int
	Outcome        Outcome

	// RecordID is the stored result id; zero when nothing was persisted.
	RecordID  int64
	Persisted bool
}

type eventKind int

const (
	eventAnswer eventKind = iota
	eventTimeout
)

type event struct {
	kind          eventKind
	correlationID string
	chosenIndex   int
	responderID   int64
}

// Engine drives one learner through one QuestionSet. Events from any
// goroutine are queued and consumed by the single Run loop, so the
// SessionState is only ever mutated from that loop.
type Engine struct {
	deps Deps
	opts Options
	log  *slog.Logger

	events    chan event
	done      chan struct{}
	abort     chan struct{}
	abortOnce sync.Once
	running   atomic.Bool

	// mu guards state for concurrent readers of State.
	mu    sync.Mutex
	state SessionState

	// finMu serializes the terminal transitions.
	finMu    sync.Mutex
	finished bool
	result   Result
	finalErr error
}

// NewEngine creates an idle engine.
func NewEngine(deps Deps, opts Options) *Engine {
	if deps.Timers == nil {
		deps.Timers = SystemTimers
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	opts = opts.withDefaults()

	return &Engine{
		deps:   deps,
		opts:   opts,
		log:    deps.Logger,
		events: make(chan event, opts.EventBuffer),
		done:   make(chan struct{}),
		abort:  make(chan struct{}),
		state: SessionState{
			SessionID: uuid.NewString(),
			Phase:     PhaseIdle,
			Status:    StatusActive,
		},
	}
}

// Start binds the question set and learner to the session and moves it to
// the first question. Run must be called afterwards to drive it.
func (e *Engine) Start(set quiz.QuestionSet, learnerID, chatID int64, lessonID string) error {
	if set.Len() == 0 {
		return quiz.ErrEmptySet
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != PhaseIdle {
		return ErrAlreadyStarted
	}
	e.state.Questions = set
	e.state.LearnerID = learnerID
	e.state.ChatID = chatID
	e.state.LessonID = lessonID
	e.state.CurrentIndex = 0
	e.state.Phase = PhaseAwaitingAnswer
	e.state.StartedAt = e.deps.Now()
	e.log = e.deps.Logger.With("session_id", e.state.SessionID, "learner_id", learnerID)
	return nil
}

// SessionID returns the session's identifier.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.SessionID
}

// State returns a copy of the current session state.
func (e *Engine) State() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// SubmitAnswer queues an answer for the session. It returns false if the
// session has already ended. Stale or foreign answers are accepted here and
// dropped by the event loop.
func (e *Engine) SubmitAnswer(ev AnswerEvent) bool {
	return e.post(event{
		kind:          eventAnswer,
		correlationID: ev.CorrelationID,
		chosenIndex:   ev.ChosenIndex,
		responderID:   ev.ResponderID,
	})
}

// SubmitTimeout queues a timeout for the session. Armed timers call this;
// it is exported so external timer facilities can drive the engine too.
func (e *Engine) SubmitTimeout(ev TimeoutEvent) bool {
	return e.post(event{kind: eventTimeout, correlationID: ev.CorrelationID})
}

func (e *Engine) post(ev event) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.events <- ev:
		return true
	case <-e.done:
		return false
	}
}

// Abort stops the session early. The armed timer is cancelled and no score
// is persisted. Calling Abort more than once, or after completion, is a no-op.
func (e *Engine) Abort() {
	e.abortOnce.Do(func() { close(e.abort) })
}

// Run delivers each question in turn, waits for the answer or the timeout,
// and finalizes the session. It returns once the session is completed.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	st := e.State()
	if st.Phase != PhaseAwaitingAnswer {
		return Result{}, fmt.Errorf("run session in phase %s", st.Phase)
	}
	if !e.running.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyStarted
	}
	defer close(e.done)
	e.log.Info("session started", "lesson_id", st.LessonID, "questions", st.Total())

	total := st.Total()
	for i := 0; i < total; i++ {
		if err := e.ask(ctx, i, total); err != nil {
			return e.stop(ctx, err)
		}
		if i+1 < total {
			if err := e.pause(ctx); err != nil {
				return e.stop(ctx, err)
			}
		}
	}

	return e.Finalize(ctx)
}

// ask delivers question i, arms its timer, and blocks until the question is
// resolved exactly once.
func (e *Engine) ask(ctx context.Context, i, total int) error {
	st := e.State()
	q := st.Questions.At(i)

	token, err := e.deps.Transport.DeliverQuestion(ctx, st.ChatID, QuestionDelivery{
		Question: q,
		Number:   i + 1,
		Total:    total,
		OpenFor:  e.opts.QuestionDuration,
	})
	if err != nil {
		return &DeliveryError{SessionID: st.SessionID, Index: i, Err: err}
	}

	if err := e.deps.Registry.Register(token, st.SessionID, q.CorrectIndex); err != nil {
		return fmt.Errorf("register question %d: %w", i+1, err)
	}

	e.mu.Lock()
	e.state.ActiveToken = token
	e.mu.Unlock()

	timer := e.deps.Timers.AfterFunc(e.opts.timeout(), func() {
		e.SubmitTimeout(TimeoutEvent{CorrelationID: token})
	})
	defer timer.Stop()

	if err := e.await(ctx, token, q); err != nil {
		// Consume the token so late events for it are dropped.
		e.deps.Registry.ResolveOnce(token)
		return err
	}
	return nil
}

// await consumes queued events until one resolves token.
func (e *Engine) await(ctx context.Context, token string, q quiz.Question) error {
	for {
		select {
		case ev := <-e.events:
			if e.resolve(ev, token, q) {
				return nil
			}
		case <-e.abort:
			return ErrAborted
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// resolve applies ev if it wins the token. It reports whether the current
// question was resolved.
func (e *Engine) resolve(ev event, token string, q quiz.Question) bool {
	if ev.correlationID != token {
		e.log.Debug("dropping stale event", "correlation_id", ev.correlationID)
		return false
	}
	if ev.kind == eventAnswer && ev.responderID != e.State().LearnerID {
		e.log.Warn("dropping answer from another user", "responder_id", ev.responderID)
		return false
	}

	pending, ok := e.deps.Registry.ResolveOnce(token)
	if !ok {
		e.log.Debug("token already resolved", "correlation_id", token)
		return false
	}
	e.apply(ev, pending, q)
	return true
}

// apply records a resolved question and announces the outcome.
func (e *Engine) apply(ev event, pending registry.PendingEvent, q quiz.Question) {
	correct := ev.kind == eventAnswer && ev.chosenIndex == pending.ExpectedCorrectIndex

	e.mu.Lock()
	index := e.state.CurrentIndex
	if correct {
		e.state.CorrectCount++
	}
	e.state.CurrentIndex++
	e.state.ActiveToken = ""
	if e.state.CurrentIndex == e.state.Total() {
		e.state.Phase = PhaseFinalizing
	}
	chatID := e.state.ChatID
	e.mu.Unlock()

	source := "answer"
	text := wrongMessage(q)
	switch {
	case ev.kind == eventTimeout:
		source = "timeout"
		text = timeoutMessage(q)
	case correct:
		text = correctMessage(q)
	}
	e.log.Info("question resolved", "index", index, "source", source, "correct", correct)

	// Status messages are best effort; a lost one does not end the session.
	if err := e.deps.Transport.DeliverMessage(context.Background(), chatID, text); err != nil {
		e.log.Warn("failed to send feedback", "index", index, "error", err)
	}
}

func (e *Engine) pause(ctx context.Context) error {
	if e.opts.FeedbackDelay <= 0 {
		return nil
	}
	t := time.NewTimer(e.opts.FeedbackDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-e.abort:
		return ErrAborted
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finalize computes and persists the score once all questions are resolved.
// It is idempotent: later calls return the first result without persisting
// again.
func (e *Engine) Finalize(ctx context.Context) (Result, error) {
	e.finMu.Lock()
	defer e.finMu.Unlock()

	if e.finished {
		return e.result, e.finalErr
	}

	st := e.State()
	if st.Phase != PhaseFinalizing {
		return Result{}, ErrNotFinished
	}

	total := st.Total()
	pct := ScorePercent(st.CorrectCount, total)
	now := e.deps.Now()
	res := Result{
		SessionID:      st.SessionID,
		LearnerID:      st.LearnerID,
		LessonID:       st.LessonID,
		CorrectCount:   st.CorrectCount,
		TotalQuestions: total,
		ScorePct:       pct,
		Outcome:        OutcomeFinished,
	}

	var finalErr error
	if e.deps.Results != nil {
		data := store.ResultData{
			SessionID:      st.SessionID,
			LearnerID:      st.LearnerID,
			LessonID:       st.LessonID,
			CorrectCount:   st.CorrectCount,
			TotalQuestions: total,
			ScorePct:       pct,
			CompletedAt:    now,
		}
		id, err := e.deps.Results.PersistResult(ctx, data)
		if err != nil {
			finalErr = &PersistenceError{SessionID: st.SessionID, Err: err}
			e.log.Error("failed to persist result", "error", err, "correct", st.CorrectCount, "total", total)
			if e.deps.Recovery != nil {
				e.deps.Recovery.Add(data, err)
			}
			if e.deps.Reporter != nil {
				e.deps.Reporter.ReportPersistenceFailure(ctx, data, err)
			}
		} else {
			res.RecordID = id
			res.Persisted = true
		}
	}

	e.complete(OutcomeFinished, now)
	e.log.Info("session finished", "correct", st.CorrectCount, "total", total, "score_pct", pct, "persisted", res.Persisted)

	if err := e.deps.Transport.DeliverMessage(ctx, st.ChatID, finishedMessage(st.CorrectCount, total, pct)); err != nil {
		e.log.Warn("failed to send final result", "error", err)
	}

	e.finished = true
	e.result = res
	e.finalErr = finalErr
	return res, finalErr
}

// stop ends the session early because of err.
func (e *Engine) stop(ctx context.Context, err error) (Result, error) {
	e.finMu.Lock()
	defer e.finMu.Unlock()

	if e.finished {
		return e.result, e.finalErr
	}

	outcome := OutcomeFailed
	text := failedMessage
	switch {
	case errors.Is(err, ErrAborted):
		outcome = OutcomeAborted
		text = abortedMessage
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = OutcomeAborted
		text = ""
	}

	e.complete(outcome, e.deps.Now())
	st := e.State()
	if outcome == OutcomeFailed {
		e.log.Error("session failed", "index", st.CurrentIndex, "error", err)
	} else {
		e.log.Info("session aborted", "index", st.CurrentIndex, "reason", err)
	}

	if text != "" {
		if derr := e.deps.Transport.DeliverMessage(ctx, st.ChatID, text); derr != nil {
			e.log.Warn("failed to notify learner", "error", derr)
		}
	}

	e.finished = true
	e.result = Result{
		SessionID:      st.SessionID,
		LearnerID:      st.LearnerID,
		LessonID:       st.LessonID,
		CorrectCount:   st.CorrectCount,
		TotalQuestions: st.Total(),
		ScorePct:       ScorePercent(st.CorrectCount, st.Total()),
		Outcome:        outcome,
	}
	e.finalErr = err
	return e.result, err
}

func (e *Engine) complete(outcome Outcome, at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Phase = PhaseCompleted
	e.state.Status = StatusCompleted
	e.state.Outcome = outcome
	e.state.ActiveToken = ""
	e.state.CompletedAt = at
}
