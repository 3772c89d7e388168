// Package dispatch keeps one quiz session per learner and routes incoming
// events to it.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/abhisek/lessonquiz/internal/llm"
	"github.com/abhisek/lessonquiz/internal/quiz"
	"github.com/abhisek/lessonquiz/internal/quizgen"
	"github.com/abhisek/lessonquiz/internal/session"
	"github.com/abhisek/lessonquiz/internal/store"
)

// ErrSessionActive is returned by StartQuiz when the learner is already
// taking a quiz.
var ErrSessionActive = errors.New("learner already has an active quiz")

// LessonSource looks up stored lessons. *store.Store satisfies it.
type LessonSource interface {
	GetLesson(ctx context.Context, id string) (*store.Lesson, error)
}

// Deps are the collaborators shared by every session the hub starts.
type Deps struct {
	Lessons   LessonSource
	Generator quizgen.Generator
	Registry  session.Registry
	Transport session.Transport

	// Optional, passed through to each engine.
	Results  session.ResultStore
	Recovery *session.RecoveryBuffer
	Reporter session.Reporter
	Timers   session.Timers
	Logger   *slog.Logger

	// OnFinish is called after a session's Run returns. Optional.
	OnFinish func(session.Result, error)
}

// slot is a learner's place in the hub. engine is nil while the question
// set is still being generated.
type slot struct {
	engine *session.Engine
	cancel context.CancelFunc
}

// Hub owns the active sessions. It is safe for concurrent use.
type Hub struct {
	deps Deps
	opts session.Options
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	active map[int64]*slot
}

// NewHub creates a hub. Sessions run until they finish, are stopped, or
// Shutdown is called.
func NewHub(deps Deps, opts session.Options) *Hub {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		deps:   deps,
		opts:   opts,
		log:    deps.Logger,
		ctx:    ctx,
		cancel: cancel,
		active: make(map[int64]*slot),
	}
}

// StartQuiz generates a quiz from the lesson and runs it for learnerID in
// chatID. It returns once the first question has been handed to the
// session; the session itself runs in the background.
func (h *Hub) StartQuiz(ctx context.Context, learnerID, chatID int64, lessonID string) error {
	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := &slot{cancel: cancel}
	h.mu.Lock()
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		return fmt.Errorf("start quiz: %w", h.ctx.Err())
	}
	if _, busy := h.active[learnerID]; busy {
		h.mu.Unlock()
		return ErrSessionActive
	}
	h.active[learnerID] = s
	h.mu.Unlock()

	set, err := h.prepare(genCtx, lessonID)
	if err != nil {
		h.release(learnerID, s)
		return err
	}

	eng := session.NewEngine(session.Deps{
		Registry:  h.deps.Registry,
		Transport: h.deps.Transport,
		Results:   h.deps.Results,
		Timers:    h.deps.Timers,
		Recovery:  h.deps.Recovery,
		Reporter:  h.deps.Reporter,
		Logger:    h.deps.Logger,
	}, h.opts)
	if err := eng.Start(set, learnerID, chatID, lessonID); err != nil {
		h.release(learnerID, s)
		return fmt.Errorf("start quiz: %w", err)
	}

	h.mu.Lock()
	if h.active[learnerID] != s || genCtx.Err() != nil {
		// Stopped or shut down while generating.
		h.mu.Unlock()
		h.release(learnerID, s)
		return fmt.Errorf("start quiz: %w", context.Canceled)
	}
	s.engine = eng
	h.wg.Add(1)
	h.mu.Unlock()

	go h.run(learnerID, s)
	return nil
}

func (h *Hub) prepare(ctx context.Context, lessonID string) (quiz.QuestionSet, error) {
	lesson, err := h.deps.Lessons.GetLesson(ctx, lessonID)
	if err != nil {
		return quiz.QuestionSet{}, fmt.Errorf("start quiz: %w", err)
	}
	set, err := h.deps.Generator.Generate(llm.WithLesson(ctx, lesson.ID), lesson.Text)
	if err != nil {
		return quiz.QuestionSet{}, fmt.Errorf("start quiz: %w", err)
	}
	return set, nil
}

func (h *Hub) run(learnerID int64, s *slot) {
	defer h.wg.Done()
	defer h.release(learnerID, s)

	res, err := s.engine.Run(h.ctx)
	if err != nil && !errors.Is(err, session.ErrAborted) && !errors.Is(err, context.Canceled) {
		h.log.Warn("session ended with error", "session_id", res.SessionID, "learner_id", learnerID, "error", err)
	}
	if h.deps.OnFinish != nil {
		h.deps.OnFinish(res, err)
	}
}

// release frees the learner's slot if it still belongs to s.
func (h *Hub) release(learnerID int64, s *slot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active[learnerID] == s {
		delete(h.active, learnerID)
	}
}

// HandleAnswer routes an answer to the responder's active session. It
// reports whether a running session accepted the event; the session still
// drops it if the correlation id is stale.
func (h *Hub) HandleAnswer(ev session.AnswerEvent) bool {
	eng := h.engine(ev.ResponderID)
	if eng == nil {
		h.log.Debug("answer with no active session", "responder_id", ev.ResponderID, "correlation_id", ev.CorrelationID)
		return false
	}
	return eng.SubmitAnswer(ev)
}

// Stop aborts the learner's quiz. It reports whether there was one.
func (h *Hub) Stop(learnerID int64) bool {
	h.mu.Lock()
	s, ok := h.active[learnerID]
	if ok && s.engine == nil {
		delete(h.active, learnerID)
	}
	h.mu.Unlock()
	if !ok {
		return false
	}
	if s.engine == nil {
		s.cancel()
		return true
	}
	s.engine.Abort()
	return true
}

// Active reports whether the learner has a quiz in progress.
func (h *Hub) Active(learnerID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.active[learnerID]
	return ok
}

// Session returns a snapshot of the learner's running session.
func (h *Hub) Session(learnerID int64) (session.SessionState, bool) {
	eng := h.engine(learnerID)
	if eng == nil {
		return session.SessionState{}, false
	}
	return eng.State(), true
}

// Len returns the number of learners with a quiz in progress.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.active)
}

func (h *Hub) engine(learnerID int64) *session.Engine {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.active[learnerID]; ok {
		return s.engine
	}
	return nil
}

// Wait blocks until every running session has returned.
func (h *Hub) Wait() {
	h.wg.Wait()
}

// Shutdown cancels every session and waits for them to return or for ctx
// to expire. Cancelled sessions persist nothing.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.cancel()
	for _, s := range h.active {
		s.cancel()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recover retries persisting buffered scores. It returns how many were
// stored.
func (h *Hub) Recover(ctx context.Context) (int, error) {
	if h.deps.Recovery == nil || h.deps.Results == nil {
		return 0, nil
	}
	return h.deps.Recovery.Retry(ctx, h.deps.Results)
}

// PendingRecovery returns the scores still waiting to be persisted.
func (h *Hub) PendingRecovery() []session.PendingResult {
	if h.deps.Recovery == nil {
		return nil
	}
	return h.deps.Recovery.Pending()
}
