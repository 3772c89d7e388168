package console

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lessonquiz/internal/quiz"
	"github.com/abhisek/lessonquiz/internal/session"
)

// PrepareFunc resolves a lesson reference into a question set and the id
// the result is recorded under.
type PrepareFunc func(ctx context.Context, lessonRef string) (set quiz.QuestionSet, lessonID string, err error)

// PlayConfig configures Play.
type PlayConfig struct {
	// LessonRef is passed to Prepare. When empty the learner is asked for one.
	LessonRef string
	Prepare   PrepareFunc

	// Deps are used for the engine; Transport is replaced by the terminal.
	Deps    session.Deps
	Options session.Options
}

// Play runs one quiz in the terminal and returns its result.
func Play(ctx context.Context, cfg PlayConfig) (session.Result, error) {
	tr := NewTransport()
	start := func(ctx context.Context, ref string) (Engine, error) {
		set, lessonID, err := cfg.Prepare(ctx, ref)
		if err != nil {
			return nil, err
		}
		deps := cfg.Deps
		deps.Transport = tr
		eng := session.NewEngine(deps, cfg.Options)
		if err := eng.Start(set, LocalLearnerID, LocalChatID, lessonID); err != nil {
			return nil, err
		}
		return eng, nil
	}

	p := tea.NewProgram(NewModel(ctx, start, cfg.LessonRef), tea.WithContext(ctx))
	tr.Attach(p)

	final, err := p.Run()
	if err != nil {
		return session.Result{}, fmt.Errorf("run terminal: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return session.Result{}, fmt.Errorf("run terminal: unexpected model %T", final)
	}
	return m.Result()
}
