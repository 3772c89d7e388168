package quizgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abhisek/lessonquiz/internal/llm"
	"github.com/abhisek/lessonquiz/internal/quiz"
)

// Purpose labels quiz generation calls in the LLM event log.
const Purpose = "quiz-gen"

// LLMGenerator implements Generator using the LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	logger   *slog.Logger
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config, logger *slog.Logger) *LLMGenerator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LLMGenerator{provider: provider, config: cfg.withDefaults(), logger: logger}
}

// Generate produces a QuestionSet for lessonText. A draft that fails a
// retryable validation is sent back to the model with the reason, up to
// Config.MaxAttempts calls in total.
func (g *LLMGenerator) Generate(ctx context.Context, lessonText string) (quiz.QuestionSet, error) {
	if strings.TrimSpace(lessonText) == "" {
		return quiz.QuestionSet{}, &GenerationError{Err: ErrEmptyLesson}
	}
	ctx = llm.WithPurpose(ctx, Purpose)

	req := llm.UserRequest(systemPrompt, buildUserMessage(lessonText, g.config))
	req.Schema = QuizSchema(g.config.QuestionCount, g.config.OptionCount)
	req.MaxTokens = g.config.MaxTokens
	req.Temperature = g.config.Temperature

	for attempt := 1; ; attempt++ {
		resp, err := g.provider.Generate(ctx, req)
		if err != nil {
			return quiz.QuestionSet{}, &GenerationError{Attempts: attempt, Err: fmt.Errorf("LLM generation failed: %w", err)}
		}

		var draft Draft
		if err := json.Unmarshal(resp.Content, &draft); err != nil {
			return quiz.QuestionSet{}, &GenerationError{Attempts: attempt, Err: fmt.Errorf("failed to parse LLM response: %w", err)}
		}

		verr := g.validate(&draft)
		if verr == nil {
			set, err := g.build(draft)
			if err != nil {
				return quiz.QuestionSet{}, &GenerationError{Attempts: attempt, Err: err}
			}
			return set, nil
		}

		if !verr.Retryable || attempt >= g.config.MaxAttempts {
			return quiz.QuestionSet{}, &GenerationError{Attempts: attempt, Err: verr}
		}
		g.logger.Warn("regenerating rejected quiz", "attempt", attempt, "reason", verr.Error())
		req.Messages = append(req.Messages,
			llm.Message{Role: llm.RoleAssistant, Content: string(resp.Content)},
			llm.Message{Role: llm.RoleUser, Content: buildRetryMessage(verr)},
		)
	}
}

func (g *LLMGenerator) validate(d *Draft) *ValidationError {
	for _, v := range g.config.Validators {
		if verr := v.Validate(d, g.config); verr != nil {
			return verr
		}
	}
	return nil
}

func (g *LLMGenerator) build(d Draft) (quiz.QuestionSet, error) {
	questions := make([]quiz.Question, 0, len(d.Questions))
	for i, dq := range d.Questions {
		q, err := quiz.NewQuestion(dq.Text, trimAll(dq.Options), dq.CorrectIndex, strings.TrimSpace(dq.Explanation))
		if err != nil {
			return quiz.QuestionSet{}, fmt.Errorf("question %d: %w", i+1, err)
		}
		if q.Clamped {
			g.logger.Warn("correct index out of range, clamped",
				"question", i+1, "index", dq.CorrectIndex, "options", len(dq.Options), "clamped_to", q.CorrectIndex)
		}
		questions = append(questions, q)
	}
	return quiz.NewQuestionSet(questions)
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
