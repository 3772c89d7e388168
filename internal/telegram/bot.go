package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/abhisek/lessonquiz/internal/dispatch"
	"github.com/abhisek/lessonquiz/internal/session"
	"github.com/abhisek/lessonquiz/internal/store"
)

// QuizHub starts, routes, and stops quiz sessions. *dispatch.Hub satisfies it.
type QuizHub interface {
	StartQuiz(ctx context.Context, learnerID, chatID int64, lessonID string) error
	HandleAnswer(ev session.AnswerEvent) bool
	Stop(learnerID int64) bool
	Recover(ctx context.Context) (int, error)
	PendingRecovery() []session.PendingResult
}

// Store holds lessons and results. *store.Store satisfies it.
type Store interface {
	CreateLesson(ctx context.Context, authorID int64, text string) (*store.Lesson, error)
	GetLesson(ctx context.Context, id string) (*store.Lesson, error)
	LessonsByAuthor(ctx context.Context, authorID int64, limit int) ([]store.Lesson, error)
	ResultsByLesson(ctx context.Context, lessonID string, opts store.QueryOpts) ([]store.ResultRecord, error)
}

// Options configure a Bot.
type Options struct {
	// Username is the bot's @name without the @, used in deep links.
	Username string

	// OperatorChatID may use /recover. Zero disables the command.
	OperatorChatID int64

	// MinLessonChars is the shortest lesson text accepted.
	MinLessonChars int

	Logger *slog.Logger
}

// Bot reads updates and turns them into lesson, quiz and result actions.
type Bot struct {
	api   BotAPI
	hub   QuizHub
	store Store
	opts  Options
	log   *slog.Logger

	// awaiting holds users whose next text message is a lesson.
	mu       sync.Mutex
	awaiting map[int64]bool

	wg sync.WaitGroup
}

// NewBot creates a Bot.
func NewBot(api BotAPI, hub QuizHub, st Store, opts Options) *Bot {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.MinLessonChars <= 0 {
		opts.MinLessonChars = 40
	}
	return &Bot{
		api:      api,
		hub:      hub,
		store:    st,
		opts:     opts,
		log:      opts.Logger,
		awaiting: make(map[int64]bool),
	}
}

// Run polls for updates until ctx is cancelled. Quiz starts run in the
// background; Run waits for them before returning.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "poll_answer"}

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("bot started", "username", b.opts.Username)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, upd)
		}
	}
}

// Wait blocks until background quiz starts have returned.
func (b *Bot) Wait() {
	b.wg.Wait()
}

// HandleUpdate processes one update.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.PollAnswer != nil:
		b.handlePollAnswer(upd.PollAnswer)
	case upd.Message != nil && upd.Message.From != nil && upd.Message.Chat != nil:
		b.handleMessage(ctx, upd.Message)
	}
}

func (b *Bot) handlePollAnswer(a *tgbotapi.PollAnswer) {
	if len(a.OptionIDs) == 0 {
		// Retracted vote.
		return
	}
	b.hub.HandleAnswer(session.AnswerEvent{
		CorrelationID: a.PollID,
		ChosenIndex:   a.OptionIDs[0],
		ResponderID:   a.User.ID,
	})
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	if !m.IsCommand() {
		b.handleText(ctx, m)
		return
	}

	switch m.Command() {
	case "start":
		b.handleStart(ctx, m)
	case "help":
		b.reply(m, helpMessage)
	case "lesson":
		b.handleLesson(ctx, m)
	case "links":
		b.handleLinks(ctx, m)
	case "results":
		b.handleResults(ctx, m)
	case "stop":
		b.handleStop(m)
	case "recover":
		b.handleRecover(ctx, m)
	default:
		b.reply(m, "Unknown command. Send /help for the list.")
	}
}

func (b *Bot) handleStart(ctx context.Context, m *tgbotapi.Message) {
	lessonID := strings.TrimSpace(m.CommandArguments())
	if lessonID == "" {
		b.reply(m, welcomeMessage)
		return
	}

	learnerID, chatID := m.From.ID, m.Chat.ID
	b.reply(m, "⏳ Preparing your quiz…")

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		err := b.hub.StartQuiz(ctx, learnerID, chatID, lessonID)
		if err == nil {
			return
		}
		b.log.Warn("quiz not started", "learner_id", learnerID, "lesson_id", lessonID, "error", err)
		if text := startErrorMessage(err); text != "" {
			b.send(chatID, text)
		}
	}()
}

func startErrorMessage(err error) string {
	switch {
	case errors.Is(err, dispatch.ErrSessionActive):
		return "You already have a quiz in progress. Send /stop to end it."
	case errors.Is(err, store.ErrNotFound):
		return "❌ This lesson link is not valid."
	case errors.Is(err, context.Canceled):
		return ""
	}
	return "❌ Could not prepare a quiz for this lesson. Please try again later."
}

func (b *Bot) handleLesson(ctx context.Context, m *tgbotapi.Message) {
	if text := strings.TrimSpace(m.CommandArguments()); text != "" {
		b.saveLesson(ctx, m, text)
		return
	}
	b.mu.Lock()
	b.awaiting[m.From.ID] = true
	b.mu.Unlock()
	b.reply(m, "Send the lesson text:")
}

func (b *Bot) handleText(ctx context.Context, m *tgbotapi.Message) {
	b.mu.Lock()
	awaiting := b.awaiting[m.From.ID]
	delete(b.awaiting, m.From.ID)
	b.mu.Unlock()

	if !awaiting {
		b.reply(m, "Send /lesson to create a quiz from a text, or /help for the list of commands.")
		return
	}
	b.saveLesson(ctx, m, m.Text)
}

func (b *Bot) saveLesson(ctx context.Context, m *tgbotapi.Message, text string) {
	if len([]rune(strings.TrimSpace(text))) < b.opts.MinLessonChars {
		b.reply(m, fmt.Sprintf("The lesson text is too short. Send at least %d characters.", b.opts.MinLessonChars))
		return
	}
	lesson, err := b.store.CreateLesson(ctx, m.From.ID, text)
	if err != nil {
		b.log.Error("failed to save lesson", "author_id", m.From.ID, "error", err)
		b.reply(m, "❌ Could not save the lesson. Please try again later.")
		return
	}
	b.log.Info("lesson saved", "author_id", m.From.ID, "lesson_id", lesson.ID)
	b.reply(m, lessonSavedMessage(DeepLink(b.opts.Username, lesson.ID), lesson.ID))
}

func (b *Bot) handleLinks(ctx context.Context, m *tgbotapi.Message) {
	lessons, err := b.store.LessonsByAuthor(ctx, m.From.ID, 20)
	if err != nil {
		b.log.Error("failed to list lessons", "author_id", m.From.ID, "error", err)
		b.reply(m, "❌ Could not load your lessons.")
		return
	}
	b.reply(m, linksMessage(b.opts.Username, lessons))
}

func (b *Bot) handleResults(ctx context.Context, m *tgbotapi.Message) {
	lessonID := strings.TrimSpace(m.CommandArguments())
	if lessonID == "" {
		b.reply(m, "Usage: /results <lesson id>")
		return
	}
	lesson, err := b.store.GetLesson(ctx, lessonID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && lesson.AuthorID != m.From.ID) {
		b.reply(m, "❌ Lesson not found.")
		return
	}
	if err != nil {
		b.log.Error("failed to load lesson", "lesson_id", lessonID, "error", err)
		b.reply(m, "❌ Could not load results.")
		return
	}

	results, err := b.store.ResultsByLesson(ctx, lessonID, store.QueryOpts{Limit: 50})
	if err != nil {
		b.log.Error("failed to load results", "lesson_id", lessonID, "error", err)
		b.reply(m, "❌ Could not load results.")
		return
	}
	b.reply(m, resultsMessage(lessonID, results))
}

func (b *Bot) handleStop(m *tgbotapi.Message) {
	if !b.hub.Stop(m.From.ID) {
		b.reply(m, "You have no quiz in progress.")
	}
}

func (b *Bot) handleRecover(ctx context.Context, m *tgbotapi.Message) {
	if b.opts.OperatorChatID == 0 || m.Chat.ID != b.opts.OperatorChatID {
		b.reply(m, "Unknown command. Send /help for the list.")
		return
	}
	before := len(b.hub.PendingRecovery())
	saved, err := b.hub.Recover(ctx)
	text := fmt.Sprintf("♻️ Saved %d of %d pending results.", saved, before)
	if err != nil {
		b.log.Warn("recovery incomplete", "saved", saved, "error", err)
		text += fmt.Sprintf("\nStill failing: %v", err)
	}
	b.reply(m, text)
}

func (b *Bot) reply(m *tgbotapi.Message, text string) {
	b.send(m.Chat.ID, text)
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}
