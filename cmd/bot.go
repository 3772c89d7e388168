package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/lessonquiz/internal/dispatch"
	"github.com/abhisek/lessonquiz/internal/llm"
	"github.com/abhisek/lessonquiz/internal/quizgen"
	"github.com/abhisek/lessonquiz/internal/registry"
	"github.com/abhisek/lessonquiz/internal/session"
	"github.com/abhisek/lessonquiz/internal/telegram"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireTelegram(); err != nil {
			return err
		}
		logger := cfg.NewLogger(os.Stdout)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		provider, llmCfg, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), logger)
		if err != nil {
			return fmt.Errorf("LLM provider not configured: %w", err)
		}
		logger.Info("LLM provider ready", "provider", llmCfg.Provider)

		genCfg := quizgen.DefaultConfig()
		genCfg.QuestionCount = cfg.QuestionCount
		genCfg.OptionCount = cfg.OptionCount
		gen := quizgen.New(provider, genCfg, logger)

		api, err := telegram.NewAPI(cfg.TelegramToken)
		if err != nil {
			return err
		}
		username := cfg.BotUsername
		if username == "" {
			username = api.Self.UserName
		}
		transport := telegram.NewTransport(api)

		hub := dispatch.NewHub(dispatch.Deps{
			Lessons:   st,
			Generator: gen,
			Registry:  registry.New(),
			Transport: transport,
			Results:   st,
			Recovery:  session.NewRecoveryBuffer(cfg.RecoveryTTL, session.DefaultRecoveryMax),
			Reporter: &dispatch.OperatorReporter{
				Sender: transport,
				ChatID: cfg.OperatorChatID,
				Logger: logger,
			},
			Logger: logger,
		}, session.Options{
			QuestionDuration: cfg.QuestionDuration,
			TimeoutGrace:     cfg.TimeoutGrace,
			FeedbackDelay:    cfg.FeedbackDelay,
		})

		bot := telegram.NewBot(api, hub, st, telegram.Options{
			Username:       username,
			OperatorChatID: cfg.OperatorChatID,
			Logger:         logger,
		})

		err = bot.Run(ctx)
		logger.Info("shutting down", "active_sessions", hub.Len())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if serr := hub.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("sessions did not stop in time", "error", serr)
		}
		if pending := hub.PendingRecovery(); len(pending) > 0 {
			logger.Error("unsaved results lost on shutdown", "count", len(pending))
		}

		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
