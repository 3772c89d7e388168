package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/lessonquiz/internal/console"
	"github.com/abhisek/lessonquiz/internal/llm"
	"github.com/abhisek/lessonquiz/internal/quiz"
	"github.com/abhisek/lessonquiz/internal/quizgen"
	"github.com/abhisek/lessonquiz/internal/registry"
	"github.com/abhisek/lessonquiz/internal/session"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Take a quiz in the terminal",
	Long: "Take a quiz in the terminal. With --file the lesson text is read from a file\n" +
		"and saved as a new lesson; with --lesson a stored lesson is used. Without\n" +
		"either you are asked for a lesson id.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		file, _ := cmd.Flags().GetString("file")
		lessonID, _ := cmd.Flags().GetString("lesson")
		logPath, _ := cmd.Flags().GetString("log")
		if file != "" && lessonID != "" {
			return fmt.Errorf("use either --file or --lesson, not both")
		}

		// The terminal belongs to the quiz; logs go to a file if asked.
		var logOut io.Writer = io.Discard
		if logPath != "" {
			f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
			logOut = f
		}
		logger := commandLogger(logOut)

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if file != "" {
			text, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read lesson: %w", err)
			}
			lesson, err := st.CreateLesson(ctx, console.LocalLearnerID, string(text))
			if err != nil {
				return err
			}
			lessonID = lesson.ID
			fmt.Fprintf(os.Stderr, "Saved lesson %s\n", lesson.ID)
		}

		provider, _, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), logger)
		if err != nil {
			return fmt.Errorf("LLM provider not configured: %w", err)
		}
		genCfg := quizgen.DefaultConfig()
		genCfg.QuestionCount = cfg.QuestionCount
		genCfg.OptionCount = cfg.OptionCount
		gen := quizgen.New(provider, genCfg, logger)

		prepare := func(ctx context.Context, ref string) (quiz.QuestionSet, string, error) {
			lesson, err := st.GetLesson(ctx, ref)
			if err != nil {
				return quiz.QuestionSet{}, "", err
			}
			set, err := gen.Generate(llm.WithLesson(ctx, lesson.ID), lesson.Text)
			return set, lesson.ID, err
		}

		res, err := console.Play(ctx, console.PlayConfig{
			LessonRef: lessonID,
			Prepare:   prepare,
			Deps: session.Deps{
				Registry: registry.New(),
				Results:  st,
				Logger:   logger,
			},
			Options: session.Options{
				QuestionDuration: cfg.QuestionDuration,
				TimeoutGrace:     cfg.TimeoutGrace,
				FeedbackDelay:    cfg.FeedbackDelay,
			},
		})
		if err != nil {
			return err
		}
		if res.Outcome == session.OutcomeFinished {
			fmt.Fprintf(cmd.OutOrStdout(), "Score: %d/%d (%d%%)\n", res.CorrectCount, res.TotalQuestions, res.ScorePct)
		}
		return nil
	},
}

func init() {
	playCmd.Flags().StringP("file", "f", "", "Read the lesson text from this file")
	playCmd.Flags().StringP("lesson", "l", "", "Use a stored lesson by id")
	playCmd.Flags().String("log", "", "Append logs to this file")
}

