package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/lessonquiz/internal/config"
	"github.com/abhisek/lessonquiz/internal/store"
)

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lessonquiz",
	Short: "Turn lessons into timed quizzes",
	Long: "lessonquiz turns a teacher's lesson text into a short multiple-choice quiz,\n" +
		"runs it for students over Telegram or in the terminal, and records their scores.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		c, err := config.Load(files...)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides LESSONQUIZ_DB env var)")
	rootCmd.PersistentFlags().String("env-file", "", "Load environment variables from this file (default .env)")

	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then LESSONQUIZ_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// commandLogger returns the configured logger writing to w, or a discarding
// logger before configuration is loaded.
func commandLogger(w io.Writer) *slog.Logger {
	if cfg == nil {
		return slog.New(slog.DiscardHandler)
	}
	return cfg.NewLogger(w)
}
