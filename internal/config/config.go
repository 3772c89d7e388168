package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the runtime configuration of the bot and the CLI.
type Config struct {
	// Telegram
	TelegramToken  string
	BotUsername    string // used to build lesson deep links; looked up when empty
	OperatorChatID int64  // receives failure reports; 0 disables them

	// Storage
	DBPath string // "" = store.DefaultDBPath

	// Quiz engine
	QuestionDuration time.Duration
	TimeoutGrace     time.Duration
	FeedbackDelay    time.Duration
	QuestionCount    int
	OptionCount      int
	RecoveryTTL      time.Duration

	// Logging
	LogLevel  slog.Level
	LogFormat string // "json" or "text"
}

// Defaults returns the configuration used when no variables are set.
func Defaults() Config {
	return Config{
		QuestionDuration: 15 * time.Second,
		TimeoutGrace:     0,
		FeedbackDelay:    time.Second,
		QuestionCount:    3,
		OptionCount:      4,
		RecoveryTTL:      24 * time.Hour,
		LogLevel:         slog.LevelInfo,
		LogFormat:        "json",
	}
}

// Load reads the given .env files (".env" when none are given) into the
// process environment, then builds a Config from it. Missing files are not
// an error; variables already set in the environment win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment.
func FromEnv() (*Config, error) {
	cfg := Defaults()
	var errs []error

	cfg.TelegramToken = getenvDefault("TELEGRAM_BOT_TOKEN", "")
	cfg.BotUsername = strings.TrimPrefix(getenvDefault("LESSONQUIZ_BOT_USERNAME", ""), "@")
	cfg.DBPath = getenvDefault("LESSONQUIZ_DB", "")
	cfg.LogFormat = strings.ToLower(getenvDefault("LESSONQUIZ_LOG_FORMAT", cfg.LogFormat))

	cfg.OperatorChatID = getInt64(&errs, "LESSONQUIZ_OPERATOR_CHAT_ID", 0)
	cfg.QuestionDuration = getDuration(&errs, "LESSONQUIZ_QUESTION_DURATION", cfg.QuestionDuration)
	cfg.TimeoutGrace = getDuration(&errs, "LESSONQUIZ_TIMEOUT_GRACE", cfg.TimeoutGrace)
	cfg.FeedbackDelay = getDuration(&errs, "LESSONQUIZ_FEEDBACK_DELAY", cfg.FeedbackDelay)
	cfg.RecoveryTTL = getDuration(&errs, "LESSONQUIZ_RECOVERY_TTL", cfg.RecoveryTTL)
	cfg.QuestionCount = int(getInt64(&errs, "LESSONQUIZ_QUESTION_COUNT", int64(cfg.QuestionCount)))
	cfg.OptionCount = int(getInt64(&errs, "LESSONQUIZ_OPTION_COUNT", int64(cfg.OptionCount)))

	if v := os.Getenv("LESSONQUIZ_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("LESSONQUIZ_LOG_LEVEL=%q: %w", v, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges. It does not require a Telegram token; see
// RequireTelegram.
func (c *Config) Validate() error {
	var errs []error
	if c.QuestionDuration < 5*time.Second || c.QuestionDuration > 600*time.Second {
		// Telegram quiz polls accept an open period of 5 to 600 seconds.
		errs = append(errs, fmt.Errorf("LESSONQUIZ_QUESTION_DURATION must be between 5s and 10m, got %s", c.QuestionDuration))
	}
	if c.TimeoutGrace < 0 {
		errs = append(errs, fmt.Errorf("LESSONQUIZ_TIMEOUT_GRACE must not be negative"))
	}
	if c.FeedbackDelay < 0 {
		errs = append(errs, fmt.Errorf("LESSONQUIZ_FEEDBACK_DELAY must not be negative"))
	}
	if c.QuestionCount < 1 || c.QuestionCount > 20 {
		errs = append(errs, fmt.Errorf("LESSONQUIZ_QUESTION_COUNT must be between 1 and 20, got %d", c.QuestionCount))
	}
	if c.OptionCount < 2 || c.OptionCount > 10 {
		// Telegram polls take 2 to 10 options.
		errs = append(errs, fmt.Errorf("LESSONQUIZ_OPTION_COUNT must be between 2 and 10, got %d", c.OptionCount))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("LESSONQUIZ_LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// RequireTelegram reports an error when the bot token is missing.
func (c *Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("config: required environment variable TELEGRAM_BOT_TOKEN is not set")
	}
	return nil
}

func getenvDefault(k, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return fallback
}

func getDuration(errs *[]error, k string, fallback time.Duration) time.Duration {
	v := getenvDefault(k, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s=%q is not a valid duration: %w", k, v, err))
		return fallback
	}
	return d
}

func getInt64(errs *[]error, k string, fallback int64) int64 {
	v := getenvDefault(k, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s=%q is not a valid integer: %w", k, v, err))
		return fallback
	}
	return n
}
