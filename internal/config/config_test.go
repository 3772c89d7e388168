package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVars = []string{
	"TELEGRAM_BOT_TOKEN", "LESSONQUIZ_BOT_USERNAME", "LESSONQUIZ_DB", "LESSONQUIZ_LOG_FORMAT",
	"LESSONQUIZ_OPERATOR_CHAT_ID", "LESSONQUIZ_QUESTION_DURATION", "LESSONQUIZ_TIMEOUT_GRACE",
	"LESSONQUIZ_FEEDBACK_DELAY", "LESSONQUIZ_RECOVERY_TTL", "LESSONQUIZ_QUESTION_COUNT",
	"LESSONQUIZ_OPTION_COUNT", "LESSONQUIZ_LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.QuestionDuration)
	assert.Equal(t, time.Duration(0), cfg.TimeoutGrace)
	assert.Equal(t, time.Second, cfg.FeedbackDelay)
	assert.Equal(t, 3, cfg.QuestionCount)
	assert.Equal(t, 4, cfg.OptionCount)
	assert.Equal(t, 24*time.Hour, cfg.RecoveryTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Error(t, cfg.RequireTelegram())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("LESSONQUIZ_BOT_USERNAME", "@lesson_quiz_bot")
	t.Setenv("LESSONQUIZ_OPERATOR_CHAT_ID", "-100200300")
	t.Setenv("LESSONQUIZ_QUESTION_DURATION", "30s")
	t.Setenv("LESSONQUIZ_TIMEOUT_GRACE", "2s")
	t.Setenv("LESSONQUIZ_QUESTION_COUNT", "5")
	t.Setenv("LESSONQUIZ_LOG_LEVEL", "debug")
	t.Setenv("LESSONQUIZ_LOG_FORMAT", "TEXT")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.NoError(t, cfg.RequireTelegram())
	assert.Equal(t, "lesson_quiz_bot", cfg.BotUsername)
	assert.Equal(t, int64(-100200300), cfg.OperatorChatID)
	assert.Equal(t, 30*time.Second, cfg.QuestionDuration)
	assert.Equal(t, 2*time.Second, cfg.TimeoutGrace)
	assert.Equal(t, 5, cfg.QuestionCount)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("LESSONQUIZ_QUESTION_DURATION", "fifteen")
	t.Setenv("LESSONQUIZ_OPERATOR_CHAT_ID", "ops")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LESSONQUIZ_QUESTION_DURATION")
	assert.Contains(t, err.Error(), "LESSONQUIZ_OPERATOR_CHAT_ID")
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"duration below poll minimum", func(c *Config) { c.QuestionDuration = 4 * time.Second }},
		{"duration above poll maximum", func(c *Config) { c.QuestionDuration = 11 * time.Minute }},
		{"negative grace", func(c *Config) { c.TimeoutGrace = -time.Second }},
		{"no questions", func(c *Config) { c.QuestionCount = 0 }},
		{"one option", func(c *Config) { c.OptionCount = 1 }},
		{"eleven options", func(c *Config) { c.OptionCount = 11 }},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even to "".
	os.Unsetenv("LESSONQUIZ_QUESTION_COUNT")
	os.Unsetenv("TELEGRAM_BOT_TOKEN")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TELEGRAM_BOT_TOKEN=from-file\nLESSONQUIZ_QUESTION_COUNT=7\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("TELEGRAM_BOT_TOKEN")
		os.Unsetenv("LESSONQUIZ_QUESTION_COUNT")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.TelegramToken)
	assert.Equal(t, 7, cfg.QuestionCount)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := Defaults()
	var buf bytes.Buffer
	cfg.NewLogger(&buf).Info("hello", "session_id", "s1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "s1", line["session_id"])

	buf.Reset()
	cfg.LogFormat = "text"
	cfg.NewLogger(&buf).Debug("hidden")
	assert.Empty(t, buf.String(), "debug is below the default level")
}
