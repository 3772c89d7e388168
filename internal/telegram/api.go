// Package telegram connects quiz sessions to a Telegram bot: questions go
// out as quiz polls and poll answers come back as answer events.
package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the subset of *tgbotapi.BotAPI the package uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// NewAPI connects to the Bot API with token. The returned client's Self
// field holds the bot's username.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	return api, nil
}

// DeepLink returns the link that opens the bot with /start <lessonID>.
func DeepLink(botUsername, lessonID string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, lessonID)
}
