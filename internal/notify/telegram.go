package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram delivers notifications to a Telegram chat. The destination is
// the chat id as a decimal string. Useful for guardians who follow along
// without the mobile app.
type Telegram struct {
	bot *tgbotapi.BotAPI
}

// NewTelegram creates the Telegram driver from a bot token.
func NewTelegram(token string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	return &Telegram{bot: bot}, nil
}

// Send posts the title and body as a single message to the chat.
func (t *Telegram) Send(_ context.Context, destination, title, body string) error {
	chatID, err := strconv.ParseInt(destination, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram destination %q: %w", destination, err)
	}
	_, err = t.bot.Send(tgbotapi.NewMessage(chatID, title+"\n"+body))
	return err
}
