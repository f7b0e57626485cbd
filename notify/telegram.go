package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Telegram pushes notifications to a chat. Sends happen on their own
// goroutine so a slow Telegram API can never stall a trading decision;
// delivery failures are logged and dropped.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

func NewTelegram(token string, chatID int64, log zerolog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	return &Telegram{
		api:    api,
		chatID: chatID,
		log:    log.With().Str("component", "telegram").Logger(),
	}, nil
}

func icon(kind Kind) string {
	switch kind {
	case Success:
		return "✅"
	case Warning:
		return "⚠️"
	case Error:
		return "🚨"
	default:
		return "ℹ️"
	}
}

func (t *Telegram) Notify(kind Kind, title, detail string) {
	text := fmt.Sprintf("%s %s", icon(kind), title)
	if detail != "" {
		text += "\n" + detail
	}

	go func() {
		msg := tgbotapi.NewMessage(t.chatID, text)
		msg.ParseMode = "" // plain text, titles may contain user symbols
		if _, err := t.api.Send(msg); err != nil {
			t.log.Warn().Err(err).Str("title", title).Msg("telegram send failed")
		}
	}()
}
