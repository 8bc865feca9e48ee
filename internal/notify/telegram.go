package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wordslayer/internal/logger"
)

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts batch digests to one chat
type TelegramNotifier struct {
	bot    botSender
	chatID int64
	log    *logger.Logger
}

// NewTelegramNotifier connects to the bot API. It returns nil when the token
// or chat is not configured.
func NewTelegramNotifier(token string, chatID int64, log *logger.Logger) (*TelegramNotifier, error) {
	if token == "" || chatID == 0 {
		log.Info("Telegram notifications disabled: TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not configured")
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}
	log.Info("Telegram notifications enabled", "bot", bot.Self.UserName, "chat_id", chatID)
	return &TelegramNotifier{bot: bot, chatID: chatID, log: log}, nil
}

func (n *TelegramNotifier) NotifyBatch(ctx context.Context, event BatchEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, event.Body())
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message for %s: %w", event.BatchNo, err)
	}
	n.log.Debug("Batch message sent", "batch", event.BatchNo, "chat_id", n.chatID)
	return nil
}
