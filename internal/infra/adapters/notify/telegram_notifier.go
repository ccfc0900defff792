package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*TelegramNotifier)(nil)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts scheduled upload outcomes to one chat.
type TelegramNotifier struct {
	bot    sender
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("telegram notifier: token and chat id are required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) NotifyScheduledUpload(ctx context.Context, item model.ScheduledUploadItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, formatOutcome(item))
	msg.DisableWebPagePreview = true
	_, err := n.bot.Send(msg)
	return err
}

func formatOutcome(it model.ScheduledUploadItem) string {
	var b strings.Builder
	switch it.Status {
	case model.ScheduledCompleted:
		fmt.Fprintf(&b, "✅ Scheduled upload completed: %s\n%s", it.Title, it.UploadedURL)
	case model.ScheduledFailed:
		fmt.Fprintf(&b, "❌ Scheduled upload failed: %s\n%s", it.Title, it.ErrorMessage)
	default:
		fmt.Fprintf(&b, "Scheduled upload %s: %s", it.Status, it.Title)
	}
	fmt.Fprintf(&b, "\nfile: %s\ndue: %s", it.FileName, it.ScheduledTime.Format(time.RFC3339))
	if it.StartTime != nil && it.CompletedTime != nil {
		fmt.Fprintf(&b, "\ntook: %s", it.CompletedTime.Sub(*it.StartTime).Round(time.Second))
	}
	return b.String()
}
