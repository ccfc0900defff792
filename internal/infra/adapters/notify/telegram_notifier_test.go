//go:build !integration

package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-video-orchestrator/internal/domain/model"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, f.err
}

func TestTelegramNotifier(t *testing.T) {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	item := model.ScheduledUploadItem{
		ID: "01J", Title: "launch", FileName: "launch.mp4", ScheduledTime: start,
		Status: model.ScheduledCompleted, UploadedURL: "https://youtu.be/x",
		StartTime: &start, CompletedTime: &end,
	}

	t.Run("should send the outcome to the configured chat", func(t *testing.T) {
		fs := &fakeSender{}
		n := &TelegramNotifier{bot: fs, chatID: 42}
		if err := n.NotifyScheduledUpload(context.Background(), item); err != nil {
			t.Fatal(err)
		}
		if len(fs.sent) != 1 || fs.sent[0].ChatID != 42 {
			t.Fatalf("unexpected sends %+v", fs.sent)
		}
		text := fs.sent[0].Text
		for _, want := range []string{"completed", "launch", "https://youtu.be/x", "took: 1m30s"} {
			if !strings.Contains(text, want) {
				t.Errorf("message %q lacks %q", text, want)
			}
		}
	})

	t.Run("should include the failure reason", func(t *testing.T) {
		failed := item
		failed.Status = model.ScheduledFailed
		failed.ErrorMessage = "quota exceeded"
		if text := formatOutcome(failed); !strings.Contains(text, "failed") || !strings.Contains(text, "quota exceeded") {
			t.Fatalf("unexpected text %q", text)
		}
	})

	t.Run("should return send errors", func(t *testing.T) {
		n := &TelegramNotifier{bot: &fakeSender{err: errors.New("blocked")}, chatID: 1}
		if err := n.NotifyScheduledUpload(context.Background(), item); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("should require credentials", func(t *testing.T) {
		if _, err := NewTelegramNotifier("", 0); err == nil {
			t.Fatal("expected error")
		}
	})
}
