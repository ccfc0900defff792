package notify

import (
	"context"

	"github.com/rs/zerolog"

	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier only logs outcomes.
type NoopNotifier struct {
	logger zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger.With().Str("component", "NoopNotifier").Logger()}
}

func (n *NoopNotifier) NotifyScheduledUpload(_ context.Context, item model.ScheduledUploadItem) error {
	n.logger.Info().Str("item_id", item.ID).Str("status", string(item.Status)).Str("url", item.UploadedURL).Msg("scheduled upload finished")
	return nil
}
