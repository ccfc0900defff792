package adapter

import (
	"context"

	"ai-video-orchestrator/internal/domain/model"
)

// Notifier delivers terminal scheduled-upload outcomes to an operator channel.
type Notifier interface {
	NotifyScheduledUpload(ctx context.Context, item model.ScheduledUploadItem) error
}
