package repository

import (
	"context"

	"ai-video-orchestrator/internal/domain/model"
)

// ScheduledUploadQueue holds waiting scheduled uploads in arrival order.
// Implementations must be safe for concurrent use.
type ScheduledUploadQueue interface {
	// Enqueue appends an item at the back.
	Enqueue(ctx context.Context, item *model.ScheduledUploadItem) error
	// DrainAll atomically removes and returns every queued item, front first.
	DrainAll(ctx context.Context) ([]*model.ScheduledUploadItem, error)
	// List returns a snapshot without removing anything.
	List(ctx context.Context) ([]*model.ScheduledUploadItem, error)
	Count(ctx context.Context) (int, error)
}
