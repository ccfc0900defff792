package videohost

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-video-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.VideoHost = (*NoopHost)(nil)

// NoopHost drains the body and reports every upload as processed.
type NoopHost struct {
	logger zerolog.Logger
}

func NewNoopHost(logger *zerolog.Logger) *NoopHost {
	return &NoopHost{logger: logger.With().Str("component", "NoopHost").Logger()}
}

func (h *NoopHost) Name() string { return "noop" }

func (h *NoopHost) MinChunkSize() int { return 256 << 10 }

func (h *NoopHost) UploadVideo(ctx context.Context, _ *adapter.Session, in adapter.UploadInput, body io.Reader, _ int) (adapter.UploadReceipt, error) {
	n, err := io.Copy(io.Discard, body)
	if err != nil {
		return adapter.UploadReceipt{}, err
	}
	id := uuid.NewString()
	h.logger.Info().Str("remote_id", id).Str("title", in.Title).Int64("bytes", n).Msg("noop upload")
	return adapter.UploadReceipt{Status: adapter.UploadStatusCompleted, RemoteID: id}, ctx.Err()
}

func (h *NoopHost) ProcessingStatus(ctx context.Context, _ *adapter.Session, _ string) (string, error) {
	return "processed", ctx.Err()
}

func (h *NoopHost) VideoURL(remoteID string) string { return "noop://videos/" + remoteID }
