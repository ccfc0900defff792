package adapter

import (
	"context"

	"ai-video-orchestrator/internal/domain/model"
)

// MediaProcessor applies edit instructions to a local file and returns the output path.
type MediaProcessor interface {
	Process(ctx context.Context, inputPath string, edits model.EditInstructions) (string, error)
}
