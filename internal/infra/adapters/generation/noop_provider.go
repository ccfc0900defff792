package generation

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.GenerationProvider = (*NoopProvider)(nil)

// NoopProvider simulates a provider for local runs: each job reports starting once,
// running for RunningPolls polls, then succeeds.
type NoopProvider struct {
	RunningPolls int

	mu     sync.Mutex
	polls  map[string]int
	logger zerolog.Logger
}

func NewNoopProvider(logger *zerolog.Logger) *NoopProvider {
	return &NoopProvider{
		RunningPolls: 3,
		polls:        make(map[string]int),
		logger:       logger.With().Str("component", "NoopProvider").Logger(),
	}
}

func (n *NoopProvider) Name() string { return "noop" }

func (n *NoopProvider) Limits() model.GenerationLimits { return model.DefaultGenerationLimits() }

func (n *NoopProvider) Submit(ctx context.Context, req model.GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	n.mu.Lock()
	n.polls[id] = 0
	n.mu.Unlock()
	n.logger.Info().Str("remote_id", id).Str("prompt", req.Prompt).Msg("noop generation submitted")
	return id, nil
}

func (n *NoopProvider) Status(ctx context.Context, remoteID string) (adapter.RemoteJobState, error) {
	if err := ctx.Err(); err != nil {
		return adapter.RemoteJobState{}, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	seen, ok := n.polls[remoteID]
	if !ok {
		return adapter.RemoteJobState{Status: model.JobStatusFailed, Error: "unknown job", RawStatus: "failed"}, nil
	}
	n.polls[remoteID] = seen + 1
	switch {
	case seen == 0:
		return adapter.RemoteJobState{Status: model.JobStatusStarting, RawStatus: "starting"}, nil
	case seen <= n.RunningPolls:
		return adapter.RemoteJobState{Status: model.JobStatusRunning, RawStatus: "processing"}, nil
	default:
		delete(n.polls, remoteID)
		return adapter.RemoteJobState{
			Status:    model.JobStatusSucceeded,
			Output:    &model.OutputAsset{ID: remoteID, URI: "noop://" + remoteID, MIMEType: "video/mp4"},
			RawStatus: "succeeded",
		}, nil
	}
}
