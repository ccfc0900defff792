package generation

import (
	"context"

	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.GenerationProvider = (*limitedProvider)(nil)

type limitedProvider struct {
	inner adapter.GenerationProvider
	sem   chan struct{}
}

// NewLimitedProvider caps concurrent remote calls to maxConcurrent.
func NewLimitedProvider(inner adapter.GenerationProvider, maxConcurrent int) adapter.GenerationProvider {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedProvider{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedProvider) Name() string { return l.inner.Name() }

func (l *limitedProvider) Limits() model.GenerationLimits { return l.inner.Limits() }

func (l *limitedProvider) Submit(ctx context.Context, req model.GenerationRequest) (string, error) {
	if err := l.acquire(ctx); err != nil {
		return "", err
	}
	defer l.release()
	return l.inner.Submit(ctx, req)
}

func (l *limitedProvider) Status(ctx context.Context, remoteID string) (adapter.RemoteJobState, error) {
	if err := l.acquire(ctx); err != nil {
		return adapter.RemoteJobState{}, err
	}
	defer l.release()
	return l.inner.Status(ctx, remoteID)
}

func (l *limitedProvider) acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *limitedProvider) release() { <-l.sem }
