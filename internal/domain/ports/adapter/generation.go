package adapter

import (
	"context"

	"ai-video-orchestrator/internal/domain/model"
)

// RemoteJobState is one observation of a remote generation job.
type RemoteJobState struct {
	Status model.JobStatus
	Output *model.OutputAsset
	// Error is the provider's failure message, if any.
	Error string
	// RawStatus is the provider's own status string, kept for logs.
	RawStatus string
}

// GenerationProvider is the port for remote video generation services.
type GenerationProvider interface {
	Name() string
	Limits() model.GenerationLimits

	// Submit starts a remote job and returns the provider-assigned id.
	Submit(ctx context.Context, req model.GenerationRequest) (string, error)

	// Status fetches the current state of a remote job. Network failures are returned as errors;
	// the caller decides whether they are transient.
	Status(ctx context.Context, remoteID string) (RemoteJobState, error)
}
