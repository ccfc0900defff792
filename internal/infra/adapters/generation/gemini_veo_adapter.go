package generation

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"google.golang.org/genai"

	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.GenerationProvider = (*VeoAdapter)(nil)

// VeoAdapter drives Veo long-running video operations through the Gemini API.
type VeoAdapter struct {
	client     *genai.Client
	model      string
	refMaxSide int
}

func NewVeoAdapter(ctx context.Context, apiKey, model string, refMaxSide int) (*VeoAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini: empty api key", domain.ErrValidation)
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &VeoAdapter{client: c, model: model, refMaxSide: refMaxSide}, nil
}

func (a *VeoAdapter) Name() string { return "gemini" }

func (a *VeoAdapter) Limits() model.GenerationLimits {
	return model.GenerationLimits{
		MinDurationSeconds: 5,
		MaxDurationSeconds: 8,
		Resolutions:        []string{"720p", "1080p"},
		AspectRatios:       []string{"16:9", "9:16"},
		MinFPS:             24,
		MaxFPS:             24,
	}
}

func (a *VeoAdapter) Submit(ctx context.Context, req model.GenerationRequest) (string, error) {
	cfg := &genai.GenerateVideosConfig{
		NumberOfVideos:  1,
		AspectRatio:     req.AspectRatio,
		Resolution:      req.Resolution,
		NegativePrompt:  req.NegativePrompt,
		DurationSeconds: genai.Ptr(int32(req.DurationSeconds)),
	}
	if req.Seed != nil {
		cfg.Seed = genai.Ptr(int32(*req.Seed))
	}

	var image *genai.Image
	if req.ReferenceImagePath != "" {
		b, mime, err := LoadReferenceImage(req.ReferenceImagePath, a.refMaxSide)
		if err != nil {
			return "", err
		}
		image = &genai.Image{ImageBytes: b, MIMEType: mime}
	}

	op, err := a.client.Models.GenerateVideos(ctx, a.model, req.Prompt, image, cfg)
	if err != nil {
		return "", err
	}
	if op == nil || op.Name == "" {
		return "", errors.New("gemini: operation without name")
	}
	return op.Name, nil
}

func (a *VeoAdapter) Status(ctx context.Context, remoteID string) (adapter.RemoteJobState, error) {
	op, err := a.client.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: remoteID}, nil)
	if err != nil {
		return adapter.RemoteJobState{}, err
	}
	return veoState(op), nil
}

// veoState maps a long-running operation onto the shared status vocabulary.
func veoState(op *genai.GenerateVideosOperation) adapter.RemoteJobState {
	if op == nil {
		return adapter.RemoteJobState{Status: model.JobStatusPending, RawStatus: "unknown"}
	}
	if !op.Done {
		if len(op.Metadata) == 0 {
			return adapter.RemoteJobState{Status: model.JobStatusStarting, RawStatus: "starting"}
		}
		return adapter.RemoteJobState{Status: model.JobStatusRunning, RawStatus: "running"}
	}
	if op.Error != nil {
		msg, _ := op.Error["message"].(string)
		return adapter.RemoteJobState{Status: model.JobStatusFailed, Error: msg, RawStatus: "error"}
	}
	resp := op.Response
	if resp == nil || len(resp.GeneratedVideos) == 0 || resp.GeneratedVideos[0].Video == nil {
		msg := "no video returned"
		if resp != nil && len(resp.RAIMediaFilteredReasons) > 0 {
			msg = "filtered: " + strings.Join(resp.RAIMediaFilteredReasons, "; ")
		}
		return adapter.RemoteJobState{Status: model.JobStatusFailed, Error: msg, RawStatus: "done"}
	}
	v := resp.GeneratedVideos[0].Video
	return adapter.RemoteJobState{
		Status: model.JobStatusSucceeded,
		Output: &model.OutputAsset{
			ID:       path.Base(op.Name),
			URI:      v.URI,
			MIMEType: v.MIMEType,
		},
		RawStatus: "done",
	}
}
