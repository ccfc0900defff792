package model

import (
	"fmt"
	"os"
	"strings"
	"time"

	"ai-video-orchestrator/internal/domain"
)

// GenerationRequest holds the immutable parameters of a remote video generation.
type GenerationRequest struct {
	Prompt             string `json:"prompt"`
	NegativePrompt     string `json:"negative_prompt,omitempty"`
	DurationSeconds    int    `json:"duration_seconds"`
	Resolution         string `json:"resolution"`
	AspectRatio        string `json:"aspect_ratio,omitempty"`
	FPS                int    `json:"fps,omitempty"`
	Seed               *int64 `json:"seed,omitempty"`
	ReferenceImagePath string `json:"reference_image_path,omitempty"`
}

// GenerationLimits describes what a provider accepts.
type GenerationLimits struct {
	MinDurationSeconds int
	MaxDurationSeconds int
	Resolutions        []string
	AspectRatios       []string
	MinFPS             int
	MaxFPS             int
}

// DefaultGenerationLimits is used by providers that publish no tighter bounds.
func DefaultGenerationLimits() GenerationLimits {
	return GenerationLimits{
		MinDurationSeconds: 1,
		MaxDurationSeconds: 10,
		Resolutions:        []string{"480p", "720p", "1080p"},
		AspectRatios:       []string{"16:9", "9:16", "1:1"},
		MinFPS:             1,
		MaxFPS:             60,
	}
}

const (
	defaultAspectRatio = "16:9"
	defaultFPS         = 24
)

// Normalize trims the free-text fields and fills empty optional parameters.
func (r *GenerationRequest) Normalize() {
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.NegativePrompt = strings.TrimSpace(r.NegativePrompt)
	r.Resolution = strings.ToLower(strings.TrimSpace(r.Resolution))
	r.AspectRatio = strings.TrimSpace(r.AspectRatio)
	if r.AspectRatio == "" {
		r.AspectRatio = defaultAspectRatio
	}
	if r.FPS == 0 {
		r.FPS = defaultFPS
	}
}

// Validate checks the request against provider limits. Errors wrap domain.ErrValidation.
func (r GenerationRequest) Validate(l GenerationLimits) error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", domain.ErrValidation)
	}
	if r.DurationSeconds < l.MinDurationSeconds || r.DurationSeconds > l.MaxDurationSeconds {
		return fmt.Errorf("%w: duration %ds outside %d-%ds", domain.ErrValidation,
			r.DurationSeconds, l.MinDurationSeconds, l.MaxDurationSeconds)
	}
	if !containsFold(l.Resolutions, r.Resolution) {
		return fmt.Errorf("%w: resolution %q not in %v", domain.ErrValidation, r.Resolution, l.Resolutions)
	}
	if r.AspectRatio != "" && len(l.AspectRatios) > 0 && !containsFold(l.AspectRatios, r.AspectRatio) {
		return fmt.Errorf("%w: aspect ratio %q not in %v", domain.ErrValidation, r.AspectRatio, l.AspectRatios)
	}
	if r.FPS != 0 && (r.FPS < l.MinFPS || r.FPS > l.MaxFPS) {
		return fmt.Errorf("%w: fps %d outside %d-%d", domain.ErrValidation, r.FPS, l.MinFPS, l.MaxFPS)
	}
	if r.ReferenceImagePath != "" {
		if _, err := os.Stat(r.ReferenceImagePath); err != nil {
			return fmt.Errorf("%w: reference image: %v", domain.ErrValidation, err)
		}
	}
	return nil
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// OutputAsset describes the remote artifact a succeeded generation produced.
type OutputAsset struct {
	ID       string `json:"id"`
	URI      string `json:"uri"`
	MIMEType string `json:"mime_type,omitempty"`
}

// GenerationJob is owned by the generation poller for its lifetime.
// For a terminal job only one of Output and Error is meaningful.
type GenerationJob struct {
	ID          string            `json:"id"`
	RemoteID    string            `json:"remote_id"`
	Provider    string            `json:"provider"`
	Request     GenerationRequest `json:"request"`
	Status      JobStatus         `json:"status"`
	Output      *OutputAsset      `json:"output,omitempty"`
	Error       string            `json:"error,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
	FinishedAt  time.Time         `json:"finished_at,omitempty"`
}

// Succeed moves the job to Succeeded with its output, clearing any error.
func (j *GenerationJob) Succeed(out *OutputAsset, at time.Time) {
	j.Status = JobStatusSucceeded
	j.Output = out
	j.Error = ""
	j.FinishedAt = at
}

// Fail moves the job to a non-success terminal status, clearing any output.
func (j *GenerationJob) Fail(status JobStatus, msg string, at time.Time) {
	j.Status = status
	j.Output = nil
	j.Error = msg
	j.FinishedAt = at
}
