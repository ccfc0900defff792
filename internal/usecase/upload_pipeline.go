// File: internal/usecase/upload_pipeline.go
package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/adapter"
	"ai-video-orchestrator/internal/infra/logging"
	"ai-video-orchestrator/internal/infra/metrics"
)

const (
	uploadedPercent = 95

	LabelUploadComplete    = "Upload complete"
	LabelUploadUnconfirmed = "Upload complete (processing unconfirmed)"
)

// UploadConfig tunes the pipeline. Zero values fall back to defaults.
type UploadConfig struct {
	MaxFileBytes    int64
	ChunkMultiplier int
}

// UploadResult is the terminal outcome of a successful upload.
type UploadResult struct {
	JobID               string `json:"job_id"`
	VideoID             string `json:"video_id"`
	URL                 string `json:"url"`
	ProcessingConfirmed bool   `json:"processing_confirmed"`
	StatusLabel         string `json:"status_label"`
}

// Uploader is what the scheduled dispatcher and the application facade call.
type Uploader interface {
	Upload(ctx context.Context, job *model.UploadJob, onProgress ProgressFunc) (*UploadResult, error)
}

var _ Uploader = (*UploadPipeline)(nil)

// UploadPipeline validates a local file, drives the chunked transfer and then
// waits for host-side processing.
type UploadPipeline struct {
	host       adapter.VideoHost
	account    *AccountContext
	processing *ProcessingPoller
	estimators EstimatorFactory
	clock      Clock
	cfg        UploadConfig
	log        *zerolog.Logger
}

func NewUploadPipeline(
	host adapter.VideoHost,
	account *AccountContext,
	processing *ProcessingPoller,
	estimators EstimatorFactory,
	clock Clock,
	cfg UploadConfig,
	logger *zerolog.Logger,
) *UploadPipeline {
	if clock == nil {
		clock = SystemClock{}
	}
	if estimators == nil {
		estimators = SimulatedFactory(0, 0, 0)
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultMaxUploadBytes
	}
	if cfg.ChunkMultiplier <= 0 {
		cfg.ChunkMultiplier = 4
	}
	l := logger.With().Str("component", "upload_pipeline").Str("host", host.Name()).Logger()
	return &UploadPipeline{
		host:       host,
		account:    account,
		processing: processing,
		estimators: estimators,
		clock:      clock,
		cfg:        cfg,
		log:        &l,
	}
}

// Upload runs one upload to completion. Failures wrap ErrNotAuthenticated, ErrValidation,
// ErrUploadFailure or ErrRemoteFailure. An unconfirmed processing wait is not a failure.
func (p *UploadPipeline) Upload(ctx context.Context, job *model.UploadJob, onProgress ProgressFunc) (*UploadResult, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	log := logging.With(logging.WithJobID(ctx, job.ID), p.log)
	defer logging.TraceDuration(log, "UploadPipeline.Upload")()
	rep := newJobReporter(job.ID, p.clock, onProgress)

	if !p.account.IsAuthenticated() {
		metrics.IncUpload(p.host.Name(), "auth")
		return nil, fmt.Errorf("%w: sign in before uploading", domain.ErrNotAuthenticated)
	}
	size, err := ValidateUploadFile(job.SourcePath, p.cfg.MaxFileBytes)
	if err != nil {
		metrics.IncUpload(p.host.Name(), "validation")
		return nil, err
	}
	job.Validated = true
	in := p.uploadInput(job, size, log)

	session, release, err := p.account.Acquire(ctx)
	if err != nil {
		metrics.IncUpload(p.host.Name(), "auth")
		return nil, err
	}
	defer release()

	f, err := os.Open(job.SourcePath)
	if err != nil {
		metrics.IncUpload(p.host.Name(), "upload_failure")
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrUploadFailure, job.SourcePath, err)
	}
	defer f.Close()

	rep.emit(model.ProgressReport{Status: model.JobStatusRunning, Percentage: 0, StatusLabel: "Uploading"})
	videoID, err := p.transfer(ctx, session, in, f, rep)
	if err != nil {
		metrics.IncUpload(p.host.Name(), "upload_failure")
		log.Error().Err(err).Msg("transfer failed")
		return nil, err
	}
	log.Info().Str("video_id", videoID).Int64("bytes", size).Msg("transfer complete")

	rep.emit(model.ProgressReport{
		Status:      model.JobStatusRunning,
		Percentage:  uploadedPercent,
		StatusLabel: "Uploaded, waiting for processing",
		ResultToken: videoID,
	})
	ready, err := p.processing.wait(ctx, session, videoID, rep)
	if err != nil {
		metrics.IncUpload(p.host.Name(), domain.ErrorKind(err))
		return nil, err
	}

	res := &UploadResult{
		JobID:               job.ID,
		VideoID:             videoID,
		URL:                 p.host.VideoURL(videoID),
		ProcessingConfirmed: ready,
		StatusLabel:         LabelUploadComplete,
	}
	if !ready {
		res.StatusLabel = LabelUploadUnconfirmed
		log.Warn().Err(domain.ErrProcessingIncomplete).Str("video_id", videoID).Msg("upload succeeded but processing is unconfirmed")
	}
	rep.emit(model.ProgressReport{
		Status:      model.JobStatusSucceeded,
		Percentage:  100,
		StatusLabel: res.StatusLabel,
		ResultToken: videoID,
	})
	metrics.IncUpload(p.host.Name(), "ok")
	return res, nil
}

// transfer streams the file with the simulated estimator running alongside.
func (p *UploadPipeline) transfer(ctx context.Context, s *adapter.Session, in adapter.UploadInput, f *os.File, rep *jobReporter) (string, error) {
	est := p.estimators()
	est.Start(func(pct int) {
		rep.emit(model.ProgressReport{Status: model.JobStatusRunning, Percentage: pct, StatusLabel: "Uploading (estimated)"})
	})
	defer est.Stop()

	chunk := p.host.MinChunkSize() * p.cfg.ChunkMultiplier
	started := p.clock.Now()
	receipt, err := p.host.UploadVideo(ctx, s, in, f, chunk)
	est.Stop()
	metrics.ObserveUploadDuration(p.host.Name(), p.clock.Now().Sub(started))

	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUploadFailure, err)
	}
	if !strings.EqualFold(receipt.Status, adapter.UploadStatusCompleted) {
		return "", fmt.Errorf("%w: transfer ended with status %q", domain.ErrUploadFailure, receipt.Status)
	}
	if receipt.RemoteID == "" {
		return "", fmt.Errorf("%w: host reported completion without a video id", domain.ErrUploadFailure)
	}
	return receipt.RemoteID, nil
}

func (p *UploadPipeline) uploadInput(job *model.UploadJob, size int64, log *zerolog.Logger) adapter.UploadInput {
	tags, rejected := model.ParseTags(strings.Join(job.Metadata.Tags, ","))
	for _, t := range rejected {
		log.Warn().Int("length", len([]rune(t))).Msg("tag dropped: longer than host limit")
	}
	title := strings.TrimSpace(job.Metadata.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(job.SourcePath), filepath.Ext(job.SourcePath))
	}
	return adapter.UploadInput{
		Title:       title,
		Description: job.Metadata.Description,
		Tags:        tags,
		Visibility:  string(model.ParseVisibility(job.Metadata.Visibility)),
		MadeForKids: false,
		FileName:    filepath.Base(job.SourcePath),
		SizeBytes:   size,
	}
}
