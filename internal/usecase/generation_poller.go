// File: internal/usecase/generation_poller.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/adapter"
	"ai-video-orchestrator/internal/infra/metrics"
)

const (
	startingPercent    = 5
	runningMinPercent  = 10
	runningMaxPercent  = 90
	estimateAfterPolls = 5
)

// JobHandle identifies a submitted generation job.
type JobHandle struct {
	ID          string
	RemoteID    string
	Provider    string
	Request     model.GenerationRequest
	SubmittedAt time.Time
}

// GenerationPoller submits generation requests and waits for them to settle.
type GenerationPoller struct {
	provider adapter.GenerationProvider
	policy   PollPolicy
	clock    Clock
	log      *zerolog.Logger
}

func NewGenerationPoller(provider adapter.GenerationProvider, policy PollPolicy, clock Clock, logger *zerolog.Logger) *GenerationPoller {
	if clock == nil {
		clock = SystemClock{}
	}
	l := logger.With().Str("component", "generation_poller").Str("provider", provider.Name()).Logger()
	return &GenerationPoller{
		provider: provider,
		policy:   policy.WithDefaults(DefaultGenerationPolicy()),
		clock:    clock,
		log:      &l,
	}
}

// Limits exposes what the underlying provider accepts.
func (g *GenerationPoller) Limits() model.GenerationLimits { return g.provider.Limits() }

// Submit validates req against the provider limits and starts the remote job.
func (g *GenerationPoller) Submit(ctx context.Context, req model.GenerationRequest) (*JobHandle, error) {
	req.Normalize()
	if err := req.Validate(g.provider.Limits()); err != nil {
		return nil, err
	}
	remoteID, err := g.provider.Submit(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotAuthenticated) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: submit to %s: %v", domain.ErrRemoteFailure, g.provider.Name(), err)
	}
	if remoteID == "" {
		return nil, fmt.Errorf("%w: %s accepted the request without a job id", domain.ErrRemoteFailure, g.provider.Name())
	}
	h := &JobHandle{
		ID:          uuid.NewString(),
		RemoteID:    remoteID,
		Provider:    g.provider.Name(),
		Request:     req,
		SubmittedAt: g.clock.Now(),
	}
	g.log.Info().Str("job_id", h.ID).Str("remote_id", remoteID).Msg("generation submitted")
	return h, nil
}

// WaitForCompletion polls the remote job until it is terminal or the attempt ceiling is hit.
// It returns the succeeded job, or an error wrapping ErrRemoteFailure, ErrTimeout or ErrCanceled.
// Cancelling ctx only stops local waiting; the remote job is left alone.
func (g *GenerationPoller) WaitForCompletion(ctx context.Context, h *JobHandle, onProgress ProgressFunc) (*model.GenerationJob, error) {
	job := &model.GenerationJob{
		ID:          h.ID,
		RemoteID:    h.RemoteID,
		Provider:    h.Provider,
		Request:     h.Request,
		Status:      model.JobStatusPending,
		SubmittedAt: h.SubmittedAt,
	}
	rep := newJobReporter(h.ID, g.clock, onProgress)
	log := g.log.With().Str("job_id", h.ID).Str("remote_id", h.RemoteID).Logger()

	for attempt := 1; !g.policy.Exhausted(attempt); attempt++ {
		if err := ctx.Err(); err != nil {
			return g.cancel(job, rep, err)
		}

		state, err := g.provider.Status(ctx, h.RemoteID)
		switch {
		case err != nil && ctx.Err() != nil:
			return g.cancel(job, rep, ctx.Err())
		case err != nil:
			metrics.IncGenerationPollError(h.Provider)
			log.Warn().Err(err).Int("attempt", attempt).Msg("status poll failed; will retry")
		default:
			if done, err := g.observe(job, rep, state, attempt); done {
				metrics.ObserveGenerationAttempts(attempt)
				metrics.IncGenerationJob(h.Provider, job.Status.String())
				if err != nil {
					return nil, err
				}
				return job, nil
			}
		}

		if attempt == g.policy.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return g.cancel(job, rep, ctx.Err())
		case <-g.clock.After(g.policy.Interval(attempt)):
		}
	}

	job.Fail(model.JobStatusTimedOut, "generation did not finish in time", g.clock.Now())
	rep.emit(model.ProgressReport{Status: job.Status, Percentage: rep.Last(), StatusLabel: "Timed out"})
	metrics.ObserveGenerationAttempts(g.policy.MaxAttempts)
	metrics.IncGenerationJob(h.Provider, job.Status.String())
	log.Warn().Int("attempts", g.policy.MaxAttempts).Msg("generation timed out")
	return nil, fmt.Errorf("%w: %s job %s still not finished after %d polls",
		domain.ErrTimeout, h.Provider, h.RemoteID, g.policy.MaxAttempts)
}

// observe applies one remote state. done is true once the job is terminal.
func (g *GenerationPoller) observe(job *model.GenerationJob, rep *jobReporter, st adapter.RemoteJobState, attempt int) (bool, error) {
	now := g.clock.Now()
	switch st.Status {
	case model.JobStatusSucceeded:
		if st.Output == nil || (st.Output.ID == "" && st.Output.URI == "") {
			job.Fail(model.JobStatusFailed, "provider reported success without an output", now)
			rep.emit(model.ProgressReport{Status: job.Status, Percentage: rep.Last(), StatusLabel: "Failed"})
			return true, fmt.Errorf("%w: %s", domain.ErrRemoteFailure, job.Error)
		}
		job.Succeed(st.Output, now)
		rep.emit(model.ProgressReport{
			Status:      job.Status,
			Percentage:  100,
			StatusLabel: "Completed",
			ResultToken: st.Output.ID,
		})
		g.log.Info().Str("job_id", job.ID).Str("output_id", st.Output.ID).Int("attempts", attempt).Msg("generation succeeded")
		return true, nil

	case model.JobStatusFailed, model.JobStatusCanceled:
		msg := st.Error
		if msg == "" {
			msg = fmt.Sprintf("generation %s by provider", st.Status)
		}
		job.Fail(st.Status, msg, now)
		label := "Failed"
		if st.Status == model.JobStatusCanceled {
			label = "Canceled by provider"
		}
		rep.emit(model.ProgressReport{Status: job.Status, Percentage: rep.Last(), StatusLabel: label})
		g.log.Error().Str("job_id", job.ID).Str("raw_status", st.RawStatus).Str("reason", msg).Msg("generation failed")
		return true, fmt.Errorf("%w: %s", domain.ErrRemoteFailure, msg)

	case model.JobStatusStarting, model.JobStatusPending:
		job.Status = model.JobStatusStarting
		rep.emit(g.estimate(model.ProgressReport{Status: job.Status, Percentage: startingPercent, StatusLabel: "Starting"}, rep, attempt))

	default:
		job.Status = model.JobStatusRunning
		pct := runningMinPercent + (runningMaxPercent-runningMinPercent)*attempt/g.policy.MaxAttempts
		if pct > runningMaxPercent {
			pct = runningMaxPercent
		}
		rep.emit(g.estimate(model.ProgressReport{Status: job.Status, Percentage: pct, StatusLabel: "Generating"}, rep, attempt))
	}
	return false, nil
}

// estimate fills EstimatedRemaining once enough attempts have been observed.
func (g *GenerationPoller) estimate(r model.ProgressReport, rep *jobReporter, attempt int) model.ProgressReport {
	if attempt <= estimateAfterPolls {
		return r
	}
	perAttempt := rep.elapsed() / time.Duration(attempt)
	r.EstimatedRemaining = perAttempt * time.Duration(g.policy.MaxAttempts-attempt)
	r.HasEstimate = true
	return r
}

func (g *GenerationPoller) cancel(job *model.GenerationJob, rep *jobReporter, cause error) (*model.GenerationJob, error) {
	job.Fail(model.JobStatusCanceled, "canceled by caller", g.clock.Now())
	rep.emit(model.ProgressReport{Status: job.Status, Percentage: rep.Last(), StatusLabel: "Canceled"})
	metrics.IncGenerationJob(job.Provider, job.Status.String())
	g.log.Info().Str("job_id", job.ID).Msg("generation wait canceled; remote job left running")
	return nil, fmt.Errorf("%w: %v", domain.ErrCanceled, cause)
}

// Generate is Submit followed by WaitForCompletion.
func (g *GenerationPoller) Generate(ctx context.Context, req model.GenerationRequest, onProgress ProgressFunc) (*model.GenerationJob, error) {
	h, err := g.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return g.WaitForCompletion(ctx, h, onProgress)
}
