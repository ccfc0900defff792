package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/adapter"
	"ai-video-orchestrator/internal/infra/metrics"
)

const (
	processingMinPercent = 96
	processingMaxPercent = 99
)

// ProcessingPoller waits, best effort, for a host to finish post-ingest processing.
type ProcessingPoller struct {
	host   adapter.VideoHost
	policy PollPolicy
	clock  Clock
	log    *zerolog.Logger
}

func NewProcessingPoller(host adapter.VideoHost, policy PollPolicy, clock Clock, logger *zerolog.Logger) *ProcessingPoller {
	if clock == nil {
		clock = SystemClock{}
	}
	l := logger.With().Str("component", "processing_poller").Str("host", host.Name()).Logger()
	return &ProcessingPoller{
		host:   host,
		policy: policy.WithDefaults(DefaultProcessingPolicy()),
		clock:  clock,
		log:    &l,
	}
}

// WaitForProcessing returns true once the host reports the asset ready.
// A false return with nil error means readiness could not be confirmed (timeout or cancellation).
// The only error is ErrRemoteFailure, for a host-side failed or rejected status.
func (p *ProcessingPoller) WaitForProcessing(ctx context.Context, s *adapter.Session, remoteID string, onProgress ProgressFunc) (bool, error) {
	return p.wait(ctx, s, remoteID, newJobReporter(remoteID, p.clock, onProgress))
}

func (p *ProcessingPoller) wait(ctx context.Context, s *adapter.Session, remoteID string, rep *jobReporter) (bool, error) {
	log := p.log.With().Str("remote_id", remoteID).Logger()

	for attempt := 1; !p.policy.Exhausted(attempt); attempt++ {
		if ctx.Err() != nil {
			log.Info().Msg("processing wait canceled")
			metrics.IncProcessingWait("canceled")
			return false, nil
		}

		status, err := p.host.ProcessingStatus(ctx, s, remoteID)
		if err != nil {
			if ctx.Err() != nil {
				metrics.IncProcessingWait("canceled")
				return false, nil
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("processing status poll failed; will retry")
		} else {
			switch strings.ToLower(strings.TrimSpace(status)) {
			case "processed", "uploaded":
				metrics.IncProcessingWait("confirmed")
				return true, nil
			case "failed", "rejected":
				metrics.IncProcessingWait("failed")
				return false, fmt.Errorf("%w: host %s reported %q for %s", domain.ErrRemoteFailure, p.host.Name(), status, remoteID)
			}
			rep.emit(model.ProgressReport{
				Status:      model.JobStatusRunning,
				Percentage:  processingPercent(attempt, p.policy.MaxAttempts),
				StatusLabel: "Processing on host",
				ResultToken: remoteID,
			})
		}

		if attempt == p.policy.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			metrics.IncProcessingWait("canceled")
			return false, nil
		case <-p.clock.After(p.policy.Interval(attempt)):
		}
	}

	log.Warn().Int("attempts", p.policy.MaxAttempts).Msg("processing not confirmed")
	metrics.IncProcessingWait("unconfirmed")
	return false, nil
}

func processingPercent(attempt, max int) int {
	if max <= 0 {
		return processingMinPercent
	}
	pct := processingMinPercent + attempt*(processingMaxPercent-processingMinPercent+1)/max
	if pct > processingMaxPercent {
		pct = processingMaxPercent
	}
	return pct
}
