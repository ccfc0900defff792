package usecase

import (
	"time"

	"ai-video-orchestrator/internal/domain/model"
)

// ProgressFunc observes progress reports. It is called synchronously from the job's goroutine.
type ProgressFunc func(model.ProgressReport)

// jobReporter is the single logical report stream of one job.
// It stamps job id and elapsed time, keeps the percentage non-decreasing
// and never lets a non-succeeded report reach 100. Failed, canceled and timed-out
// reports repeat the last percentage rather than dropping to 0, so a stream never goes backwards.
type jobReporter struct {
	jobID string
	start time.Time
	clock Clock
	fn    ProgressFunc
	last  int
}

func newJobReporter(jobID string, clock Clock, fn ProgressFunc) *jobReporter {
	return &jobReporter{jobID: jobID, start: clock.Now(), clock: clock, fn: fn}
}

func (r *jobReporter) elapsed() time.Duration {
	return r.clock.Now().Sub(r.start)
}

// Last returns the highest percentage emitted so far.
func (r *jobReporter) Last() int { return r.last }

func (r *jobReporter) emit(rep model.ProgressReport) {
	pct := rep.Percentage
	if pct < r.last {
		pct = r.last
	}
	if pct > 100 {
		pct = 100
	}
	if pct == 100 && rep.Status != model.JobStatusSucceeded {
		pct = 99
	}
	r.last = pct
	if r.fn == nil {
		return
	}
	rep.JobID = r.jobID
	rep.Percentage = pct
	rep.Elapsed = r.elapsed()
	r.fn(rep)
}
