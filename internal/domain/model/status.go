package model

import (
	"fmt"
	"time"
)

// JobStatus is the lifecycle vocabulary shared by every poller.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusStarting  JobStatus = "starting"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
	JobStatusTimedOut  JobStatus = "timed_out"
)

// IsTerminal reports whether no further transition can happen from s.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusCanceled, JobStatusTimedOut:
		return true
	}
	return false
}

func (s JobStatus) String() string { return string(s) }

// ProgressReport is a point-in-time view of one job, handed to the caller's observer.
// Reports are ephemeral and never persisted.
type ProgressReport struct {
	JobID       string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Percentage  int       `json:"percentage"`
	StatusLabel string    `json:"status_label"`

	Elapsed time.Duration `json:"elapsed"`
	// EstimatedRemaining is meaningful only when HasEstimate is set.
	EstimatedRemaining time.Duration `json:"estimated_remaining,omitempty"`
	HasEstimate        bool          `json:"has_estimate"`

	// ResultToken carries the remote asset id once it is known.
	ResultToken string `json:"result_token,omitempty"`
}

// RemainingText renders the remaining-time estimate, or "unknown".
func (r ProgressReport) RemainingText() string {
	if !r.HasEstimate {
		return "unknown"
	}
	return r.EstimatedRemaining.Round(time.Second).String()
}

func (r ProgressReport) String() string {
	return fmt.Sprintf("%3d%% %s (elapsed %s, remaining %s)",
		r.Percentage, r.StatusLabel, r.Elapsed.Round(time.Second), r.RemainingText())
}
