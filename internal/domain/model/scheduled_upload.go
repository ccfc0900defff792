package model

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"ai-video-orchestrator/internal/domain"
)

type ScheduledStatus string

const (
	ScheduledWaiting   ScheduledStatus = "waiting"
	ScheduledUploading ScheduledStatus = "uploading"
	ScheduledCompleted ScheduledStatus = "completed"
	ScheduledFailed    ScheduledStatus = "failed"
)

var scheduledTransitions = map[ScheduledStatus]map[ScheduledStatus]bool{
	ScheduledWaiting:   {ScheduledUploading: true},
	ScheduledUploading: {ScheduledCompleted: true, ScheduledFailed: true},
	ScheduledCompleted: {},
	ScheduledFailed:    {},
}

// IsTerminal reports whether s is Completed or Failed.
func (s ScheduledStatus) IsTerminal() bool {
	return s == ScheduledCompleted || s == ScheduledFailed
}

// ScheduledUploadItem is an upload deferred to a wall-clock time.
type ScheduledUploadItem struct {
	ID            string           `json:"id"`
	FileName      string           `json:"file_name"`
	FilePath      string           `json:"file_path"`
	ScheduledTime time.Time        `json:"scheduled_time"`
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	Tags          string           `json:"tags,omitempty"`
	Visibility    string           `json:"visibility,omitempty"`
	Edits         EditInstructions `json:"edits,omitempty"`

	Status        ScheduledStatus `json:"status"`
	UploadedURL   string          `json:"uploaded_url,omitempty"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	StartTime     *time.Time      `json:"start_time,omitempty"`
	CompletedTime *time.Time      `json:"completed_time,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewScheduledUploadID returns a time-ordered identifier.
func NewScheduledUploadID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), rand.Reader).String()
}

// Validate checks the caller-supplied fields of a new item.
func (it *ScheduledUploadItem) Validate() error {
	if strings.TrimSpace(it.FilePath) == "" {
		return fmt.Errorf("%w: file path is required", domain.ErrValidation)
	}
	if strings.TrimSpace(it.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if it.ScheduledTime.IsZero() {
		return fmt.Errorf("%w: scheduled time is required", domain.ErrValidation)
	}
	return nil
}

// IsDue reports whether a waiting item's due time has been reached.
func (it *ScheduledUploadItem) IsDue(now time.Time) bool {
	return it.Status == ScheduledWaiting && !it.ScheduledTime.After(now)
}

func (it *ScheduledUploadItem) transition(to ScheduledStatus) error {
	if !scheduledTransitions[it.Status][to] {
		return fmt.Errorf("%w: scheduled upload %s cannot move %q -> %q", domain.ErrInvalidArgument, it.ID, it.Status, to)
	}
	it.Status = to
	return nil
}

// MarkUploading records the start of the single upload attempt.
func (it *ScheduledUploadItem) MarkUploading(at time.Time) error {
	if err := it.transition(ScheduledUploading); err != nil {
		return err
	}
	it.StartTime = &at
	return nil
}

// MarkCompleted records a successful upload.
func (it *ScheduledUploadItem) MarkCompleted(url string, at time.Time) error {
	if err := it.transition(ScheduledCompleted); err != nil {
		return err
	}
	it.UploadedURL = url
	it.CompletedTime = &at
	return nil
}

// MarkFailed records a failed attempt. msg is never left empty.
func (it *ScheduledUploadItem) MarkFailed(msg string, at time.Time) error {
	if err := it.transition(ScheduledFailed); err != nil {
		return err
	}
	if strings.TrimSpace(msg) == "" {
		msg = "upload failed"
	}
	it.ErrorMessage = msg
	it.CompletedTime = &at
	return nil
}

// Clone returns a deep copy safe to hand out of a store.
func (it *ScheduledUploadItem) Clone() *ScheduledUploadItem {
	cp := *it
	if it.StartTime != nil {
		t := *it.StartTime
		cp.StartTime = &t
	}
	if it.CompletedTime != nil {
		t := *it.CompletedTime
		cp.CompletedTime = &t
	}
	return &cp
}
