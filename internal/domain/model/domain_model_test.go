//go:build !integration

package model

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ai-video-orchestrator/internal/domain"
)

// --- JobStatus Tests ---

func TestJobStatus_IsTerminal(t *testing.T) {
	terminal := []JobStatus{JobStatusSucceeded, JobStatusFailed, JobStatusCanceled, JobStatusTimedOut}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []JobStatus{JobStatusPending, JobStatusStarting, JobStatusRunning} {
		if s.IsTerminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestProgressReport_RemainingText(t *testing.T) {
	r := ProgressReport{Percentage: 10}
	if r.RemainingText() != "unknown" {
		t.Fatalf("expected unknown, got %q", r.RemainingText())
	}
	r.HasEstimate = true
	r.EstimatedRemaining = 90 * time.Second
	if r.RemainingText() != "1m30s" {
		t.Fatalf("expected 1m30s, got %q", r.RemainingText())
	}
}

// --- GenerationRequest Tests ---

func TestGenerationRequest_Validate(t *testing.T) {
	limits := DefaultGenerationLimits()
	valid := func() GenerationRequest {
		r := GenerationRequest{Prompt: "sunset over mountains", DurationSeconds: 5, Resolution: "1080p"}
		r.Normalize()
		return r
	}

	t.Run("should accept a well-formed request", func(t *testing.T) {
		r := valid()
		if err := r.Validate(limits); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if r.AspectRatio != "16:9" || r.FPS != 24 {
			t.Errorf("expected defaults 16:9/24, got %s/%d", r.AspectRatio, r.FPS)
		}
	})

	cases := map[string]func(r *GenerationRequest){
		"blank prompt":       func(r *GenerationRequest) { r.Prompt = "   " },
		"duration too long":  func(r *GenerationRequest) { r.DurationSeconds = 60 },
		"duration zero":      func(r *GenerationRequest) { r.DurationSeconds = 0 },
		"unknown resolution": func(r *GenerationRequest) { r.Resolution = "8k" },
		"unknown aspect":     func(r *GenerationRequest) { r.AspectRatio = "4:3" },
		"fps out of range":   func(r *GenerationRequest) { r.FPS = 240 },
		"missing ref image":  func(r *GenerationRequest) { r.ReferenceImagePath = "/nonexistent/ref.png" },
	}
	for name, mutate := range cases {
		t.Run("should reject "+name, func(t *testing.T) {
			r := valid()
			mutate(&r)
			err := r.Validate(limits)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestGenerationJob_TerminalOutcomeIsExclusive(t *testing.T) {
	j := &GenerationJob{ID: "j1", Status: JobStatusRunning}
	j.Fail(JobStatusFailed, "boom", time.Now())
	j.Succeed(&OutputAsset{ID: "abc123"}, time.Now())
	if j.Error != "" || j.Output == nil {
		t.Fatalf("expected output only, got error=%q output=%v", j.Error, j.Output)
	}
	j.Fail(JobStatusCanceled, "stopped", time.Now())
	if j.Output != nil || j.Error != "stopped" {
		t.Fatalf("expected error only, got error=%q output=%v", j.Error, j.Output)
	}
}

// --- Upload metadata Tests ---

func TestParseTags(t *testing.T) {
	long := strings.Repeat("x", MaxTagLength+1)
	tags, rejected := ParseTags(" travel, ,sunset ,," + long + ", 4k ")
	if got := strings.Join(tags, "|"); got != "travel|sunset|4k" {
		t.Errorf("unexpected tags %q", got)
	}
	if len(rejected) != 1 || rejected[0] != long {
		t.Errorf("expected the over-long tag to be rejected, got %d rejected", len(rejected))
	}

	exact := strings.Repeat("y", MaxTagLength)
	tags, rejected = ParseTags(exact)
	if len(tags) != 1 || len(rejected) != 0 {
		t.Errorf("a tag of exactly %d chars must be kept", MaxTagLength)
	}
}

func TestParseVisibility(t *testing.T) {
	cases := map[string]Visibility{
		"Public":       VisibilityPublic,
		" UNLISTED ":   VisibilityUnlisted,
		"link only":    VisibilityUnlisted,
		"private":      VisibilityPrivate,
		"":             VisibilityPrivate,
		"friends-only": VisibilityPrivate,
	}
	for in, want := range cases {
		if got := ParseVisibility(in); got != want {
			t.Errorf("ParseVisibility(%q) = %s, want %s", in, got, want)
		}
	}
}

// --- ScheduledUploadItem Tests ---

func TestScheduledUploadItem_Lifecycle(t *testing.T) {
	now := time.Now()
	it := &ScheduledUploadItem{ID: NewScheduledUploadID(now), FilePath: "/tmp/a.mp4", Title: "a", ScheduledTime: now, Status: ScheduledWaiting}

	if err := it.MarkCompleted("u", now); err == nil {
		t.Fatal("expected waiting -> completed to be rejected")
	}
	if err := it.MarkUploading(now); err != nil {
		t.Fatalf("waiting -> uploading: %v", err)
	}
	if err := it.MarkFailed("", now); err != nil {
		t.Fatalf("uploading -> failed: %v", err)
	}
	if it.ErrorMessage == "" || it.CompletedTime == nil {
		t.Error("failed item must carry an error message and completion time")
	}
	if err := it.MarkUploading(now); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected terminal item to refuse further transitions, got %v", err)
	}
	if !it.Status.IsTerminal() {
		t.Error("expected failed to be terminal")
	}
}

func TestScheduledUploadItem_IsDue(t *testing.T) {
	now := time.Now()
	it := &ScheduledUploadItem{Status: ScheduledWaiting, ScheduledTime: now.Add(time.Minute)}
	if it.IsDue(now) {
		t.Error("future item must not be due")
	}
	it.ScheduledTime = now
	if !it.IsDue(now) {
		t.Error("item scheduled exactly now must be due")
	}
	it.Status = ScheduledUploading
	if it.IsDue(now) {
		t.Error("non-waiting item must not be due")
	}
}

func TestScheduledUploadItem_Validate(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	it := &ScheduledUploadItem{FilePath: p, Title: "clip", ScheduledTime: time.Now()}
	if err := it.Validate(); err != nil {
		t.Fatalf("expected valid item, got %v", err)
	}
	it.Title = ""
	if err := it.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNewScheduledUploadID_IsTimeOrdered(t *testing.T) {
	a := NewScheduledUploadID(time.Unix(1000, 0))
	b := NewScheduledUploadID(time.Unix(2000, 0))
	if !(a < b) {
		t.Fatalf("expected %s < %s", a, b)
	}
}
