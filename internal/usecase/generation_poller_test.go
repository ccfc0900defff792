//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/adapter"
)

func sunsetRequest() model.GenerationRequest {
	return model.GenerationRequest{Prompt: "sunset over mountains", DurationSeconds: 5, Resolution: "1080p"}
}

func TestGenerationPoller_SucceedsAfterProcessing(t *testing.T) {
	prov := &scriptedProvider{states: []adapter.RemoteJobState{
		{Status: model.JobStatusStarting, RawStatus: "starting"},
		running(), running(), running(),
		{Status: model.JobStatusSucceeded, RawStatus: "succeeded", Output: &model.OutputAsset{ID: "abc123", URI: "gs://bucket/abc123.mp4"}},
	}}
	clock := newFakeClock()
	g := NewGenerationPoller(prov, DefaultGenerationPolicy(), clock, silentLogger())

	var log reportLog
	job, err := g.Generate(context.Background(), sunsetRequest(), log.add)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if job.Status != model.JobStatusSucceeded || job.Output == nil || job.Output.ID != "abc123" {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.Error != "" {
		t.Errorf("succeeded job must not carry an error, got %q", job.Error)
	}

	reports := log.all()
	if len(reports) != 5 {
		t.Fatalf("expected 5 reports, got %d", len(reports))
	}
	if reports[0].Percentage != 5 || reports[0].Status != model.JobStatusStarting {
		t.Errorf("first report = %+v, want Starting 5%%", reports[0])
	}
	last := log.last()
	if last.Percentage != 100 || last.Status != model.JobStatusSucceeded || last.ResultToken != "abc123" {
		t.Errorf("last report = %+v", last)
	}
	assertNonDecreasing(t, reports)
	for _, r := range reports {
		if r.JobID == "" {
			t.Fatal("reports must carry the job id")
		}
	}

	// 4 waits of the fast interval between 5 polls; no wait after the terminal poll.
	sleeps := clock.Sleeps()
	if len(sleeps) != 4 {
		t.Fatalf("expected 4 waits, got %d", len(sleeps))
	}
	for _, s := range sleeps {
		if s != time.Second {
			t.Errorf("expected fast interval, got %s", s)
		}
	}
}

func TestGenerationPoller_TimesOutAfterMaxAttempts(t *testing.T) {
	prov := &scriptedProvider{states: []adapter.RemoteJobState{running()}}
	clock := newFakeClock()
	g := NewGenerationPoller(prov, DefaultGenerationPolicy(), clock, silentLogger())

	var log reportLog
	job, err := g.Generate(context.Background(), sunsetRequest(), log.add)
	if job != nil {
		t.Fatalf("expected no result, got %+v", job)
	}
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if errors.Is(err, domain.ErrRemoteFailure) {
		t.Fatal("timeout must not be reported as a remote failure")
	}
	if prov.polls != 240 {
		t.Errorf("expected 240 polls, got %d", prov.polls)
	}
	sleeps := clock.Sleeps()
	if len(sleeps) != 239 {
		t.Fatalf("expected 239 waits, got %d", len(sleeps))
	}
	if sleeps[9] != time.Second || sleeps[10] != 5*time.Second {
		t.Errorf("expected interval to slow down after 10 attempts, got %s then %s", sleeps[9], sleeps[10])
	}

	reports := log.all()
	assertNonDecreasing(t, reports)
	for _, r := range reports[:len(reports)-1] {
		if r.Status == model.JobStatusRunning && r.Percentage > 90 {
			t.Fatalf("running progress must saturate at 90, got %d", r.Percentage)
		}
	}
	if log.last().Status != model.JobStatusTimedOut {
		t.Errorf("last report status = %s", log.last().Status)
	}
}

func TestGenerationPoller_RemoteFailure(t *testing.T) {
	t.Run("should carry the provider message", func(t *testing.T) {
		prov := &scriptedProvider{states: []adapter.RemoteJobState{
			running(),
			{Status: model.JobStatusFailed, Error: "content policy violation"},
		}}
		g := NewGenerationPoller(prov, DefaultGenerationPolicy(), newFakeClock(), silentLogger())
		_, err := g.Generate(context.Background(), sunsetRequest(), nil)
		if !errors.Is(err, domain.ErrRemoteFailure) {
			t.Fatalf("expected ErrRemoteFailure, got %v", err)
		}
		if !strings.Contains(err.Error(), "content policy violation") {
			t.Errorf("expected provider message in %q", err)
		}
	})

	t.Run("should hold the last percentage on the failure report", func(t *testing.T) {
		prov := &scriptedProvider{states: []adapter.RemoteJobState{
			running(),
			{Status: model.JobStatusFailed, Error: "content policy violation"},
		}}
		g := NewGenerationPoller(prov, DefaultGenerationPolicy(), newFakeClock(), silentLogger())
		var reports []model.ProgressReport
		_, _ = g.Generate(context.Background(), sunsetRequest(), func(r model.ProgressReport) {
			reports = append(reports, r)
		})
		if len(reports) < 2 {
			t.Fatalf("expected a running and a failed report, got %d", len(reports))
		}
		last, prev := reports[len(reports)-1], reports[len(reports)-2]
		if last.Status != model.JobStatusFailed || last.Percentage != prev.Percentage || last.Percentage == 0 {
			t.Fatalf("failed report = %s %d%%, previous %d%%", last.Status, last.Percentage, prev.Percentage)
		}
	})

	t.Run("should fall back to a generic message", func(t *testing.T) {
		prov := &scriptedProvider{states: []adapter.RemoteJobState{{Status: model.JobStatusCanceled}}}
		g := NewGenerationPoller(prov, DefaultGenerationPolicy(), newFakeClock(), silentLogger())
		_, err := g.Generate(context.Background(), sunsetRequest(), nil)
		if !errors.Is(err, domain.ErrRemoteFailure) || !strings.Contains(err.Error(), "canceled") {
			t.Fatalf("expected generic remote failure, got %v", err)
		}
	})

	t.Run("should treat success without output as failure", func(t *testing.T) {
		prov := &scriptedProvider{states: []adapter.RemoteJobState{{Status: model.JobStatusSucceeded}}}
		g := NewGenerationPoller(prov, DefaultGenerationPolicy(), newFakeClock(), silentLogger())
		job, err := g.Generate(context.Background(), sunsetRequest(), nil)
		if job != nil || !errors.Is(err, domain.ErrRemoteFailure) {
			t.Fatalf("expected remote failure and no job, got %v / %v", job, err)
		}
	})
}

func TestGenerationPoller_AbsorbsTransientErrors(t *testing.T) {
	prov := &scriptedProvider{
		errs: []error{errNetwork, errNetwork},
		states: []adapter.RemoteJobState{
			{}, {},
			{Status: model.JobStatusSucceeded, Output: &model.OutputAsset{ID: "abc123"}},
		},
	}
	g := NewGenerationPoller(prov, DefaultGenerationPolicy(), newFakeClock(), silentLogger())
	job, err := g.Generate(context.Background(), sunsetRequest(), nil)
	if err != nil {
		t.Fatalf("expected transient errors to be absorbed, got %v", err)
	}
	if job.Output.ID != "abc123" || prov.polls != 3 {
		t.Errorf("unexpected result %+v after %d polls", job.Output, prov.polls)
	}
}

func TestGenerationPoller_Cancel(t *testing.T) {
	prov := &scriptedProvider{states: []adapter.RemoteJobState{running()}}
	g := NewGenerationPoller(prov, DefaultGenerationPolicy(), newFakeClock(), silentLogger())

	h, err := g.Submit(context.Background(), sunsetRequest())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var log reportLog
	job, err := g.WaitForCompletion(ctx, h, log.add)
	if job != nil || !errors.Is(err, domain.ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v / %v", job, err)
	}
	if prov.polls != 0 {
		t.Errorf("expected no polls after cancellation, got %d", prov.polls)
	}
	if log.last().Status != model.JobStatusCanceled {
		t.Errorf("expected a canceled report, got %+v", log.last())
	}
}

func TestGenerationPoller_SubmitValidation(t *testing.T) {
	prov := &scriptedProvider{states: []adapter.RemoteJobState{running()}}
	g := NewGenerationPoller(prov, DefaultGenerationPolicy(), newFakeClock(), silentLogger())

	for name, req := range map[string]model.GenerationRequest{
		"missing prompt":   {DurationSeconds: 5, Resolution: "1080p"},
		"duration too big": {Prompt: "x", DurationSeconds: 99, Resolution: "1080p"},
		"bad resolution":   {Prompt: "x", DurationSeconds: 5, Resolution: "4320p"},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := g.Submit(context.Background(), req); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
	if prov.submits != 0 {
		t.Errorf("invalid requests must not reach the provider, got %d submits", prov.submits)
	}

	prov.submitErr = errNetwork
	if _, err := g.Submit(context.Background(), sunsetRequest()); !errors.Is(err, domain.ErrRemoteFailure) {
		t.Fatalf("expected submit failure to wrap ErrRemoteFailure, got %v", err)
	}
}

func TestGenerationPoller_EstimateStartsAfterFifthAttempt(t *testing.T) {
	states := make([]adapter.RemoteJobState, 0, 8)
	for i := 0; i < 7; i++ {
		states = append(states, running())
	}
	states = append(states, adapter.RemoteJobState{Status: model.JobStatusSucceeded, Output: &model.OutputAsset{ID: "v"}})
	prov := &scriptedProvider{states: states}
	g := NewGenerationPoller(prov, DefaultGenerationPolicy(), newFakeClock(), silentLogger())

	var log reportLog
	if _, err := g.Generate(context.Background(), sunsetRequest(), log.add); err != nil {
		t.Fatal(err)
	}
	reports := log.all()
	for i, r := range reports[:5] {
		if r.HasEstimate || r.RemainingText() != "unknown" {
			t.Errorf("report %d must not carry an estimate", i+1)
		}
	}
	r6 := reports[5]
	if !r6.HasEstimate {
		t.Fatal("report 6 should carry an estimate")
	}
	// 5 one-second waits over 6 attempts, 234 attempts left.
	want := (5 * time.Second / 6) * 234
	if r6.EstimatedRemaining != want {
		t.Errorf("estimate = %s, want %s", r6.EstimatedRemaining, want)
	}
}

func TestPollPolicy_Interval(t *testing.T) {
	p := DefaultGenerationPolicy()
	if p.Interval(1) != time.Second || p.Interval(10) != time.Second {
		t.Error("first 10 attempts should use the fast interval")
	}
	if p.Interval(11) != 5*time.Second {
		t.Error("attempt 11 should use the slow interval")
	}
	if p.Exhausted(240) || !p.Exhausted(241) {
		t.Error("ceiling should be 240 attempts")
	}

	filled := PollPolicy{FastAttempts: 3}.WithDefaults(DefaultGenerationPolicy())
	if filled.MaxAttempts != 240 || filled.SlowInterval != 5*time.Second || filled.FastAttempts != 3 {
		t.Errorf("unexpected defaults %+v", filled)
	}
}
