package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/adapter"
)

func silentLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// fakeClock advances on every After call and fires immediately.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	now := c.now
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// scriptedProvider replays states in order and then repeats the last one.
type scriptedProvider struct {
	mu        sync.Mutex
	states    []adapter.RemoteJobState
	errs      []error // errs[i] is returned instead of states[i] when non-nil
	submitErr error
	submits   int
	polls     int
}

func (p *scriptedProvider) Name() string                   { return "scripted" }
func (p *scriptedProvider) Limits() model.GenerationLimits { return model.DefaultGenerationLimits() }

func (p *scriptedProvider) Submit(ctx context.Context, req model.GenerationRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submits++
	if p.submitErr != nil {
		return "", p.submitErr
	}
	return "remote-1", nil
}

func (p *scriptedProvider) Status(ctx context.Context, remoteID string) (adapter.RemoteJobState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.polls
	p.polls++
	if i < len(p.errs) && p.errs[i] != nil {
		return adapter.RemoteJobState{}, p.errs[i]
	}
	if i >= len(p.states) {
		i = len(p.states) - 1
	}
	return p.states[i], nil
}

func running() adapter.RemoteJobState {
	return adapter.RemoteJobState{Status: model.JobStatusRunning, RawStatus: "processing"}
}

// fakeHost records uploads and replays processing statuses.
type fakeHost struct {
	mu         sync.Mutex
	receipt    adapter.UploadReceipt
	uploadErr  error
	statuses   []string
	statusErrs []error
	uploads    []adapter.UploadInput
	chunkSizes []int
	polls      int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		receipt:  adapter.UploadReceipt{Status: adapter.UploadStatusCompleted, RemoteID: "vid-1"},
		statuses: []string{"processed"},
	}
}

func (h *fakeHost) Name() string      { return "fakehost" }
func (h *fakeHost) MinChunkSize() int { return 256 * 1024 }

func (h *fakeHost) UploadVideo(ctx context.Context, s *adapter.Session, in adapter.UploadInput, body io.Reader, chunkSize int) (adapter.UploadReceipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.uploads = append(h.uploads, in)
	h.chunkSizes = append(h.chunkSizes, chunkSize)
	if h.uploadErr != nil {
		return adapter.UploadReceipt{}, h.uploadErr
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return adapter.UploadReceipt{}, err
	}
	return h.receipt, nil
}

func (h *fakeHost) ProcessingStatus(ctx context.Context, s *adapter.Session, remoteID string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := h.polls
	h.polls++
	if i < len(h.statusErrs) && h.statusErrs[i] != nil {
		return "", h.statusErrs[i]
	}
	if i >= len(h.statuses) {
		i = len(h.statuses) - 1
	}
	return h.statuses[i], nil
}

func (h *fakeHost) VideoURL(id string) string { return "https://videos.example/watch?v=" + id }

func (h *fakeHost) uploadCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.uploads)
}

type fakeAuth struct {
	mu       sync.Mutex
	authed   bool
	authErr  error
	revoked  int
	forced   int
	sessions int
}

func (a *fakeAuth) Authenticate(ctx context.Context, force bool) (*adapter.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.authErr != nil {
		return nil, a.authErr
	}
	if force {
		a.forced++
	}
	a.sessions++
	a.authed = true
	return &adapter.Session{Account: "acct"}, nil
}

func (a *fakeAuth) Revoke(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked++
	a.authed = false
	return nil
}

func (a *fakeAuth) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authed
}

// countingEstimator reports a fixed percentage on Start and counts Stop calls.
type countingEstimator struct {
	mu     sync.Mutex
	starts int
	stops  int
	pct    int
}

func (e *countingEstimator) Start(report func(int)) {
	e.mu.Lock()
	e.starts++
	e.mu.Unlock()
	if e.pct > 0 {
		report(e.pct)
	}
}

func (e *countingEstimator) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stops++
}

// reportLog collects progress reports.
type reportLog struct {
	mu      sync.Mutex
	reports []model.ProgressReport
}

func (r *reportLog) add(p model.ProgressReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, p)
}

func (r *reportLog) all() []model.ProgressReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ProgressReport(nil), r.reports...)
}

func (r *reportLog) last() model.ProgressReport {
	all := r.all()
	if len(all) == 0 {
		return model.ProgressReport{}
	}
	return all[len(all)-1]
}

func assertNonDecreasing(t interface {
	Helper()
	Errorf(string, ...any)
}, reports []model.ProgressReport) {
	t.Helper()
	for i := 1; i < len(reports); i++ {
		if reports[i].Percentage < reports[i-1].Percentage {
			t.Errorf("progress went backwards at report %d: %d -> %d", i, reports[i-1].Percentage, reports[i].Percentage)
		}
	}
	for i, r := range reports {
		if r.Percentage == 100 && r.Status != model.JobStatusSucceeded {
			t.Errorf("report %d is 100%% with status %s", i, r.Status)
		}
	}
}

var errNetwork = errors.New("connection reset by peer")
