package application

import (
	"sync"
	"time"

	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/model"
)

type JobKind string

const (
	JobKindGeneration JobKind = "generation"
	JobKindUpload     JobKind = "upload"
)

// JobRecord is the latest known state of an asynchronous job.
type JobRecord struct {
	ID        string               `json:"id"`
	Kind      JobKind              `json:"kind"`
	Status    model.JobStatus      `json:"status"`
	Progress  model.ProgressReport `json:"progress"`
	Result    any                  `json:"result,omitempty"`
	Error     string               `json:"error,omitempty"`
	ErrorKind string               `json:"error_kind,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// ProgressBoard keeps job records keyed by id. Once more than max records exist
// the oldest terminal ones are evicted.
type ProgressBoard struct {
	mu    sync.RWMutex
	jobs  map[string]*JobRecord
	order []string
	max   int
	now   func() time.Time
}

func NewProgressBoard(max int) *ProgressBoard {
	if max <= 0 {
		max = 500
	}
	return &ProgressBoard{jobs: make(map[string]*JobRecord), max: max, now: time.Now}
}

func (b *ProgressBoard) Create(id string, kind JobKind) JobRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	r := &JobRecord{ID: id, Kind: kind, Status: model.JobStatusPending, CreatedAt: now, UpdatedAt: now}
	r.Progress = model.ProgressReport{JobID: id, Status: model.JobStatusPending, StatusLabel: "Queued"}
	b.jobs[id] = r
	b.order = append(b.order, id)
	b.evictLocked()
	return *r
}

// Update records a progress report. Reports for unknown or finished jobs are ignored.
func (b *ProgressBoard) Update(rep model.ProgressReport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.jobs[rep.JobID]
	if !ok || r.Status.IsTerminal() {
		return
	}
	r.Progress = rep
	if !rep.Status.IsTerminal() && rep.Status != "" {
		r.Status = rep.Status
	}
	r.UpdatedAt = b.now()
}

// Finish stores the terminal outcome of a job.
func (b *ProgressBoard) Finish(id string, result any, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.jobs[id]
	if !ok {
		return
	}
	r.UpdatedAt = b.now()
	if err != nil {
		r.Status = terminalStatus(err)
		r.Error = err.Error()
		r.ErrorKind = domain.ErrorKind(err)
		r.Progress.Status = r.Status
		return
	}
	r.Status = model.JobStatusSucceeded
	r.Result = result
}

func (b *ProgressBoard) Get(id string) (JobRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.jobs[id]
	if !ok {
		return JobRecord{}, false
	}
	return *r, true
}

func (b *ProgressBoard) evictLocked() {
	for i := 0; len(b.jobs) > b.max && i < len(b.order); {
		id := b.order[i]
		if r, ok := b.jobs[id]; ok && !r.Status.IsTerminal() {
			i++
			continue
		}
		delete(b.jobs, id)
		b.order = append(b.order[:i], b.order[i+1:]...)
	}
}

func terminalStatus(err error) model.JobStatus {
	switch domain.ErrorKind(err) {
	case "timeout":
		return model.JobStatusTimedOut
	case "canceled":
		return model.JobStatusCanceled
	default:
		return model.JobStatusFailed
	}
}
