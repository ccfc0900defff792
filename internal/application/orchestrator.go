package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/infra/worker"
	"ai-video-orchestrator/internal/usecase"
)

// Scheduler is the dispatcher surface the facade exposes.
type Scheduler interface {
	Enqueue(ctx context.Context, item *model.ScheduledUploadItem) (*model.ScheduledUploadItem, error)
	ListAll(ctx context.Context) ([]*model.ScheduledUploadItem, error)
	Count(ctx context.Context) (int, error)
	History() []*model.ScheduledUploadItem
	Lookup(ctx context.Context, id string) (*model.ScheduledUploadItem, error)
}

// AccountStatus is what callers see of the shared session.
type AccountStatus struct {
	Host          string `json:"host"`
	Authenticated bool   `json:"authenticated"`
}

// Orchestrator composes the pollers, the upload pipeline and the dispatcher into
// the operations the API and CLI call. Generation and upload run on the worker pool
// and report through the ProgressBoard.
type Orchestrator struct {
	generation *usecase.GenerationPoller
	uploader   usecase.Uploader
	scheduler  Scheduler
	account    *usecase.AccountContext
	pool       *worker.Pool
	board      *ProgressBoard
	host       string
	maxUpload  int64
	log        zerolog.Logger
}

type OrchestratorDeps struct {
	Generation *usecase.GenerationPoller
	Uploader   usecase.Uploader
	Scheduler  Scheduler
	Account    *usecase.AccountContext
	Pool       *worker.Pool
	Board      *ProgressBoard
	HostName   string
	MaxUpload  int64
}

func NewOrchestrator(d OrchestratorDeps, logger *zerolog.Logger) *Orchestrator {
	if d.Board == nil {
		d.Board = NewProgressBoard(0)
	}
	if d.MaxUpload <= 0 {
		d.MaxUpload = usecase.DefaultMaxUploadBytes
	}
	return &Orchestrator{
		generation: d.Generation,
		uploader:   d.Uploader,
		scheduler:  d.Scheduler,
		account:    d.Account,
		pool:       d.Pool,
		board:      d.Board,
		host:       d.HostName,
		maxUpload:  d.MaxUpload,
		log:        logger.With().Str("component", "Orchestrator").Logger(),
	}
}

// StartGeneration submits synchronously, so validation and auth errors reach the caller,
// then waits for completion in the background.
func (o *Orchestrator) StartGeneration(ctx context.Context, req model.GenerationRequest) (JobRecord, error) {
	h, err := o.generation.Submit(ctx, req)
	if err != nil {
		return JobRecord{}, err
	}
	rec := o.board.Create(h.ID, JobKindGeneration)
	err = o.pool.Submit(func(ctx context.Context) error {
		job, err := o.generation.WaitForCompletion(ctx, h, o.board.Update)
		if err != nil {
			o.board.Finish(h.ID, nil, err)
			return err
		}
		o.board.Finish(h.ID, job, nil)
		return nil
	})
	if err != nil {
		o.board.Finish(h.ID, nil, err)
		return JobRecord{}, fmt.Errorf("queue generation wait: %w", err)
	}
	o.log.Info().Str("job_id", h.ID).Str("remote_id", h.RemoteID).Msg("generation accepted")
	return rec, nil
}

// StartUpload checks authentication and the file up front, then uploads in the background.
func (o *Orchestrator) StartUpload(ctx context.Context, job *model.UploadJob) (JobRecord, error) {
	if !o.account.IsAuthenticated() {
		return JobRecord{}, fmt.Errorf("%w: sign in before uploading", domain.ErrNotAuthenticated)
	}
	if _, err := usecase.ValidateUploadFile(job.SourcePath, o.maxUpload); err != nil {
		return JobRecord{}, err
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	rec := o.board.Create(job.ID, JobKindUpload)
	err := o.pool.Submit(func(ctx context.Context) error {
		res, err := o.uploader.Upload(ctx, job, o.board.Update)
		if err != nil {
			o.board.Finish(job.ID, nil, err)
			return err
		}
		o.board.Finish(job.ID, res, nil)
		return nil
	})
	if err != nil {
		o.board.Finish(job.ID, nil, err)
		return JobRecord{}, fmt.Errorf("queue upload: %w", err)
	}
	return rec, nil
}

// Job returns the latest record of an asynchronous job.
func (o *Orchestrator) Job(id string) (JobRecord, error) {
	rec, ok := o.board.Get(id)
	if !ok {
		return JobRecord{}, fmt.Errorf("%w: job %s", domain.ErrNotFound, id)
	}
	return rec, nil
}

func (o *Orchestrator) Schedule(ctx context.Context, item *model.ScheduledUploadItem) (*model.ScheduledUploadItem, error) {
	return o.scheduler.Enqueue(ctx, item)
}

// Schedules lists the waiting items.
func (o *Orchestrator) Schedules(ctx context.Context) ([]*model.ScheduledUploadItem, error) {
	return o.scheduler.ListAll(ctx)
}

func (o *Orchestrator) ScheduleCount(ctx context.Context) (int, error) {
	return o.scheduler.Count(ctx)
}

func (o *Orchestrator) ScheduleHistory() []*model.ScheduledUploadItem {
	return o.scheduler.History()
}

func (o *Orchestrator) ScheduledItem(ctx context.Context, id string) (*model.ScheduledUploadItem, error) {
	return o.scheduler.Lookup(ctx, id)
}

func (o *Orchestrator) Account() AccountStatus {
	return AccountStatus{Host: o.host, Authenticated: o.account.IsAuthenticated()}
}

// RevokeAccount waits for in-flight uploads before revoking.
func (o *Orchestrator) RevokeAccount(ctx context.Context) error {
	if err := o.account.Revoke(ctx); err != nil {
		return err
	}
	o.log.Info().Str("host", o.host).Msg("account revoked")
	return nil
}

func (o *Orchestrator) Reauthenticate(ctx context.Context) error {
	_, err := o.account.Reauthenticate(ctx)
	return err
}
