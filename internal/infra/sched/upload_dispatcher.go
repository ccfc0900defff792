package sched

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/adapter"
	"ai-video-orchestrator/internal/domain/ports/repository"
	"ai-video-orchestrator/internal/infra/logging"
	"ai-video-orchestrator/internal/infra/metrics"
	"ai-video-orchestrator/internal/infra/scheduler"
	"ai-video-orchestrator/internal/usecase"
)

// DispatcherConfig tunes the scheduled upload loop.
type DispatcherConfig struct {
	Tick         time.Duration
	HistorySize  int
	DeleteSource bool
}

// UploadDispatcher releases scheduled uploads at their due time. Each item gets one attempt.
type UploadDispatcher struct {
	queue    repository.ScheduledUploadQueue
	uploader usecase.Uploader
	media    adapter.MediaProcessor
	notifier adapter.Notifier
	clock    usecase.Clock
	cfg      DispatcherConfig
	log      *zerolog.Logger
	loop     *scheduler.Scheduler

	tickMu sync.Mutex

	// held covers items drained from the store that are neither back in it nor finished.
	// pending holds items whose re-enqueue failed; the next tick retries them.
	mu      sync.RWMutex
	held    map[string]*model.ScheduledUploadItem
	pending []*model.ScheduledUploadItem
	history []*model.ScheduledUploadItem
}

// NewUploadDispatcher wires the dispatcher. media and notifier may be nil.
func NewUploadDispatcher(
	queue repository.ScheduledUploadQueue,
	uploader usecase.Uploader,
	media adapter.MediaProcessor,
	notifier adapter.Notifier,
	clock usecase.Clock,
	cfg DispatcherConfig,
	logger *zerolog.Logger,
) *UploadDispatcher {
	if clock == nil {
		clock = usecase.SystemClock{}
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Minute
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 100
	}
	l := logger.With().Str("component", "UploadDispatcher").Logger()
	d := &UploadDispatcher{
		queue:    queue,
		uploader: uploader,
		media:    media,
		notifier: notifier,
		clock:    clock,
		cfg:      cfg,
		log:      &l,
		held:     make(map[string]*model.ScheduledUploadItem),
	}
	d.loop = scheduler.New("scheduled_uploads", cfg.Tick, d, logger)
	return d
}

// Enqueue validates item, assigns its id and appends it with status Waiting.
func (d *UploadDispatcher) Enqueue(ctx context.Context, item *model.ScheduledUploadItem) (*model.ScheduledUploadItem, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	it := item.Clone()
	now := d.clock.Now()
	if it.ID == "" {
		it.ID = model.NewScheduledUploadID(now)
	}
	if it.FileName == "" {
		it.FileName = filepath.Base(it.FilePath)
	}
	it.Status = model.ScheduledWaiting
	it.UploadedURL, it.ErrorMessage = "", ""
	it.StartTime, it.CompletedTime = nil, nil
	it.CreatedAt = now

	if err := d.queue.Enqueue(ctx, it); err != nil {
		return nil, fmt.Errorf("enqueue scheduled upload: %w", err)
	}
	d.log.Info().Str("item_id", it.ID).Time("scheduled_time", it.ScheduledTime).Str("file", it.FileName).Msg("upload scheduled")
	return it.Clone(), nil
}

// ListAll returns the waiting items, including those a running tick has taken out of the
// store but not started yet. Terminal items are only visible through History and Lookup.
func (d *UploadDispatcher) ListAll(ctx context.Context) ([]*model.ScheduledUploadItem, error) {
	stored, err := d.queue.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(stored))
	out := make([]*model.ScheduledUploadItem, 0, len(stored))
	for _, it := range stored {
		seen[it.ID] = true
		out = append(out, it)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	add := func(it *model.ScheduledUploadItem) {
		if it.Status != model.ScheduledWaiting || seen[it.ID] {
			return
		}
		seen[it.ID] = true
		out = append(out, it.Clone())
	}
	for _, it := range d.pending {
		add(it)
	}
	for _, it := range d.held {
		add(it)
	}
	return out, nil
}

func (d *UploadDispatcher) Count(ctx context.Context) (int, error) {
	items, err := d.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// History returns the most recent terminal items, oldest first.
func (d *UploadDispatcher) History() []*model.ScheduledUploadItem {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*model.ScheduledUploadItem, 0, len(d.history))
	for _, it := range d.history {
		out = append(out, it.Clone())
	}
	return out
}

// Lookup finds an item held by the current tick, pending, in history or still waiting.
func (d *UploadDispatcher) Lookup(ctx context.Context, id string) (*model.ScheduledUploadItem, error) {
	d.mu.RLock()
	if it, ok := d.held[id]; ok {
		cp := it.Clone()
		d.mu.RUnlock()
		return cp, nil
	}
	for _, it := range d.pending {
		if it.ID == id {
			cp := it.Clone()
			d.mu.RUnlock()
			return cp, nil
		}
	}
	for i := len(d.history) - 1; i >= 0; i-- {
		if d.history[i].ID == id {
			cp := d.history[i].Clone()
			d.mu.RUnlock()
			return cp, nil
		}
	}
	d.mu.RUnlock()

	waiting, err := d.queue.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range waiting {
		if it.ID == id {
			return it, nil
		}
	}
	return nil, fmt.Errorf("%w: scheduled upload %s", domain.ErrNotFound, id)
}

// Run blocks until ctx is done, ticking every cfg.Tick.
func (d *UploadDispatcher) Run(ctx context.Context) error {
	return d.loop.Run(ctx)
}

// Start runs the loop in the background; Stop cancels it and waits.
func (d *UploadDispatcher) Start(ctx context.Context) { d.loop.Start(ctx) }
func (d *UploadDispatcher) Stop()                    { d.loop.Stop() }

// Tick processes every due item once. It never panics and never returns an error;
// failures are recorded on the items themselves.
func (d *UploadDispatcher) Tick(ctx context.Context) {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			metrics.IncDispatcherPanic()
			d.log.Error().Interface("panic", r).Msg("dispatcher tick panicked")
		}
	}()

	items, err := d.queue.DrainAll(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("drain scheduled queue")
		return
	}
	d.mu.Lock()
	items = append(d.pending, items...)
	d.pending = nil
	for _, it := range items {
		d.held[it.ID] = it.Clone()
	}
	d.mu.Unlock()

	now := d.clock.Now()
	var due []*model.ScheduledUploadItem
	waiting := 0
	for _, it := range items {
		switch {
		case it.IsDue(now):
			due = append(due, it)
		case it.Status == model.ScheduledWaiting:
			d.putBack(ctx, it)
			waiting++
		default:
			d.release(it.ID)
			d.log.Warn().Str("item_id", it.ID).Str("status", string(it.Status)).Msg("non-waiting item found in queue; dropped")
		}
	}
	metrics.SetScheduledQueueDepth(waiting)
	if len(due) > 0 {
		d.log.Info().Int("due", len(due)).Int("waiting", waiting).Msg("processing due uploads")
	}

	for _, it := range due {
		if ctx.Err() != nil {
			// untouched items go back so a restart of the loop still sees them
			d.putBack(context.WithoutCancel(ctx), it)
			continue
		}
		d.process(ctx, it)
	}
}

// putBack returns a waiting item to the store. On failure it stays pending for the next tick.
func (d *UploadDispatcher) putBack(ctx context.Context, it *model.ScheduledUploadItem) {
	err := d.queue.Enqueue(ctx, it)
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.held, it.ID)
	if err != nil {
		d.pending = append(d.pending, it)
		d.log.Error().Err(err).Str("item_id", it.ID).Msg("re-enqueue failed; retrying next tick")
	}
}

func (d *UploadDispatcher) release(id string) {
	d.mu.Lock()
	delete(d.held, id)
	d.mu.Unlock()
}

func (d *UploadDispatcher) process(ctx context.Context, it *model.ScheduledUploadItem) {
	ctx = logging.WithItemID(ctx, it.ID)
	log := logging.With(ctx, d.log)

	if err := it.MarkUploading(d.clock.Now()); err != nil {
		d.release(it.ID)
		log.Error().Err(err).Msg("cannot start upload")
		return
	}
	d.mu.Lock()
	d.held[it.ID] = it.Clone()
	d.mu.Unlock()

	var processed string
	defer func() {
		if r := recover(); r != nil {
			metrics.IncDispatcherPanic()
			log.Error().Interface("panic", r).Msg("scheduled upload panicked")
			if it.Status == model.ScheduledUploading {
				_ = it.MarkFailed(fmt.Sprintf("internal error: %v", r), d.clock.Now())
			}
		}
		if it.Status == model.ScheduledFailed && ctx.Err() != nil {
			// interrupted by shutdown: the source survives for a manual reschedule
			log.Warn().Str("path", it.FilePath).Msg("upload interrupted; source file kept")
			d.cleanup(log, processed)
		} else {
			d.cleanup(log, it.FilePath, processed)
		}
		d.finish(ctx, log, it)
	}()

	uploadPath := it.FilePath
	if !it.Edits.IsZero() {
		out, err := d.applyEdits(ctx, it)
		if err != nil {
			_ = it.MarkFailed(err.Error(), d.clock.Now())
			log.Error().Err(err).Msg("media processing failed")
			return
		}
		processed, uploadPath = out, out
	}

	tags, _ := model.ParseTags(it.Tags)
	job := &model.UploadJob{
		ID:         it.ID,
		SourcePath: uploadPath,
		Metadata: model.UploadMetadata{
			Title:       it.Title,
			Description: it.Description,
			Tags:        tags,
			Visibility:  it.Visibility,
		},
	}
	res, err := d.uploader.Upload(ctx, job, nil)
	if err != nil {
		_ = it.MarkFailed(err.Error(), d.clock.Now())
		log.Error().Err(err).Str("kind", domain.ErrorKind(err)).Msg("scheduled upload failed")
		return
	}
	_ = it.MarkCompleted(res.URL, d.clock.Now())
	log.Info().Str("url", res.URL).Bool("processing_confirmed", res.ProcessingConfirmed).Msg("scheduled upload completed")
}

func (d *UploadDispatcher) applyEdits(ctx context.Context, it *model.ScheduledUploadItem) (string, error) {
	if d.media == nil {
		return "", fmt.Errorf("%w: edits requested but no media processor is configured", domain.ErrMediaProcessing)
	}
	out, err := d.media.Process(ctx, it.FilePath, it.Edits)
	if err != nil {
		if errors.Is(err, domain.ErrMediaProcessing) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", domain.ErrMediaProcessing, err)
	}
	return out, nil
}

// cleanup deletes the source and any processed output. Failures are logged only.
func (d *UploadDispatcher) cleanup(log *zerolog.Logger, paths ...string) {
	if !d.cfg.DeleteSource {
		return
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", p).Msg("could not delete file after upload attempt")
		}
	}
}

func (d *UploadDispatcher) finish(ctx context.Context, log *zerolog.Logger, it *model.ScheduledUploadItem) {
	d.mu.Lock()
	delete(d.held, it.ID)
	d.history = append(d.history, it.Clone())
	if over := len(d.history) - d.cfg.HistorySize; over > 0 {
		d.history = append([]*model.ScheduledUploadItem(nil), d.history[over:]...)
	}
	d.mu.Unlock()

	metrics.IncScheduledUpload(string(it.Status))
	if d.notifier == nil {
		return
	}
	if err := d.notifier.NotifyScheduledUpload(context.WithoutCancel(ctx), *it.Clone()); err != nil {
		log.Warn().Err(err).Msg("notify scheduled upload outcome")
	}
}
