package memory

import (
	"container/list"
	"context"
	"sync"

	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/repository"
)

var _ repository.ScheduledUploadQueue = (*ScheduledQueue)(nil)

// ScheduledQueue is the in-process queue store. Nothing survives a restart.
type ScheduledQueue struct {
	mu    sync.Mutex
	items *list.List
}

func NewScheduledQueue() *ScheduledQueue {
	return &ScheduledQueue{items: list.New()}
}

func (q *ScheduledQueue) Enqueue(ctx context.Context, item *model.ScheduledUploadItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items.PushBack(item.Clone())
	return nil
}

func (q *ScheduledQueue) DrainAll(ctx context.Context) ([]*model.ScheduledUploadItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*model.ScheduledUploadItem, 0, q.items.Len())
	for e := q.items.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*model.ScheduledUploadItem))
	}
	q.items.Init()
	return out, nil
}

func (q *ScheduledQueue) List(ctx context.Context) ([]*model.ScheduledUploadItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*model.ScheduledUploadItem, 0, q.items.Len())
	for e := q.items.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*model.ScheduledUploadItem).Clone())
	}
	return out, nil
}

func (q *ScheduledQueue) Count(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len(), nil
}
