//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"ai-video-orchestrator/internal/domain/model"
)

func TestScheduledUploadRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewScheduledUploadRepo(testPool, NewTxManager(testPool))
	due := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	newItem := func(title string) *model.ScheduledUploadItem {
		return &model.ScheduledUploadItem{
			ID:            model.NewScheduledUploadID(time.Now()),
			Title:         title,
			FilePath:      "/videos/" + title + ".mp4",
			ScheduledTime: due,
			Status:        model.ScheduledWaiting,
		}
	}

	t.Run("should keep arrival order and drain atomically", func(t *testing.T) {
		cleanup(t)
		for _, title := range []string{"a", "b", "c"} {
			if err := repo.Enqueue(ctx, newItem(title)); err != nil {
				t.Fatalf("enqueue %s: %v", title, err)
			}
		}
		if n, err := repo.Count(ctx); err != nil || n != 3 {
			t.Fatalf("count = %d, %v", n, err)
		}

		items, err := repo.DrainAll(ctx)
		if err != nil {
			t.Fatalf("drain: %v", err)
		}
		if len(items) != 3 || items[0].Title != "a" || items[2].Title != "c" {
			t.Fatalf("unexpected drain %v", items)
		}
		if !items[0].ScheduledTime.Equal(due) {
			t.Errorf("scheduled time lost: %v", items[0].ScheduledTime)
		}
		if n, _ := repo.Count(ctx); n != 0 {
			t.Fatalf("expected empty table, got %d", n)
		}
	})

	t.Run("should put re-enqueued items at the back", func(t *testing.T) {
		cleanup(t)
		a, b := newItem("a"), newItem("b")
		_ = repo.Enqueue(ctx, a)
		_ = repo.Enqueue(ctx, b)
		drained, _ := repo.DrainAll(ctx)
		_ = repo.Enqueue(ctx, drained[0])

		listed, err := repo.List(ctx)
		if err != nil || len(listed) != 1 || listed[0].ID != a.ID {
			t.Fatalf("list = %v, %v", listed, err)
		}
	})
}
