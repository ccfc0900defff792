package redis

import (
	"context"
	"io"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"ai-video-orchestrator/internal/domain/model"
)

func newTestQueue(t *testing.T) (*ScheduledQueue, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	logger := zerolog.New(io.Discard)
	c := Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return NewScheduledQueue(c, "test:scheduled", &logger), mr
}

func TestScheduledQueue_RoundTripAndDrain(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)
	due := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	for _, title := range []string{"first", "second"} {
		it := &model.ScheduledUploadItem{
			ID: model.NewScheduledUploadID(due), Title: title, FilePath: "/v/" + title + ".mp4",
			ScheduledTime: due, Status: model.ScheduledWaiting,
			Edits: model.EditInstructions{Mute: true},
		}
		if err := q.Enqueue(ctx, it); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	if n, err := q.Count(ctx); err != nil || n != 2 {
		t.Fatalf("count = %d, %v", n, err)
	}
	listed, err := q.List(ctx)
	if err != nil || len(listed) != 2 {
		t.Fatalf("list = %v, %v", listed, err)
	}

	items, err := q.DrainAll(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(items) != 2 || items[0].Title != "first" || items[1].Title != "second" {
		t.Fatalf("unexpected drain %v", items)
	}
	if !items[0].ScheduledTime.Equal(due) || !items[0].Edits.Mute {
		t.Errorf("fields lost in round trip: %+v", items[0])
	}
	if n, _ := q.Count(ctx); n != 0 {
		t.Fatalf("expected empty list after drain, got %d", n)
	}

	empty, err := q.DrainAll(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("drain of empty queue = %v, %v", empty, err)
	}
}

func TestScheduledQueue_SkipsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestQueue(t)
	if _, err := mr.Push("test:scheduled", "{not json"); err != nil {
		t.Fatal(err)
	}
	_ = q.Enqueue(ctx, &model.ScheduledUploadItem{ID: "ok", Status: model.ScheduledWaiting})

	items, err := q.DrainAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != "ok" {
		t.Fatalf("expected only the valid entry, got %v", items)
	}
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()
	rl := NewRateLimiter(Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()})))
	key := SubmitKey("alice", "generations")

	for i := 0; i < 2; i++ {
		if ok, err := rl.Allow(ctx, key, 2, time.Minute); err != nil || !ok {
			t.Fatalf("request %d should pass: %v %v", i+1, ok, err)
		}
	}
	if ok, _ := rl.Allow(ctx, key, 2, time.Minute); ok {
		t.Fatal("third request should be limited")
	}
	mr.FastForward(time.Minute + time.Second)
	if ok, _ := rl.Allow(ctx, key, 2, time.Minute); !ok {
		t.Fatal("window should reset after expiry")
	}
}
