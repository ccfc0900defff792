//go:build !integration

package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestPool(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("should run submitted tasks and survive panics", func(t *testing.T) {
		p := NewPool(2, &logger)
		p.Start(context.Background())
		defer p.Stop()

		var ran atomic.Int32
		done := make(chan struct{}, 3)
		_ = p.Submit(func(ctx context.Context) error { panic("boom") })
		for i := 0; i < 3; i++ {
			if err := p.Submit(func(ctx context.Context) error {
				ran.Add(1)
				done <- struct{}{}
				return errors.New("task failed")
			}); err != nil {
				t.Fatal(err)
			}
		}
		for i := 0; i < 3; i++ {
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("task did not run")
			}
		}
		if ran.Load() != 3 {
			t.Fatalf("ran %d tasks", ran.Load())
		}
	})

	t.Run("should refuse work when saturated", func(t *testing.T) {
		p := NewPool(1, &logger)
		var err error
		for i := 0; i < 10 && err == nil; i++ {
			err = p.Submit(func(ctx context.Context) error { return nil })
		}
		if !errors.Is(err, ErrQueueFull) {
			t.Fatalf("expected ErrQueueFull, got %v", err)
		}
	})

	t.Run("should refuse work after stop", func(t *testing.T) {
		p := NewPool(1, &logger)
		p.Start(context.Background())
		p.Stop()
		p.Stop()
		if err := p.Submit(func(ctx context.Context) error { return nil }); !errors.Is(err, ErrPoolStopped) {
			t.Fatalf("expected ErrPoolStopped, got %v", err)
		}
	})
}
