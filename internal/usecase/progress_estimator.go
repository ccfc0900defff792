package usecase

import (
	"sync"
	"time"
)

// ProgressEstimator reports transfer progress while an upload is in flight.
// An implementation fed by real byte counts can replace SimulatedProgress without
// changing what observers receive.
type ProgressEstimator interface {
	// Start begins reporting. report may be called from another goroutine.
	Start(report func(pct int))
	// Stop halts reporting and waits for any in-flight report. Safe to call more than once.
	Stop()
}

// EstimatorFactory builds one estimator per upload.
type EstimatorFactory func() ProgressEstimator

// SimulatedProgress is an approximation: the resumable transfer exposes no byte counts,
// so the percentage grows by Step on every Tick until it reaches Ceiling.
type SimulatedProgress struct {
	Tick    time.Duration
	Step    int
	Ceiling int

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	stopped bool
}

func NewSimulatedProgress(tick time.Duration, step, ceiling int) *SimulatedProgress {
	if tick <= 0 {
		tick = time.Second
	}
	if step <= 0 {
		step = 2
	}
	if ceiling <= 0 || ceiling > 90 {
		ceiling = 90
	}
	return &SimulatedProgress{Tick: tick, Step: step, Ceiling: ceiling}
}

// SimulatedFactory returns a factory of SimulatedProgress estimators with the given settings.
func SimulatedFactory(tick time.Duration, step, ceiling int) EstimatorFactory {
	return func() ProgressEstimator { return NewSimulatedProgress(tick, step, ceiling) }
}

func (s *SimulatedProgress) Start(report func(pct int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil || s.stopped {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		ticker := time.NewTicker(s.Tick)
		defer ticker.Stop()
		pct := 0
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if pct >= s.Ceiling {
					continue
				}
				pct += s.Step
				if pct > s.Ceiling {
					pct = s.Ceiling
				}
				report(pct)
			}
		}
	}(s.stop, s.done)
}

func (s *SimulatedProgress) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	stop, done := s.stop, s.done
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
