package usecase

import "time"

// PollPolicy is the attempt counter and interval schedule of a bounded poll loop.
// Attempts are numbered from 1.
type PollPolicy struct {
	FastAttempts int
	FastInterval time.Duration
	SlowInterval time.Duration
	MaxAttempts  int
}

// DefaultGenerationPolicy polls every second for 10 attempts, then every 5 seconds up to 240 attempts.
func DefaultGenerationPolicy() PollPolicy {
	return PollPolicy{
		FastAttempts: 10,
		FastInterval: time.Second,
		SlowInterval: 5 * time.Second,
		MaxAttempts:  240,
	}
}

// DefaultProcessingPolicy polls every 5 seconds for 24 attempts.
func DefaultProcessingPolicy() PollPolicy {
	return PollPolicy{
		FastAttempts: 0,
		FastInterval: 5 * time.Second,
		SlowInterval: 5 * time.Second,
		MaxAttempts:  24,
	}
}

// Interval is the wait that follows the given attempt.
func (p PollPolicy) Interval(attempt int) time.Duration {
	if attempt <= p.FastAttempts {
		return p.FastInterval
	}
	return p.SlowInterval
}

// Exhausted reports whether attempt is past the ceiling.
func (p PollPolicy) Exhausted(attempt int) bool {
	return attempt > p.MaxAttempts
}

// WithDefaults fills zero fields from def.
func (p PollPolicy) WithDefaults(def PollPolicy) PollPolicy {
	if p.FastAttempts < 0 {
		p.FastAttempts = 0
	}
	if p.FastInterval <= 0 {
		p.FastInterval = def.FastInterval
	}
	if p.SlowInterval <= 0 {
		p.SlowInterval = def.SlowInterval
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	return p
}
