package scanner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs passes on a fixed interval. A tick that arrives while a
// pass is still running is skipped.
type Scheduler struct {
	runner   *Runner
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	running bool
	lastRun time.Time
	runs    int
	skipped int
}

// NewScheduler creates a Scheduler for runner.
func NewScheduler(runner *Runner, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{runner: runner, interval: interval, log: logger}
}

// Start runs a pass immediately and then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.log.Info("scan scheduler started", zap.Duration("interval", s.interval))

	s.Trigger(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Trigger(ctx)
		}
	}
}

// Trigger runs one pass unless another is in progress. It reports whether a
// pass ran.
func (s *Scheduler) Trigger(ctx context.Context) (*Report, bool) {
	s.mu.Lock()
	if s.running {
		s.skipped++
		s.mu.Unlock()
		s.log.Info("scan already running, skipping")
		return nil, false
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.lastRun = time.Now()
		s.runs++
		s.mu.Unlock()
	}()

	return s.runner.Run(ctx, RunOptions{}), true
}

// SchedulerStatus is a snapshot of scheduler counters.
type SchedulerStatus struct {
	Running bool      `json:"running"`
	LastRun time.Time `json:"lastRun"`
	Runs    int       `json:"runs"`
	Skipped int       `json:"skipped"`
}

// Status returns the current counters.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStatus{Running: s.running, LastRun: s.lastRun, Runs: s.runs, Skipped: s.skipped}
}
