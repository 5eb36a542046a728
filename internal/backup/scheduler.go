package backup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs build-then-retain cycles on a fixed interval. Each
// instance owns its own state; construct one per Engine (no process-wide
// singletons), so tests can run independent schedulers side by side.
type Scheduler struct {
	engine        *Engine
	logger        *zap.Logger
	includeCovers bool
	retention     int

	mu         sync.Mutex
	running    bool
	stop       chan struct{}
	lastRun    time.Time
	lastResult string
}

// Status is the externally visible scheduler state. BackupCount is computed
// from a fresh listing on every call, never cached.
type Status struct {
	BackupDir        string     `json:"backupDir"`
	ScheduledBackups bool       `json:"scheduledBackups"`
	InProgress       bool       `json:"inProgress"`
	LastBackup       *time.Time `json:"lastBackup"`
	LastResult       string     `json:"lastResult"`
	BackupCount      int        `json:"backupCount"`
}

// NewScheduler creates a scheduler driving the given engine. includeCovers
// is the configured default for scheduled builds; retention <= 0 disables
// pruning after each build.
func NewScheduler(engine *Engine, includeCovers bool, retention int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		engine:        engine,
		logger:        logger,
		includeCovers: includeCovers,
		retention:     retention,
	}
}

// Start arms a recurring timer firing every intervalHours hours. Calling
// Start while already running is a logged no-op; a second timer is never
// created.
func (s *Scheduler) Start(intervalHours int) {
	if intervalHours <= 0 {
		intervalHours = 24
	}
	s.startEvery(time.Duration(intervalHours) * time.Hour)
}

// startEvery is the duration-granular form of Start, used directly by tests.
func (s *Scheduler) startEvery(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Info("scheduled backups already running")
		return
	}

	s.running = true
	s.stop = make(chan struct{})
	go s.loop(interval, s.stop)

	s.logger.Info("scheduled backups started", zap.Duration("interval", interval))
}

// Stop disarms the timer. A no-op when already stopped. An in-flight cycle
// is not interrupted; it finishes and no further ticks fire.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	close(s.stop)
	s.running = false
	s.logger.Info("scheduled backups stopped")
}

// Running reports whether the timer is currently armed.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns a snapshot of the scheduler state plus a fresh bundle
// count from the backup directory.
func (s *Scheduler) Status() (Status, error) {
	bundles, err := s.engine.ListBackups()
	if err != nil {
		return Status{}, fmt.Errorf("listing backups: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		BackupDir:        s.engine.Dir(),
		ScheduledBackups: s.running,
		InProgress:       s.engine.Busy(),
		LastResult:       s.lastResult,
		BackupCount:      len(bundles),
	}
	if !s.lastRun.IsZero() {
		t := s.lastRun
		st.LastBackup = &t
	}
	return st, nil
}

func (s *Scheduler) loop(interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunCycle(context.Background())
		case <-stop:
			return
		}
	}
}

// RunCycle executes one build-then-retain cycle under the engine guard.
// When a previous cycle (or a manual build/restore holding the same guard)
// is still in flight, the cycle is skipped entirely rather than queued.
// Failures are recorded in the status and never halt the schedule.
func (s *Scheduler) RunCycle(ctx context.Context) {
	if !s.engine.TryBegin() {
		s.logger.Info("skipping scheduled backup, previous cycle still in progress")
		return
	}
	defer s.engine.End()

	result, err := s.engine.CreateBackup(ctx, s.includeCovers)

	s.mu.Lock()
	s.lastRun = time.Now().UTC()
	if err != nil {
		s.lastResult = fmt.Sprintf("backup failed: %v", err)
	} else {
		s.lastResult = fmt.Sprintf("created %s (%s)", result.Filename, humanSize(result.Size))
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled backup failed", zap.Error(err))
		return
	}

	if s.retention > 0 {
		if _, err := s.engine.ApplyRetention(s.retention); err != nil {
			s.logger.Error("retention pass failed", zap.Error(err))
		}
	}
}
