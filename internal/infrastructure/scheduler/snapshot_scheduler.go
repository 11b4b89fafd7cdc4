// Package scheduler runs the optional daily job that stores a report
// snapshot for every funnel.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultHour          = 2
	defaultMinute        = 0
	defaultCheckInterval = time.Minute
	defaultJobTimeout    = 5 * time.Minute
)

// SnapshotGenerator stores one report per funnel
type SnapshotGenerator interface {
	GenerateAll(ctx context.Context) (int, error)
}

// Config holds the snapshot scheduler configuration
type Config struct {
	Enabled bool
	// Schedule is a daily cron expression "minute hour * * *"
	Schedule      string
	CheckInterval time.Duration
	JobTimeout    time.Duration
}

// ParseCronSchedule extracts the hour and minute of a daily cron expression.
// An empty expression yields 02:00. Only the first two fields are read.
func ParseCronSchedule(expr string) (hour, minute int, err error) {
	parts := strings.Fields(expr)
	if len(parts) == 0 {
		return defaultHour, defaultMinute, nil
	}
	if len(parts) < 2 {
		return defaultHour, defaultMinute, fmt.Errorf("%w: %q", ErrInvalidSchedule, expr)
	}

	minute, err = parseField(parts[0], defaultMinute, 59)
	if err != nil {
		return defaultHour, defaultMinute, fmt.Errorf("%w: minute: %v", ErrInvalidSchedule, err)
	}
	hour, err = parseField(parts[1], defaultHour, 23)
	if err != nil {
		return defaultHour, defaultMinute, fmt.Errorf("%w: hour: %v", ErrInvalidSchedule, err)
	}
	return hour, minute, nil
}

func parseField(s string, def, max int) (int, error) {
	if s == "*" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > max {
		return 0, fmt.Errorf("%d out of range 0-%d", v, max)
	}
	return v, nil
}

// SnapshotScheduler generates a report for every funnel once a day
type SnapshotScheduler struct {
	config    Config
	hour      int
	minute    int
	generator SnapshotGenerator
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
	lastRunAt   *time.Time
	lastResult  *RunResult
}

// RunResult summarises one snapshot run
type RunResult struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Generated int           `json:"generated"`
	Error     string        `json:"error,omitempty"`
}

// NewSnapshotScheduler creates a scheduler. The schedule is validated here.
func NewSnapshotScheduler(config Config, generator SnapshotGenerator, logger *zap.Logger) (*SnapshotScheduler, error) {
	hour, minute, err := ParseCronSchedule(config.Schedule)
	if err != nil {
		return nil, err
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = defaultCheckInterval
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaultJobTimeout
	}
	return &SnapshotScheduler{
		config:    config,
		hour:      hour,
		minute:    minute,
		generator: generator,
		logger:    logger.Named("snapshot_scheduler"),
		now:       time.Now,
	}, nil
}

// Start launches the check loop. It is a no-op when disabled or already running.
func (s *SnapshotScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Snapshot scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Snapshot scheduler started",
		zap.Int("hour", s.hour),
		zap.Int("minute", s.minute),
		zap.Duration("check_interval", s.config.CheckInterval),
		zap.Time("next_run_at", s.NextRunAt()),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight run, bounded by ctx
func (s *SnapshotScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Snapshot scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Snapshot scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *SnapshotScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAndRun(ctx)
		}
	}
}

// checkAndRun runs the snapshot when the tick falls on the scheduled minute,
// at most once per calendar day.
func (s *SnapshotScheduler) checkAndRun(ctx context.Context) bool {
	now := s.now()
	today := now.Format(time.DateOnly)

	s.mu.Lock()
	if s.lastRunDate == today || !s.due(now) {
		s.mu.Unlock()
		return false
	}
	s.lastRunDate = today
	s.mu.Unlock()

	s.run(ctx)
	return true
}

func (s *SnapshotScheduler) due(now time.Time) bool {
	return now.Hour() == s.hour && now.Minute() == s.minute
}

func (s *SnapshotScheduler) run(ctx context.Context) *RunResult {
	started := s.now()
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	s.logger.Info("Generating daily funnel snapshots")
	generated, err := s.generator.GenerateAll(jobCtx)

	result := &RunResult{
		StartedAt: started,
		Duration:  time.Since(started),
		Generated: generated,
	}
	if err != nil {
		result.Error = err.Error()
		s.logger.Error("Daily funnel snapshots incomplete",
			zap.Int("generated", generated),
			zap.Error(err),
		)
	} else {
		s.logger.Info("Daily funnel snapshots stored", zap.Int("generated", generated))
	}

	s.mu.Lock()
	s.lastRunAt = &started
	s.lastResult = result
	s.mu.Unlock()
	return result
}

// NextRunAt returns the next scheduled run time
func (s *SnapshotScheduler) NextRunAt() time.Time {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())

	s.mu.Lock()
	ranToday := s.lastRunDate == now.Format(time.DateOnly)
	s.mu.Unlock()

	if ranToday || now.After(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Status returns the scheduler state for diagnostics
func (s *SnapshotScheduler) Status() map[string]any {
	next := s.NextRunAt()

	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{
		"enabled":     s.config.Enabled,
		"is_running":  s.isRunning,
		"schedule":    fmt.Sprintf("%02d:%02d daily", s.hour, s.minute),
		"last_run_at": s.lastRunAt,
		"last_result": s.lastResult,
		"next_run_at": next,
	}
}
