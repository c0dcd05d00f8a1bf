package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/cacheproxy/pkg/cache"
)

// Cache is the part of the response cache the jobs use. *cache.Store
// implements it.
type Cache interface {
	Stats() cache.Stats
	Limits() (maxElement, maxTotal int64)
	Clear()
}

// Config selects the job schedules.
type Config struct {
	// ReportSchedule logs cache statistics. Empty disables the report.
	ReportSchedule string

	// FlushSchedule empties the cache. Empty disables flushing.
	FlushSchedule string
}

// Scheduler runs cache maintenance jobs.
type Scheduler struct {
	cache   Cache
	config  Config
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// New creates a scheduler for c.
func New(c Cache, cfg Config) *Scheduler {
	return &Scheduler{
		cache:  c,
		config: cfg,
		cron:   cron.New(),
		logger: slog.Default().With("component", "cache.scheduler"),
	}
}

// Start registers the configured jobs and starts the cron runner. It stops
// by itself when ctx is cancelled. With no schedules configured it does
// nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	if s.config.ReportSchedule == "" && s.config.FlushSchedule == "" {
		s.logger.Info("no cache maintenance schedules configured, skipping scheduler")
		return nil
	}

	if s.config.ReportSchedule != "" {
		if _, err := s.cron.AddFunc(s.config.ReportSchedule, s.runReport); err != nil {
			return fmt.Errorf("invalid report schedule %q: %w", s.config.ReportSchedule, err)
		}
	}
	if s.config.FlushSchedule != "" {
		if _, err := s.cron.AddFunc(s.config.FlushSchedule, s.runFlush); err != nil {
			return fmt.Errorf("invalid flush schedule %q: %w", s.config.FlushSchedule, err)
		}
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("cache scheduler started",
		"report_schedule", s.config.ReportSchedule,
		"flush_schedule", s.config.FlushSchedule,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runReport() {
	st := s.cache.Stats()
	maxElement, maxTotal := s.cache.Limits()

	var hitRatio float64
	if lookups := st.Hits + st.Misses; lookups > 0 {
		hitRatio = float64(st.Hits) / float64(lookups)
	}

	s.logger.Info("cache report",
		"entries", st.Entries,
		"bytes", st.Bytes,
		"max_total_bytes", maxTotal,
		"max_element_bytes", maxElement,
		"hits", st.Hits,
		"misses", st.Misses,
		"hit_ratio", hitRatio,
		"evictions", st.Evictions,
		"rejected", st.Rejected,
	)
}

func (s *Scheduler) runFlush() {
	before := s.cache.Stats()
	s.cache.Clear()
	s.logger.Info("cache flushed",
		"entries", before.Entries,
		"bytes", before.Bytes,
	)
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("cache scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the earliest upcoming job time, or nil when nothing is
// scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *time.Time
	for _, e := range s.cron.Entries() {
		if e.Next.IsZero() {
			continue
		}
		if next == nil || e.Next.Before(*next) {
			t := e.Next
			next = &t
		}
	}
	return next
}
