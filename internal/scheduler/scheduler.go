// Package scheduler drives the weekly betting lifecycle and the result
// polling loop on UTC cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/podium-engine/internal/betting"
	"github.com/yourusername/podium-engine/internal/models"
	"github.com/yourusername/podium-engine/internal/odds"
	"github.com/yourusername/podium-engine/internal/rating"
	"github.com/yourusername/podium-engine/internal/service"
)

const (
	// All lifecycle boundaries are UTC.
	specWeekOpen     = "0 0 * * 1"   // Monday 00:00: ensure the new week exists
	specOpeningOdds  = "5 0 * * 1"   // Monday 00:05: publish opening odds
	specWeekClose    = "59 23 * * 4" // Thursday 23:59: stop accepting bets
	specWeekFinalize = "0 20 * * 0"  // Sunday 20:00: settle the week
	specRollover     = "0 0 1 * *"   // 1st 00:00: archive month, soft reset
	specWindowCounts = "30 0 * * *"  // daily: refresh 30-day race counters
)

// Scheduler manages the recurring jobs of the engine
type Scheduler struct {
	cron            *cron.Cron
	cycle           *betting.Cycle
	settler         *betting.Settler
	engine          *odds.Engine
	updater         *rating.Updater
	ingestion       *service.IngestionService
	archive         *service.ArchiveService
	logger          *logrus.Logger
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(
	cycle *betting.Cycle,
	settler *betting.Settler,
	engine *odds.Engine,
	updater *rating.Updater,
	ingestion *service.IngestionService,
	archive *service.ArchiveService,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		cycle:           cycle,
		settler:         settler,
		engine:          engine,
		updater:         updater,
		ingestion:       ingestion,
		archive:         archive,
		logger:          logger,
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
	}
}

// ScheduleWeekLifecycle registers the open, odds, close, finalize, rollover
// and counter-refresh jobs
func (s *Scheduler) ScheduleWeekLifecycle() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule jobs while scheduler is running")
	}

	jobs := []struct {
		spec string
		name string
		fn   func(ctx context.Context) error
	}{
		{specWeekOpen, "week-open", s.openWeek},
		{specOpeningOdds, "opening-odds", s.publishOpeningOdds},
		{specWeekClose, "week-close", s.closeWeek},
		{specWeekFinalize, "week-finalize", s.finalizeWeek},
		{specRollover, "month-rollover", s.rolloverMonth},
		{specWindowCounts, "window-counts", s.refreshWindowCounts},
	}

	for _, job := range jobs {
		if err := s.addJob(job.spec, job.name, job.fn); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleResultPolling registers the results ingestion loop
func (s *Scheduler) ScheduleResultPolling(interval time.Duration, lookback time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule jobs while scheduler is running")
	}

	if interval < 10*time.Second {
		interval = 10 * time.Second
	}

	return s.addJob(fmt.Sprintf("@every %s", interval), "result-polling", func(ctx context.Context) error {
		now := time.Now().UTC()
		_, err := s.ingestion.IngestWindow(ctx, now.Add(-lookback), now)
		return err
	})
}

// addJob wraps a job with a timeout context and error logging.
// Caller holds the lock.
func (s *Scheduler) addJob(spec, name string, fn func(ctx context.Context) error) error {
	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			s.logger.WithFields(logrus.Fields{
				"job":   name,
				"error": err.Error(),
			}).Error("Scheduled job failed")
			return
		}

		s.logger.WithFields(logrus.Fields{
			"job":      name,
			"duration": time.Since(start).String(),
		}).Debug("Scheduled job completed")
	}

	entryID, err := s.cron.AddFunc(spec, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"job":  name,
		"spec": spec,
	}).Info("Scheduled job")

	return nil
}

func (s *Scheduler) openWeek(ctx context.Context) error {
	week, err := s.cycle.EnsureCurrentWeek(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"week_id": week.ID,
		"status":  week.Status,
	}).Info("Current betting week ensured")
	return nil
}

func (s *Scheduler) publishOpeningOdds(ctx context.Context) error {
	week, err := s.cycle.EnsureCurrentWeek(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	_, err = s.engine.Recompute(ctx, week.ID)
	return err
}

func (s *Scheduler) closeWeek(ctx context.Context) error {
	week, err := s.cycle.EnsureCurrentWeek(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	return s.cycle.CloseWeek(ctx, week.ID)
}

func (s *Scheduler) finalizeWeek(ctx context.Context) error {
	week, err := s.cycle.EnsureCurrentWeek(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if _, err := s.settler.FinalizeWeek(ctx, week.ID); err != nil {
		// A concurrent trigger already settled the week.
		if errors.Is(err, models.ErrAlreadySettled) {
			return nil
		}
		return err
	}
	return nil
}

func (s *Scheduler) rolloverMonth(ctx context.Context) error {
	return s.archive.RolloverMonth(ctx, time.Now().UTC())
}

func (s *Scheduler) refreshWindowCounts(ctx context.Context) error {
	return s.updater.RefreshWindowCounts(ctx, time.Now().UTC())
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("Scheduler stop timed out with jobs still running")
	}

	s.isRunning = false
	s.logger.Info("Scheduler stopped")
	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled job run
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (nextRun.IsZero() || entry.Next.Before(nextRun)) {
			nextRun = entry.Next
		}
	}
	return nextRun
}
