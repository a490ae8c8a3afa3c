package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
)

// DefaultSyncSchedule runs the sync once a day at 06:00
const DefaultSyncSchedule = "0 6 * * *"

// Scheduler runs the sync job on a cron schedule
type Scheduler struct {
	sync     *SyncService
	cron     *cron.Cron
	schedule string
	entry    cron.EntryID
	logger   logger.Logger
}

// NewScheduler creates a scheduler; an empty schedule uses DefaultSyncSchedule
func NewScheduler(sync *SyncService, schedule string, log logger.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSyncSchedule
	}
	return &Scheduler{
		sync:     sync,
		cron:     cron.New(),
		schedule: schedule,
		logger:   logger.With(log, "scheduler"),
	}
}

// Start registers the sync job and starts the cron loop
func (s *Scheduler) Start() error {
	id, err := s.cron.AddFunc(s.schedule, s.runSync)
	if err != nil {
		return apperrors.InvalidInput("invalid sync schedule "+s.schedule, err)
	}
	s.entry = id

	s.cron.Start()
	s.logger.Info("Sync scheduler started", "schedule", s.schedule, "next_run", s.NextRun())
	return nil
}

// Stop stops the cron loop and waits for a job started by it to return
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduled sync still running at shutdown")
	}
	s.logger.Info("Sync scheduler stopped")
}

// NextRun returns the next scheduled time, or the zero time before Start
func (s *Scheduler) NextRun() time.Time {
	if s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

func (s *Scheduler) runSync() {
	s.logger.Info("Starting scheduled sync")

	status, err := s.sync.Run(context.Background(), SyncOptions{Summarize: true})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrCodeConflict) {
			s.logger.Info("Skipping scheduled sync, a run is already in progress")
			return
		}
		s.logger.Error("Scheduled sync failed", err)
		return
	}

	s.logger.Info("Scheduled sync completed",
		"fetched", status.Fetched,
		"skipped", status.Skipped,
		"press_releases", status.PressReleasesFetched,
		"errors", len(status.Errors),
	)
}
