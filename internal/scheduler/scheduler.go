// Package scheduler runs periodic housekeeping on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type replayPurger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

type Scheduler struct {
	cron     *cron.Cron
	replays  replayPurger
	logger   *slog.Logger
	schedule string
	now      func() time.Time
}

func New(replays replayPurger, logger *slog.Logger, schedule string) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		replays:  replays,
		logger:   logger.With("component", "scheduler"),
		schedule: schedule,
		now:      time.Now,
	}
}

// Start registers the jobs and starts the cron loop. An invalid schedule is
// returned before anything runs.
func (s *Scheduler) Start() error {
	id, err := s.cron.AddFunc(s.schedule, s.PurgeReplays)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("replay purge scheduled", "schedule", s.schedule, "next_run", s.cron.Entry(id).Next)
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// PurgeReplays drops stored idempotent responses whose retention ran out.
func (s *Scheduler) PurgeReplays() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	started := s.now()
	n, err := s.replays.Purge(ctx, started.UTC())
	if err != nil {
		s.logger.Error("replay purge failed", "error", err)
		return
	}
	s.logger.Info("replay purge complete", "removed", n, "duration_ms", s.now().Sub(started).Milliseconds())
}
