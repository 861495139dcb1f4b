// Package scheduler runs the portal's periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/docsafe/internal/tasks"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule reports whether schedule is a five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Job is the work run on every tick.
type Job func(ctx context.Context) error

// Enqueuer hands tasks to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, tasks ...backlite.Task) ([]string, error)
}

// EnqueueCleanup returns a Job that queues an auth event cleanup task.
func EnqueueCleanup(q Enqueuer, retentionDays int) Job {
	return func(ctx context.Context) error {
		ids, err := q.Enqueue(ctx, tasks.CleanupAuthEventsTask{RetentionDays: retentionDays})
		if err != nil {
			return fmt.Errorf("enqueue auth event cleanup: %w", err)
		}
		log.Debug().Strs("task_ids", ids).Msg("Queued auth event cleanup")
		return nil
	}
}

// DirectCleanup returns a Job that deletes old auth events in place. Used
// when the task queue is disabled.
func DirectCleanup(cleaner tasks.AuthEventCleaner, retentionDays int) Job {
	process := tasks.CleanupAuthEventsProcessor(cleaner)
	return func(ctx context.Context) error {
		return process(ctx, tasks.CleanupAuthEventsTask{RetentionDays: retentionDays})
	}
}

// AuditCleanupScheduler triggers auth event retention on a cron schedule.
type AuditCleanupScheduler struct {
	schedule string
	job      Job
	cron     *cron.Cron

	mu        sync.Mutex
	isRunning bool
	entryID   cron.EntryID
	ctx       context.Context
}

func NewAuditCleanupScheduler(schedule string, job Job) *AuditCleanupScheduler {
	return &AuditCleanupScheduler{
		schedule: schedule,
		job:      job,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start schedules the job. It stops when ctx is cancelled.
func (s *AuditCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	s.ctx = ctx
	entryID, err := s.cron.AddFunc(s.schedule, s.run)
	if err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}
	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	log.Info().Str("schedule", s.schedule).Time("next_run", s.cron.Entry(entryID).Next).Msg("Audit cleanup scheduler started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits for a running job to finish.
func (s *AuditCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	log.Info().Msg("Audit cleanup scheduler stopped")
}

// NextRun returns the next scheduled run, zero when stopped.
func (s *AuditCleanupScheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// RunNow runs the job immediately.
func (s *AuditCleanupScheduler) RunNow(ctx context.Context) error {
	return s.job(ctx)
}

func (s *AuditCleanupScheduler) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if err := s.job(ctx); err != nil {
		log.Error().Err(err).Msg("Audit cleanup failed")
	}
}
