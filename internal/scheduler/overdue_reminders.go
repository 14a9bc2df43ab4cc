package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarydesk/internal/config"
	"github.com/mrlokans/librarydesk/internal/tasks"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// NextRun returns the first activation of schedule after from.
func NextRun(schedule string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// OverdueReminderScheduler enqueues the overdue reminder sweep on a cron
// schedule. The sweep itself runs on the task queue.
type OverdueReminderScheduler struct {
	enqueuer tasks.Enqueuer
	config   config.Reminders

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewOverdueReminderScheduler(enqueuer tasks.Enqueuer, cfg config.Reminders, loc *time.Location) *OverdueReminderScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &OverdueReminderScheduler{
		enqueuer: enqueuer,
		config:   cfg,
		cron:     cron.New(cron.WithParser(parser), cron.WithLocation(loc)),
	}
}

// Start begins the scheduler if reminders are enabled. It stops by itself
// when ctx is cancelled.
func (s *OverdueReminderScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		log.Info().Msg("overdue reminder scheduler: disabled")
		return nil
	}
	if err := ValidateSchedule(s.config.Schedule); err != nil {
		return err
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.enqueueSweep("schedule")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder sweep: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	next, _ := NextRun(s.config.Schedule, time.Now())
	log.Info().Str("schedule", s.config.Schedule).Time("next_run", next).Msg("overdue reminder scheduler: started")

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job to finish.
func (s *OverdueReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Info().Msg("overdue reminder scheduler: stopped")
}

// RunNow enqueues a sweep immediately and returns its task ID.
func (s *OverdueReminderScheduler) RunNow(triggeredBy string) (string, error) {
	ids, err := s.enqueuer.Enqueue(tasks.OverdueReminderSweepTask{TriggeredBy: triggeredBy})
	if err != nil {
		return "", fmt.Errorf("enqueue reminder sweep: %w", err)
	}
	return ids[0], nil
}

func (s *OverdueReminderScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next sweep will be enqueued, nil when stopped.
func (s *OverdueReminderScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *OverdueReminderScheduler) enqueueSweep(triggeredBy string) {
	if _, err := s.RunNow(triggeredBy); err != nil {
		log.Error().Err(err).Msg("overdue reminder scheduler: failed to enqueue sweep")
	}
}
