package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarydesk/internal/mailer"
	"github.com/mrlokans/librarydesk/internal/services"
)

// OverdueLister provides the open loans that are past due.
type OverdueLister interface {
	OverdueLoans(ctx context.Context) ([]services.OverdueLoan, error)
}

// OverdueReminderSweepTask enqueues one reminder email per overdue loan
// whose member has an email address.
type OverdueReminderSweepTask struct {
	TriggeredBy string `json:"triggered_by"`
}

// Config returns the queue configuration for the reminder sweep.
func (t OverdueReminderSweepTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_reminders",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SweepResult counts what one sweep did.
type SweepResult struct {
	Overdue  int
	Enqueued int
	Skipped  int
}

// SweepOverdueLoans builds the reminder emails and enqueues them in one batch.
func SweepOverdueLoans(ctx context.Context, lister OverdueLister, enqueuer Enqueuer) (SweepResult, error) {
	overdue, err := lister.OverdueLoans(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list overdue loans: %w", err)
	}

	result := SweepResult{Overdue: len(overdue)}
	batch := make([]backlite.Task, 0, len(overdue))
	for _, loan := range overdue {
		if loan.MemberEmail == "" {
			result.Skipped++
			continue
		}
		msg := mailer.OverdueReminderMessage(mailer.OverdueReminder{
			MemberName:  loan.MemberName,
			MemberEmail: loan.MemberEmail,
			BookTitle:   loan.BookTitle,
			DueDate:     loan.DateDue,
			LateDays:    loan.LateDays,
			AccruedFee:  loan.AccruedFee,
		})
		batch = append(batch, NewSendEmailTask(EmailKindOverdueReminder, msg))
	}

	if len(batch) > 0 {
		if _, err := enqueuer.Enqueue(batch...); err != nil {
			return result, fmt.Errorf("enqueue reminders: %w", err)
		}
	}
	result.Enqueued = len(batch)
	return result, nil
}

// OverdueReminderProcessor creates a processor function for the sweep.
func OverdueReminderProcessor(lister OverdueLister, enqueuer Enqueuer) backlite.QueueProcessor[OverdueReminderSweepTask] {
	return func(ctx context.Context, task OverdueReminderSweepTask) error {
		if lister == nil || enqueuer == nil {
			return errors.New("overdue reminders not configured")
		}

		result, err := SweepOverdueLoans(ctx, lister, enqueuer)
		if err != nil {
			return err
		}
		log.Info().Str("triggered_by", task.TriggeredBy).Int("overdue", result.Overdue).
			Int("enqueued", result.Enqueued).Int("skipped_no_email", result.Skipped).
			Msg("overdue reminder sweep finished")
		return nil
	}
}

// NewOverdueReminderQueue creates a backlite queue for the reminder sweep.
func NewOverdueReminderQueue(lister OverdueLister, enqueuer Enqueuer) backlite.Queue {
	return backlite.NewQueue(OverdueReminderProcessor(lister, enqueuer))
}
