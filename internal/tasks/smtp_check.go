package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarydesk/internal/mailer"
)

// SMTPTestTask sends a test message to the configured SMTP user. The task
// status is the outcome: success when the server accepted the message.
type SMTPTestTask struct {
	RequestedBy string `json:"requested_by"`
}

// Config returns the queue configuration for SMTP test tasks.
func (t SMTPTestTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "smtp_test",
		MaxAttempts: 1,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SMTPTestProcessor creates a processor function for SMTPTestTask.
func SMTPTestProcessor(settings mailer.SettingsLoader, sender Sender) backlite.QueueProcessor[SMTPTestTask] {
	return func(ctx context.Context, task SMTPTestTask) error {
		if settings == nil || sender == nil {
			return errors.New("mailer not configured")
		}

		current, err := settings.Load(ctx)
		if err != nil {
			return fmt.Errorf("load SMTP settings: %w", err)
		}
		if current.SMTP.User == "" {
			return errors.New("set the SMTP user before testing, the test message is sent to that address")
		}

		res := sender.Send(ctx, mailer.TestMessage(current.SMTP.User))
		if !res.Success {
			log.Warn().Str("requested_by", task.RequestedBy).Str("reason", res.Message).Msg("SMTP test failed")
			return fmt.Errorf("SMTP test failed: %s", res.Message)
		}

		log.Info().Str("requested_by", task.RequestedBy).Str("to", current.SMTP.User).Msg("SMTP test email sent")
		return nil
	}
}

// NewSMTPTestQueue creates a backlite queue for SMTP test tasks.
func NewSMTPTestQueue(settings mailer.SettingsLoader, sender Sender) backlite.Queue {
	return backlite.NewQueue(SMTPTestProcessor(settings, sender))
}
