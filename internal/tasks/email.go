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

// Sender delivers one email and reports the outcome.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) mailer.Result
}

// Email kinds, recorded with each task for logs.
const (
	EmailKindPasswordChanged = "password_changed"
	EmailKindPasswordReset   = "password_reset"
	EmailKindOverdueReminder = "overdue_reminder"
)

// SendEmailTask delivers a notification email. Delivery is best-effort: one
// attempt, no retries.
type SendEmailTask struct {
	Kind    string `json:"kind"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func NewSendEmailTask(kind string, msg mailer.Message) SendEmailTask {
	return SendEmailTask{Kind: kind, To: msg.To, Subject: msg.Subject, Body: msg.Body}
}

// Config returns the queue configuration for email tasks.
func (t SendEmailTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "send_email",
		MaxAttempts: 1,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   72 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SendEmailProcessor creates a processor function for SendEmailTask. An
// unconfigured SMTP server is not a task failure.
func SendEmailProcessor(sender Sender) backlite.QueueProcessor[SendEmailTask] {
	return func(ctx context.Context, task SendEmailTask) error {
		if sender == nil {
			return errors.New("email sender not configured")
		}

		res := sender.Send(ctx, mailer.Message{To: task.To, Subject: task.Subject, Body: task.Body})
		switch {
		case res.Success:
			log.Info().Str("kind", task.Kind).Str("to", task.To).Msg("notification email sent")
			return nil
		case res.Message == mailer.MessageNotConfigured:
			log.Info().Str("kind", task.Kind).Msg("notification email skipped: SMTP not configured")
			return nil
		default:
			return fmt.Errorf("send %s email to %s: %s", task.Kind, task.To, res.Message)
		}
	}
}

// NewSendEmailQueue creates a backlite queue for email tasks.
func NewSendEmailQueue(sender Sender) backlite.Queue {
	return backlite.NewQueue(SendEmailProcessor(sender))
}
