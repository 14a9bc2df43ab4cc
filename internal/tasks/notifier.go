package tasks

import (
	"context"
	"errors"
	"strings"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/database/members"
	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/mailer"
)

// Notifier turns password events into queued emails. It never blocks the
// caller on SMTP.
type Notifier struct {
	db       *gorm.DB
	enqueuer Enqueuer
}

func NewNotifier(db *gorm.DB, enqueuer Enqueuer) *Notifier {
	return &Notifier{db: db, enqueuer: enqueuer}
}

func (n *Notifier) PasswordChanged(ctx context.Context, user *entities.User) {
	to := n.recipient(ctx, user)
	if to == "" {
		log.Debug().Str("username", user.Username).Msg("no email address, password change notice skipped")
		return
	}
	n.enqueue(NewSendEmailTask(EmailKindPasswordChanged, mailer.PasswordChangedMessage(user.Username, to)))
}

func (n *Notifier) PasswordReset(ctx context.Context, user *entities.User, by string) {
	to := n.recipient(ctx, user)
	if to == "" {
		log.Debug().Str("username", user.Username).Msg("no email address, password reset notice skipped")
		return
	}
	n.enqueue(NewSendEmailTask(EmailKindPasswordReset, mailer.AdminResetMessage(by, user.Username, to)))
}

// recipient prefers the account email, then a member whose email or name
// equals the username.
func (n *Notifier) recipient(ctx context.Context, user *entities.User) string {
	if email := strings.TrimSpace(user.Email); email != "" {
		return email
	}
	if n.db == nil {
		return ""
	}
	member, err := members.NewRepository(n.db.WithContext(ctx)).FindByNameOrEmail(user.Username)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Warn().Err(err).Str("username", user.Username).Msg("failed to look up member email")
		}
		return ""
	}
	return strings.TrimSpace(member.Email)
}

func (n *Notifier) enqueue(task SendEmailTask) {
	if n.enqueuer == nil {
		return
	}
	if _, err := n.enqueuer.Enqueue(backlite.Task(task)); err != nil {
		log.Error().Err(err).Str("kind", task.Kind).Msg("failed to enqueue notification email")
	}
}
