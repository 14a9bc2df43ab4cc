package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/database/members"
	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/mailer"
	"github.com/mrlokans/librarydesk/internal/services"
	"github.com/mrlokans/librarydesk/internal/settingsstore"
)

func TestNotifier_Recipient(t *testing.T) {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := members.NewRepository(db.DB)
	require.NoError(t, repo.Create(&entities.Member{Name: "clerk", Email: "clerk@library.test"}))
	require.NoError(t, repo.Create(&entities.Member{Name: "Bob", Email: "bob@library.test"}))
	require.NoError(t, repo.Create(&entities.Member{Name: "noemail"}))

	ctx := context.Background()
	enqueuer := &fakeEnqueuer{}
	notifier := NewNotifier(db.DB, enqueuer)

	notifier.PasswordChanged(ctx, &entities.User{Username: "ann", Email: "ann@example.com"})
	notifier.PasswordChanged(ctx, &entities.User{Username: "clerk"})
	notifier.PasswordReset(ctx, &entities.User{Username: "bob@library.test"}, "root")
	notifier.PasswordChanged(ctx, &entities.User{Username: "noemail"})
	notifier.PasswordChanged(ctx, &entities.User{Username: "stranger"})

	emails := enqueuer.emails()
	require.Len(t, emails, 3)
	assert.Equal(t, "ann@example.com", emails[0].To)
	assert.Equal(t, EmailKindPasswordChanged, emails[0].Kind)
	assert.Equal(t, "clerk@library.test", emails[1].To)
	assert.Equal(t, "bob@library.test", emails[2].To)
	assert.Equal(t, EmailKindPasswordReset, emails[2].Kind)
	assert.Contains(t, emails[2].Body, "administrator 'root'")
}

func TestNotifier_EnqueueFailureIsSwallowed(t *testing.T) {
	notifier := NewNotifier(nil, &fakeEnqueuer{err: errors.New("queue closed")})
	assert.NotPanics(t, func() {
		notifier.PasswordChanged(context.Background(), &entities.User{Username: "ann", Email: "ann@example.com"})
	})
}

func TestSweepOverdueLoans(t *testing.T) {
	due := time.Date(2024, time.March, 8, 10, 0, 0, 0, time.UTC)
	lister := fakeOverdue{loans: []services.OverdueLoan{
		{
			LoanView:   entities.LoanView{LoanID: 1, BookTitle: "Dune", MemberName: "Ann", MemberEmail: "ann@example.com", DateDue: due},
			LateDays:   2,
			AccruedFee: 1.00,
		},
		{
			LoanView: entities.LoanView{LoanID: 2, BookTitle: "Emma", MemberName: "Bob", DateDue: due},
			LateDays: 2,
		},
	}}
	enqueuer := &fakeEnqueuer{}

	result, err := SweepOverdueLoans(context.Background(), lister, enqueuer)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Overdue: 2, Enqueued: 1, Skipped: 1}, result)

	emails := enqueuer.emails()
	require.Len(t, emails, 1)
	assert.Equal(t, EmailKindOverdueReminder, emails[0].Kind)
	assert.Equal(t, "ann@example.com", emails[0].To)
	assert.Contains(t, emails[0].Body, "2 days overdue")

	_, err = SweepOverdueLoans(context.Background(), fakeOverdue{err: errors.New("boom")}, enqueuer)
	assert.Error(t, err)

	assert.Error(t, OverdueReminderProcessor(nil, enqueuer)(context.Background(), OverdueReminderSweepTask{}))
}

func TestSMTPTestProcessor(t *testing.T) {
	ctx := context.Background()

	t.Run("sends to the SMTP user", func(t *testing.T) {
		sender := newFakeSender(mailer.Result{Success: true})
		settings := fakeSettings{smtp: settingsstore.SMTPSettings{Host: "smtp.example.com", Port: 587, User: "desk@example.com", Password: "x"}}

		require.NoError(t, SMTPTestProcessor(settings, sender)(ctx, SMTPTestTask{RequestedBy: "root"}))
		msg := <-sender.sent
		assert.Equal(t, "desk@example.com", msg.To)
		assert.Equal(t, "Library SMTP test", msg.Subject)
	})

	t.Run("failure is the task outcome", func(t *testing.T) {
		sender := newFakeSender(mailer.Result{Message: mailer.MessageNotConfigured})
		settings := fakeSettings{smtp: settingsstore.SMTPSettings{User: "desk@example.com"}}

		err := SMTPTestProcessor(settings, sender)(ctx, SMTPTestTask{RequestedBy: "root"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), mailer.MessageNotConfigured)
	})

	t.Run("no SMTP user", func(t *testing.T) {
		sender := newFakeSender(mailer.Result{Success: true})
		err := SMTPTestProcessor(fakeSettings{}, sender)(ctx, SMTPTestTask{})
		require.Error(t, err)
		assert.Empty(t, sender.sent)
	})
}
