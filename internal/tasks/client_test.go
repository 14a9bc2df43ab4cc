package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarydesk/internal/config"
	"github.com/mrlokans/librarydesk/internal/mailer"
)

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "library.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	_, err = os.Stat(filepath.Join(tmpDir, "library-tasks.db"))
	assert.NoError(t, err, "tasks database should be created")

	assert.NoError(t, client.Close())
}

func TestTasksDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "library-tasks.db"), TasksDBPath(filepath.Join("data", "library.db")))
	assert.Equal(t, "librarydesk-tasks.db", TasksDBPath("librarydesk.db"))
}

func TestClientStartStop(t *testing.T) {
	client, err := NewClient(filepath.Join(t.TempDir(), "library.db"), Config{Workers: 1, ReleaseAfter: time.Minute, CleanupInterval: time.Hour})
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

func TestSendEmailQueue(t *testing.T) {
	client, err := NewClient(filepath.Join(t.TempDir(), "library.db"), Config{Workers: 1, ReleaseAfter: time.Minute, CleanupInterval: time.Hour})
	require.NoError(t, err)
	defer client.Close()

	sender := newFakeSender(mailer.Result{Success: true})
	client.Register(NewSendEmailQueue(sender))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	ids, err := client.Enqueue(NewSendEmailTask(EmailKindPasswordChanged, mailer.PasswordChangedMessage("ann", "ann@example.com")))
	require.NoError(t, err)
	require.Len(t, ids, 1)

	select {
	case msg := <-sender.sent:
		assert.Equal(t, "ann@example.com", msg.To)
		assert.Equal(t, "Your library account password was changed", msg.Subject)
	case <-time.After(5 * time.Second):
		t.Fatal("email task was not executed within timeout")
	}

	assert.Eventually(t, func() bool {
		status, err := client.Status(context.Background(), ids[0])
		return err == nil && status == backlite.TaskStatusSuccess
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSendEmailProcessor(t *testing.T) {
	ctx := context.Background()
	task := NewSendEmailTask(EmailKindPasswordReset, mailer.AdminResetMessage("root", "clerk", "clerk@example.com"))

	assert.NoError(t, SendEmailProcessor(newFakeSender(mailer.Result{Success: true}))(ctx, task))
	assert.NoError(t, SendEmailProcessor(newFakeSender(mailer.Result{Message: mailer.MessageNotConfigured}))(ctx, task))

	err := SendEmailProcessor(newFakeSender(mailer.Result{Message: "535 authentication failed"}))(ctx, task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535 authentication failed")

	assert.Error(t, SendEmailProcessor(nil)(ctx, task))
}

func TestTaskConfigs(t *testing.T) {
	email := SendEmailTask{}.Config()
	assert.Equal(t, "send_email", email.Name)
	assert.Equal(t, 1, email.MaxAttempts)
	assert.NotNil(t, email.Retention)

	assert.Equal(t, "smtp_test", SMTPTestTask{}.Config().Name)
	assert.Equal(t, 1, SMTPTestTask{}.Config().MaxAttempts)
	assert.Equal(t, "overdue_reminders", OverdueReminderSweepTask{}.Config().Name)
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.Tasks{Workers: 4})
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 5*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 72*time.Hour, cfg.RetentionDuration)
}
