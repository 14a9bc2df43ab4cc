package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarydesk/internal/config"
	"github.com/mrlokans/librarydesk/internal/tasks"
)

type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []backlite.Task
	err   error
}

func (e *recordingEnqueuer) Enqueue(ts ...backlite.Task) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, ts...)
	return []string{"sweep-1"}, nil
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 8 * * *"))
	assert.NoError(t, ValidateSchedule("*/15 * * * 1-5"))
	assert.Error(t, ValidateSchedule("every morning"))
	assert.Error(t, ValidateSchedule("0 0 8 * * *"), "seconds field is not accepted")
}

func TestNextRun(t *testing.T) {
	from := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	next, err := NextRun("0 8 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 2, 8, 0, 0, 0, time.UTC), next)
}

func TestScheduler_Disabled(t *testing.T) {
	s := NewOverdueReminderScheduler(&recordingEnqueuer{}, config.Reminders{Enabled: false, Schedule: "0 8 * * *"}, time.UTC)
	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRunTime())
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewOverdueReminderScheduler(&recordingEnqueuer{}, config.Reminders{Enabled: true, Schedule: "nope"}, time.UTC)
	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewOverdueReminderScheduler(&recordingEnqueuer{}, config.Reminders{Enabled: true, Schedule: "0 8 * * *"}, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	next := s.NextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, 8, next.UTC().Hour())

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_RunNow(t *testing.T) {
	enqueuer := &recordingEnqueuer{}
	s := NewOverdueReminderScheduler(enqueuer, config.Reminders{}, time.UTC)

	id, err := s.RunNow("root")
	require.NoError(t, err)
	assert.Equal(t, "sweep-1", id)
	require.Len(t, enqueuer.tasks, 1)
	assert.Equal(t, tasks.OverdueReminderSweepTask{TriggeredBy: "root"}, enqueuer.tasks[0])

	enqueuer.err = errors.New("queue closed")
	_, err = s.RunNow("root")
	assert.Error(t, err)
}
