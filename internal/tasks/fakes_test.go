package tasks

import (
	"context"
	"sync"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarydesk/internal/mailer"
	"github.com/mrlokans/librarydesk/internal/services"
	"github.com/mrlokans/librarydesk/internal/settingsstore"
)

type fakeSender struct {
	result mailer.Result
	sent   chan mailer.Message
}

func newFakeSender(result mailer.Result) *fakeSender {
	return &fakeSender{result: result, sent: make(chan mailer.Message, 16)}
}

func (s *fakeSender) Send(_ context.Context, msg mailer.Message) mailer.Result {
	s.sent <- msg
	return s.result
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []backlite.Task
	err   error
}

func (e *fakeEnqueuer) Enqueue(tasks ...backlite.Task) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, tasks...)
	ids := make([]string, len(tasks))
	for i := range tasks {
		ids[i] = "task"
	}
	return ids, nil
}

func (e *fakeEnqueuer) emails() []SendEmailTask {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]SendEmailTask, 0, len(e.tasks))
	for _, t := range e.tasks {
		if email, ok := t.(SendEmailTask); ok {
			out = append(out, email)
		}
	}
	return out
}

type fakeOverdue struct {
	loans []services.OverdueLoan
	err   error
}

func (f fakeOverdue) OverdueLoans(context.Context) ([]services.OverdueLoan, error) {
	return f.loans, f.err
}

type fakeSettings struct {
	smtp settingsstore.SMTPSettings
}

func (f fakeSettings) Load(context.Context) (*settingsstore.LibrarySettings, error) {
	return &settingsstore.LibrarySettings{SMTP: f.smtp}, nil
}
