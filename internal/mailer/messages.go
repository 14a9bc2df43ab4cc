package mailer

import (
	"fmt"
	"strings"
	"time"
)

const signature = "Regards,\nLibrary System"

func PasswordChangedMessage(username, to string) Message {
	return Message{
		To:      to,
		Subject: "Your library account password was changed",
		Body: fmt.Sprintf("Hello %s,\n\n"+
			"This is a confirmation that your password was recently changed.\n\n"+
			"If you did not request this change, please contact your library admin immediately.\n\n%s",
			username, signature),
	}
}

func AdminResetMessage(adminUsername, targetUsername, to string) Message {
	return Message{
		To:      to,
		Subject: "Your library account password has been reset by admin",
		Body: fmt.Sprintf("Hello %s,\n\n"+
			"Your password was reset by administrator '%s'.\n"+
			"You will be asked to choose a new password after logging in. "+
			"If you did not expect this, please contact your admin.\n\n%s",
			targetUsername, adminUsername, signature),
	}
}

// TestMessage is sent to the SMTP user to check the configuration.
func TestMessage(to string) Message {
	return Message{
		To:      to,
		Subject: "Library SMTP test",
		Body:    "This is a test email from Library System.",
	}
}

// OverdueReminder describes one overdue loan for the reminder email.
type OverdueReminder struct {
	MemberName  string
	MemberEmail string
	BookTitle   string
	DueDate     time.Time
	LateDays    int
	AccruedFee  float64
}

func OverdueReminderMessage(r OverdueReminder) Message {
	days := "days"
	if r.LateDays == 1 {
		days = "day"
	}
	title := strings.TrimSpace(r.BookTitle)
	if title == "" {
		title = "a library book"
	} else {
		title = fmt.Sprintf("%q", title)
	}
	return Message{
		To:      r.MemberEmail,
		Subject: "Overdue library book",
		Body: fmt.Sprintf("Hello %s,\n\n"+
			"%s was due on %s and is now %d %s overdue.\n"+
			"The late fee so far is %.2f. Please return the book at your earliest convenience.\n\n%s",
			r.MemberName, capitalize(title), r.DueDate.Format(time.DateOnly), r.LateDays, days, r.AccruedFee, signature),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
