// Package mailer delivers plain-text notification email over SMTP.
//
// Delivery never returns an error to the caller: every outcome, including
// an incomplete SMTP configuration, is reported as a Result so background
// jobs can log it and move on.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"

	"github.com/mrlokans/librarydesk/internal/settingsstore"
)

const (
	DefaultTimeout = 10 * time.Second

	MessageNotConfigured = "SMTP not configured"
	MessageNoRecipient   = "No recipient email"

	implicitTLSPort = 465
)

// Result is the outcome of one delivery attempt.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Message is a plain-text email. From defaults to the SMTP user.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// SettingsLoader supplies the SMTP settings current at send time.
type SettingsLoader interface {
	Load(ctx context.Context) (*settingsstore.LibrarySettings, error)
}

type Mailer struct {
	settings SettingsLoader
	timeout  time.Duration
}

func New(settings SettingsLoader, timeout time.Duration) *Mailer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Mailer{settings: settings, timeout: timeout}
}

// Send reads the SMTP settings and delivers msg. With incomplete settings it
// is a no-op returning Success=false and MessageNotConfigured.
func (m *Mailer) Send(ctx context.Context, msg Message) Result {
	if strings.TrimSpace(msg.To) == "" {
		return Result{Message: MessageNoRecipient}
	}

	settings, err := m.settings.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("mailer: failed to load SMTP settings")
		return Result{Message: fmt.Sprintf("failed to load SMTP settings: %v", err)}
	}
	if !settings.SMTP.Complete() {
		log.Info().Str("to", msg.To).Msg("mailer: SMTP not configured, skipping send")
		return Result{Message: MessageNotConfigured}
	}

	if err := m.deliver(ctx, settings.SMTP, msg); err != nil {
		log.Warn().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("mailer: delivery failed")
		return Result{Message: err.Error()}
	}

	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("mailer: email sent")
	return Result{Success: true}
}

func (m *Mailer) deliver(ctx context.Context, cfg settingsstore.SMTPSettings, msg Message) error {
	if msg.From == "" {
		msg.From = cfg.User
	}
	email, err := buildMessage(msg, time.Now())
	if err != nil {
		return err
	}

	client, err := newClient(cfg, m.timeout)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("connect %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	defer client.Close()

	if err := client.Send(email); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// newClient authenticates with PLAIN over TLS: implicit TLS on port 465,
// mandatory STARTTLS on any other port.
func newClient(cfg settingsstore.SMTPSettings, timeout time.Duration) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(timeout),
		mail.WithTLSConfig(&tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}),
	}
	if cfg.Port == implicitTLSPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	return mail.NewClient(cfg.Host, opts...)
}

// buildMessage turns msg into a plain-text UTF-8 email. Header values
// containing line breaks are rejected.
func buildMessage(msg Message, now time.Time) (*mail.Msg, error) {
	for name, value := range map[string]string{"From": msg.From, "To": msg.To, "Subject": msg.Subject} {
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("header %s contains a line break", name)
		}
	}

	email := mail.NewMsg()
	if err := email.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if err := email.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	email.Subject(msg.Subject)
	email.SetDateWithValue(now)
	email.SetBodyString(mail.TypeTextPlain, msg.Body)
	return email, nil
}
