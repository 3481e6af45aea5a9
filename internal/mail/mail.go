package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"

	"github.com/wtwinds/wtwinds-backend/internal/config"
)

// Sender delivers OTP mail. Handlers depend on this interface so tests can
// substitute a fake.
type Sender interface {
	SendOTP(ctx context.Context, to, code string) error
}

// Mailer sends plaintext email over SMTP.
type Mailer struct {
	server   string
	port     int
	username string
	password string
	from     string
}

// New creates a Mailer from mail configuration.
func New(cfg config.MailConfig) *Mailer {
	return &Mailer{
		server:   cfg.Server,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}
}

// SendOTP emails a one-time code to the given address. The send runs in a
// goroutine so the context deadline bounds how long the caller waits.
func (m *Mailer) SendOTP(ctx context.Context, to, code string) error {
	msg := mailyak.New(fmt.Sprintf("%s:%d", m.server, m.port),
		smtp.PlainAuth("", m.username, m.password, m.server))

	msg.To(to)
	msg.From(m.from)
	msg.Subject("WT Winds OTP")
	msg.Plain().Set(fmt.Sprintf("Your WT Winds OTP is: %s", code))

	done := make(chan error, 1)
	go func() {
		done <- msg.Send()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send OTP email: %w", err)
		}
		return nil
	}
}
