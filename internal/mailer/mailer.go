// Package mailer sends outbound account emails over SMTP.
package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer delivers password-reset links
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// Sender is the part of gomail.Dialer the SMTP mailer needs
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpMailer struct {
	from   string
	sender Sender
}

// NewSMTPMailer dials host:port with the given credentials for every message
func NewSMTPMailer(host string, port int, username, password string) Mailer {
	return NewMailer(username, gomail.NewDialer(host, port, username, password))
}

// NewMailer builds a Mailer on top of any Sender
func NewMailer(from string, sender Sender) Mailer {
	return &smtpMailer{from: from, sender: sender}
}

// BuildPasswordResetMessage composes the reset email
func BuildPasswordResetMessage(from, to, resetURL string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Password Reset")
	m.SetBody("text/plain", fmt.Sprintf(
		"You requested a password reset. Please send a PUT request to:\n\n%s\n\nThis link expires in one hour.", resetURL))
	return m
}

func (s *smtpMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.sender.DialAndSend(BuildPasswordResetMessage(s.from, to, resetURL)); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}
