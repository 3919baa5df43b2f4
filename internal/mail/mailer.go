// Package mail sends transactional email for account confirmation,
// password resets, email changes, and notifications.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/logger"
)

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	// Body is the plain-text body. Links are included as bare URLs.
	Body string
}

// Mailer delivers messages. Delivery failures are the mailer's problem:
// callers send fire-and-forget and never block a request on SMTP.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers mail through an SMTP server using go-mail.
type SMTPMailer struct {
	client *gomail.Client
	sender string
	log    *logger.Logger
}

// NewSMTPMailer creates a mailer from the mail configuration.
func NewSMTPMailer(cfg config.MailConfig, log *logger.Logger) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}

	return &SMTPMailer{
		client: client,
		sender: cfg.Sender,
		log:    log,
	}, nil
}

// Send delivers one message.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	message := gomail.NewMsg()
	if err := message.From(m.sender); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := message.To(msg.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	message.Subject(msg.Subject)
	message.SetBodyString(gomail.TypeTextPlain, msg.Body)

	if err := m.client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}

	m.log.Debug("mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// LogMailer logs messages instead of sending them.
// Used in development and when no SMTP host is configured.
type LogMailer struct {
	log *logger.Logger
}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// Send logs the message.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("mail (not sent, no SMTP host configured)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}
