// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

/*
Package mailer delivers account lifecycle emails.

# Architecture

  - [SMTPNotifier]: renders and sends messages through go-mail.
  - [LogNotifier]: records dispatches in the log when SMTP is not configured.
  - [Dispatcher]: wraps either one so callers never wait on delivery.
*/
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	mail "github.com/wneessen/go-mail"
)

// Kind names a lifecycle message.
type Kind string

const (
	KindVerification  Kind = "verification"
	KindPasswordReset Kind = "password_reset"
)

// Notifier is the delivery contract shared by every implementation.
type Notifier interface {
	SendVerification(context context.Context, email, token string) error
	SendPasswordReset(context context.Context, email, token string) error
}

// # SMTP Notifier

// SMTPConfig holds connection and addressing settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// BaseURL prefixes the links placed in message bodies.
	BaseURL string
}

// sender is the part of [mail.Client] the notifier uses.
type sender interface {
	DialAndSendWithContext(context context.Context, messages ...*mail.Msg) error
}

// SMTPNotifier sends lifecycle emails over SMTP.
type SMTPNotifier struct {
	client  sender
	from    string
	baseURL string
}

// NewSMTPNotifier builds a go-mail client from cfg.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	options := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10 * time.Second),
	}
	if cfg.Username != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, options...)
	if err != nil {
		return nil, fmt.Errorf("mailer_client_init_failed: %w", err)
	}

	return newSMTPNotifier(client, cfg.From, cfg.BaseURL), nil
}

func newSMTPNotifier(client sender, from, baseURL string) *SMTPNotifier {
	return &SMTPNotifier{
		client:  client,
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (notifier *SMTPNotifier) SendVerification(context context.Context, email, token string) error {
	return notifier.send(context, KindVerification, email, token)
}

func (notifier *SMTPNotifier) SendPasswordReset(context context.Context, email, token string) error {
	return notifier.send(context, KindPasswordReset, email, token)
}

func (notifier *SMTPNotifier) send(context context.Context, kind Kind, email, token string) error {
	message, err := notifier.compose(kind, email, token)
	if err != nil {
		return err
	}

	if err := notifier.client.DialAndSendWithContext(context, message); err != nil {
		return fmt.Errorf("mailer_send_failed: %w", err)
	}
	return nil
}

// compose renders the message for kind.
func (notifier *SMTPNotifier) compose(kind Kind, email, token string) (*mail.Msg, error) {
	message := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))

	if err := message.From(notifier.from); err != nil {
		return nil, fmt.Errorf("mailer_from_invalid: %w", err)
	}
	if err := message.To(email); err != nil {
		return nil, fmt.Errorf("mailer_recipient_invalid: %w", err)
	}

	subject, body := notifier.render(kind, token)
	message.Subject(subject)
	message.SetBodyString(mail.TypeTextPlain, body)

	return message, nil
}

// Link returns the URL a recipient follows for kind.
func (notifier *SMTPNotifier) Link(kind Kind, token string) string {
	escaped := url.PathEscape(token)
	switch kind {
	case KindPasswordReset:
		return notifier.baseURL + "/api/auth/reset-password/" + escaped
	default:
		return notifier.baseURL + "/api/auth/verify-email/" + escaped
	}
}

func (notifier *SMTPNotifier) render(kind Kind, token string) (string, string) {
	link := notifier.Link(kind, token)

	if kind == KindPasswordReset {
		return "Reset your password",
			"A password reset was requested for your account.\n\n" +
				"Submit your new password to:\n" + link + "\n\n" +
				"If you did not request this, ignore this email.\n"
	}

	return "Confirm your email",
		"Thanks for signing up.\n\nConfirm your email address:\n" + link + "\n"
}

// # Log Notifier

// LogNotifier writes one log line per message instead of sending it.
// Tokens are never logged.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a new [LogNotifier].
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (notifier *LogNotifier) SendVerification(context context.Context, email, _ string) error {
	notifier.logger.InfoContext(context, "notification_not_sent", slog.String("kind", string(KindVerification)), slog.String("email", email))
	return nil
}

func (notifier *LogNotifier) SendPasswordReset(context context.Context, email, _ string) error {
	notifier.logger.InfoContext(context, "notification_not_sent", slog.String("kind", string(KindPasswordReset)), slog.String("email", email))
	return nil
}
