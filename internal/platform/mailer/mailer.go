// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mailer delivers the transactional emails of the auth flows.

Two transports exist: [SMTPTransport] for real delivery through go-mail and
[LogTransport] for development setups without SMTP credentials. The
[Mailer] renders the HTML templates and builds the verification and reset
links from the configured client URL.
*/
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// Message is a rendered email ready for a transport.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Transport moves a rendered [Message] to its recipient.
type Transport interface {
	Deliver(ctx context.Context, message Message) error
}

// Recorder receives delivery outcomes per template.
type Recorder interface {
	RecordEmail(template string, err error)
}

// # SMTP

// SMTPConfig carries the connection settings for [NewSMTPTransport].
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From accepts either a bare address or "Name <address>".
	From     string
	// Secure selects implicit TLS (usually port 465) instead of STARTTLS.
	Secure bool
}

// SMTPTransport sends mail through an SMTP relay.
type SMTPTransport struct {
	client *mail.Client
	from   string
}

// NewSMTPTransport builds a go-mail client from cfg.
func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	options := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.Secure {
		options = append(options, mail.WithSSL())
	}

	client, err := mail.NewClient(cfg.Host, options...)
	if err != nil {
		return nil, fmt.Errorf("mailer_smtp_client_failed: %w", err)
	}
	return &SMTPTransport{client: client, from: cfg.From}, nil
}

// Deliver implements [Transport].
func (transport *SMTPTransport) Deliver(ctx context.Context, message Message) error {
	msg := mail.NewMsg()
	if err := msg.From(transport.from); err != nil {
		return fmt.Errorf("mailer_invalid_sender: %w", err)
	}
	if err := msg.To(message.To); err != nil {
		return fmt.Errorf("mailer_invalid_recipient: %w", err)
	}
	msg.Subject(message.Subject)
	msg.SetBodyString(mail.TypeTextHTML, message.HTML)

	if err := transport.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer_smtp_send_failed: %w", err)
	}
	return nil
}

// # Development

// LogTransport writes the message to the logger instead of sending it.
type LogTransport struct {
	logger *slog.Logger
}

// NewLogTransport returns a [LogTransport].
func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

// Deliver implements [Transport].
func (transport *LogTransport) Deliver(ctx context.Context, message Message) error {
	transport.logger.InfoContext(ctx, "email_logged",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
		slog.String("html", message.HTML),
	)
	return nil
}

// # Mailer

// Mailer renders and sends the account emails.
type Mailer struct {
	transport Transport
	clientURL string
	recorder  Recorder
}

// New builds a Mailer. clientURL is the web client base used in links.
func New(transport Transport, clientURL string, recorder Recorder) *Mailer {
	return &Mailer{transport: transport, clientURL: clientURL, recorder: recorder}
}

// VerificationURL returns the link a user follows to verify their email.
func (mailer *Mailer) VerificationURL(rawToken string) string {
	return mailer.clientURL + "/verify-email/" + rawToken
}

// ResetURL returns the link a user follows to choose a new password.
func (mailer *Mailer) ResetURL(rawToken string) string {
	return mailer.clientURL + "/reset-password/" + rawToken
}

// SendVerificationEmail sends the 24h verification link to a new account.
func (mailer *Mailer) SendVerificationEmail(ctx context.Context, to, name, rawToken string) error {
	return mailer.send(ctx, "verify", to, "Verify your Sprinto account", templateData{
		Title:  "Verify your email address",
		Intro:  "Hey " + name + ", welcome to Sprinto! Click below to verify your email.",
		Action: "Verify Email Address",
		URL:    mailer.VerificationURL(rawToken),
		Expiry: "24 hours",
	})
}

// SendPasswordResetEmail sends the 1h reset link.
func (mailer *Mailer) SendPasswordResetEmail(ctx context.Context, to, name, rawToken string) error {
	return mailer.send(ctx, "reset", to, "Reset your Sprinto password", templateData{
		Title:  "Reset your password",
		Intro:  "Hey " + name + ", click below to set a new password.",
		Action: "Reset Password",
		URL:    mailer.ResetURL(rawToken),
		Expiry: "1 hour",
	})
}

func (mailer *Mailer) send(ctx context.Context, name, to, subject string, data templateData) error {
	var body bytes.Buffer
	err := layout.Execute(&body, data)
	if err == nil {
		err = mailer.transport.Deliver(ctx, Message{To: to, Subject: subject, HTML: body.String()})
	}

	if mailer.recorder != nil {
		mailer.recorder.RecordEmail(name, err)
	}
	return err
}

type templateData struct {
	Title  string
	Intro  string
	Action string
	URL    string
	Expiry string
}

var layout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"/></head>
<body style="font-family: Arial, sans-serif; background: #0f172a; margin: 0; padding: 20px;">
  <div style="max-width: 520px; margin: 0 auto; background: #1e293b; border-radius: 16px; border: 1px solid #334155;">
    <div style="background: linear-gradient(135deg, #4f46e5, #0ea5e9); padding: 32px; text-align: center; font-size: 24px; font-weight: 700; color: white;">Sprinto</div>
    <div style="padding: 32px;">
      <h2 style="font-size: 20px; color: #f1f5f9;">{{.Title}}</h2>
      <p style="font-size: 14px; color: #94a3b8; line-height: 1.6;">{{.Intro}}</p>
      <a href="{{.URL}}" style="display: inline-block; background: #4f46e5; color: white; text-decoration: none; padding: 12px 28px; border-radius: 10px; font-weight: 600;">{{.Action}}</a>
      <p style="font-size: 13px; color: #64748b; margin-top: 20px;">This link expires in <strong>{{.Expiry}}</strong>.</p>
    </div>
    <div style="padding: 20px 32px; border-top: 1px solid #334155; font-size: 12px; color: #475569;">If you didn't request this, you can safely ignore it.</div>
  </div>
</body>
</html>
`))
