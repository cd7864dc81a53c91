package notification

import (
	"context"
	"log/slog"
	"strings"

	"github.com/wneessen/go-mail"

	"portcullis/internal/platform/config"
	dErrors "portcullis/pkg/domain-errors"
)

// Message is one outbound HTML email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Mailer delivers rendered messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer returns an SMTP mailer when a host is configured and a log-only
// mailer otherwise.
func NewMailer(cfg config.MailConfig, logger *slog.Logger) Mailer {
	if cfg.Host == "" {
		return &LogMailer{logger: logger}
	}
	return NewSMTPMailer(cfg)
}

// sender is the part of *mail.Client the SMTP mailer drives.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPMailer builds MIME messages with go-mail and delivers them over SMTP,
// upgrading to STARTTLS when the server offers it.
type SMTPMailer struct {
	from string
	dial func() (sender, error)
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	opts := []mail.Option{
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithPort(cfg.Port),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	return &SMTPMailer{
		from: cfg.From,
		dial: func() (sender, error) { return mail.NewClient(cfg.Host, opts...) },
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeExternalService, "email not sent")
	}
	out, err := m.build(msg)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeExternalService, "failed to build email")
	}
	client, err := m.dial()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeExternalService, "failed to configure mail client")
	}
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeExternalService, "failed to send email")
	}
	return nil
}

func (m *SMTPMailer) build(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, err
	}
	if err := out.To(msg.To...); err != nil {
		return nil, err
	}
	out.Subject(msg.Subject)
	out.SetDate()
	out.SetMessageID()
	out.SetBodyString(mail.TypeTextHTML, msg.HTML)
	return out, nil
}

// LogMailer writes messages to the log instead of delivering them. Used in
// development and when no SMTP host is configured.
type LogMailer struct {
	logger *slog.Logger
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "email not delivered: no SMTP host configured",
		"to", strings.Join(msg.To, ","),
		"subject", msg.Subject,
	)
	return nil
}
