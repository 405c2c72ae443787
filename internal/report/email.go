package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"ourvend-sync/internal/slotsync"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("ourvend_sync.internal.report")

var ErrNoRecipients = errors.New("no report recipients configured")

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
}

// Enabled reports if enough is configured to send mail.
func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && len(c.Recipients) > 0
}

func (c SmtpConfig) addr() string {
	port := c.Port
	if port == 0 {
		port = 587
	}
	return fmt.Sprintf("%s:%d", c.Server, port)
}

type Mailer struct {
	config SmtpConfig
}

func NewMailer(config SmtpConfig) Mailer {
	return Mailer{config: config}
}

func (m Mailer) message(r slotsync.RunReport) *email.Email {
	var body bytes.Buffer
	WriteRun(&body, r)

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Ourvend Sync <%s>", m.config.EmailAddress)
	mail.To = m.config.Recipients
	mail.Subject = Subject(r)
	mail.Text = body.Bytes()
	return mail
}

// SendRun mails the rendered run summary to the configured recipients.
func (m Mailer) SendRun(ctx context.Context, r slotsync.RunReport) error {
	ctx, span := tracer.Start(ctx, "SendRun")
	defer span.End()

	if len(m.config.Recipients) == 0 {
		return ErrNoRecipients
	}
	mail := m.message(r)

	var auth smtp.Auth
	if m.config.Password != "" {
		auth = smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server)
	}
	err := mail.Send(m.config.addr(), auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(m.config.addr(), nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
