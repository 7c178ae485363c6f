package notify

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"text/template"

	mail "github.com/go-mail/mail"

	"heritage/pkg/email"
	"heritage/pkg/seed"
)

// Mailer renders and sends notification emails.
type Mailer interface {
	Send(notification Notification) error
}

// SMTPConfig holds dialer settings for the SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
	UseSSL   bool
}

// SMTPMailer delivers notices over SMTP.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

var annualReviewBody = template.Must(template.New("annual_review").Parse(
	`Hello {{.PrincipalName}},

It has been nearly a year since your succession designation was last
confirmed. Please review it before the anniversary date so your named
successor ({{.SuccessorName}}) remains current.

Your protocol seed, for third-party verification of the printed copy:

    {{.FormattedSeed}}

No action is needed if everything is still accurate; simply confirm the
designation in your vault.
`))

type annualReviewFields struct {
	PrincipalName string
	SuccessorName string
	FormattedSeed string
}

// Send renders the template for the notification type and dispatches it.
func (m *SMTPMailer) Send(n Notification) error {
	if n.Type != TypeAnnualReviewDue {
		return fmt.Errorf("no mail template for notification type %q", n.Type)
	}

	principal := n.Payload.PrincipalName
	if principal == "" {
		principal = email.DisplayName(n.Recipient)
	}

	var body bytes.Buffer
	err := annualReviewBody.Execute(&body, annualReviewFields{
		PrincipalName: principal,
		SuccessorName: n.Payload.SuccessorName,
		FormattedSeed: seed.Format(n.Payload.ProtocolSeed),
	})
	if err != nil {
		return fmt.Errorf("render annual review notice: %w", err)
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", n.Recipient)
	msg.SetHeader("Subject", "Your succession designation is due for its annual review")
	msg.SetBody("text/plain", body.String())

	dialer := mail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	dialer.TLSConfig = &tls.Config{ServerName: m.cfg.Host}
	dialer.SSL = m.cfg.UseSSL

	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send annual review notice: %w", err)
	}
	return nil
}
