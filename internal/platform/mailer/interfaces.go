package mailer

import (
	"context"
	"fmt"

	"github.com/diagnosis/numerology-appointments/pkg/config"
)

// Document is one outbound notification e-mail.
type Document struct {
	From    string
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Transport delivers a Document and returns the provider message id when there is one.
type Transport interface {
	Send(ctx context.Context, doc Document) (string, error)
}

// New picks the transport named by cfg.Provider.
func New(cfg config.EmailConfig) (Transport, error) {
	switch cfg.Provider {
	case "", "dev":
		return NewDevMailer(), nil
	case "smtp":
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.From, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS), nil
	case "mailersend":
		m := NewMailerSendMailer(cfg.MailerSendKey, cfg.FromName, cfg.From)
		if !m.Enabled {
			return nil, fmt.Errorf("mailersend selected but MAILERSEND_API_KEY or EMAIL_USER is empty")
		}
		return m, nil
	case "sendgrid":
		s := NewSendGridMailer(SendGridConfig{APIKey: cfg.SendGridAPIKey, FromEmail: cfg.From, FromName: cfg.FromName})
		if s == nil {
			return nil, fmt.Errorf("sendgrid selected but SENDGRID_API_KEY is empty")
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.Provider)
	}
}
