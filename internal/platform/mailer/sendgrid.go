package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	Host      string // empty means api.sendgrid.com
}

// SendGridMailer builds a new request on every Send.
type SendGridMailer struct {
	apiKey    string
	host      string
	fromEmail string
	fromName  string
}

// NewSendGridMailer returns nil when no API key is configured.
func NewSendGridMailer(cfg SendGridConfig) *SendGridMailer {
	if cfg.APIKey == "" {
		return nil
	}
	return &SendGridMailer{
		apiKey:    cfg.APIKey,
		host:      cfg.Host,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

func (s *SendGridMailer) Send(ctx context.Context, doc Document) (string, error) {
	if s == nil || s.apiKey == "" {
		return "", fmt.Errorf("sendgrid client not configured")
	}

	fromEmail := s.fromEmail
	if doc.From != "" {
		fromEmail = doc.From
	}
	text := doc.Text
	if text == "" {
		text = doc.HTML
	}
	message := mail.NewSingleEmail(mail.NewEmail(s.fromName, fromEmail), doc.Subject, mail.NewEmail(doc.ToName, doc.To), text, doc.HTML)

	req := sendgrid.GetRequest(s.apiKey, "/v3/mail/send", s.host)
	req.Method = "POST"
	req.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		return "", fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}

	var id string
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		id = ids[0]
	}
	return id, nil
}
