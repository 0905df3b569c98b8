package mailer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/diagnosis/numerology-appointments/pkg/logger"
	"github.com/google/uuid"
)

// DevMailer prints documents instead of sending them.
type DevMailer struct {
	out io.Writer
}

func NewDevMailer() *DevMailer {
	return &DevMailer{out: os.Stdout}
}

func (d *DevMailer) Send(ctx context.Context, doc Document) (string, error) {
	id := "dev-" + uuid.New().String()

	logger.InfoContext(ctx, "📧 [DEV MAIL] Notification",
		"to", doc.To,
		"subject", doc.Subject,
		"message_id", id,
	)

	body := doc.Text
	if body == "" {
		body = doc.HTML
	}

	fmt.Fprintf(d.out, "\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 EMAIL (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"From: %s\n"+
		"To: %s\n"+
		"Subject: %s\n"+
		"\n"+
		"%s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		doc.From, doc.To, doc.Subject, body)

	return id, nil
}
