package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/lndnexus/marketplace/backend/internal/config"
	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
	"gopkg.in/gomail.v2"
)

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through the configured SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewMailer returns nil when SMTP is disabled or unconfigured.
func NewMailer(cfg *config.SMTPConfig) Mailer {
	if !cfg.Enabled || cfg.Host == "" {
		return nil
	}
	return &SMTPMailer{cfg: *cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)

	errCh := make(chan error, 1)
	go func() { errCh <- dialer.DialAndSend(msg) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Errorf("[Email] Failed to send email to %s: %v", to, err)
			return err
		}
		logger.Infof("[Email] Sent notification to %s", to)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// buildEmailBody renders a notification in the recipient's language.
func buildEmailBody(n *models.Notification, lang models.Language, baseURL string) string {
	var sb strings.Builder

	dir := "ltr"
	if lang == models.LangAR {
		dir = "rtl"
	}

	sb.WriteString(fmt.Sprintf("<html><body dir=\"%s\" style=\"font-family: Arial, sans-serif;\">", dir))
	sb.WriteString(fmt.Sprintf("<h2>%s</h2>", html.EscapeString(n.Title.Get(lang))))
	if msg := n.Message.Get(lang); msg != "" {
		sb.WriteString(fmt.Sprintf("<p style=\"white-space: pre-wrap;\">%s</p>", html.EscapeString(msg)))
	}
	if n.Link != "" {
		label := "Open"
		if lang == models.LangAR {
			label = "فتح"
		}
		sb.WriteString(fmt.Sprintf("<p><a href=\"%s\">%s</a></p>",
			html.EscapeString(strings.TrimSuffix(baseURL, "/")+n.Link), label))
	}
	sb.WriteString("</body></html>")

	return sb.String()
}
