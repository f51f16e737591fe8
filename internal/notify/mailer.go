// Package notify sends operator notifications by e-mail.
package notify

import (
	"fmt"
	"strings"

	"github.com/vfstudio/vfcatalog/config"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/internal/whatsapp"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender delivers built messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	cfg    config.SmtpConfig
	appid  string
	sender Sender
}

func NewMailer(cfg config.SmtpConfig, appid string) *Mailer {
	m := &Mailer{cfg: cfg, appid: appid}
	if m.Enabled() {
		m.sender = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return m
}

// WithSender replaces the SMTP dialer.
func (m *Mailer) WithSender(s Sender) *Mailer {
	m.sender = s
	return m
}

// Enabled reports whether SMTP host and a recipient are configured.
func (m *Mailer) Enabled() bool {
	return strings.TrimSpace(m.cfg.Host) != "" && strings.TrimSpace(m.cfg.Notify) != ""
}

func (m *Mailer) feedbackMessage(user domain.User, fb domain.Feedback) *gomail.Message {
	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", m.cfg.Notify)
	msg.SetHeader("Subject", fmt.Sprintf("[%s] New feedback (%d/5): %s", m.appid, fb.Rating, fb.Title))

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s (%s, %s)\n", user.Name, user.Whatsapp, user.City)
	if fb.ProductID != nil {
		fmt.Fprintf(&body, "Product: %d\n", *fb.ProductID)
	}
	fmt.Fprintf(&body, "Rating: %d/5\n\n%s\n\n%s\n\n", fb.Rating, fb.Title, fb.Message)
	fmt.Fprintf(&body, "Reply on WhatsApp: %s\n", whatsapp.ChatLink(user.Whatsapp, "Thanks for your feedback: "+fb.Title))
	msg.SetBody("text/plain", body.String())
	return msg
}

// FeedbackSubmitted mails the configured address in the background, or
// only logs when mail is not configured.
func (m *Mailer) FeedbackSubmitted(user domain.User, fb domain.Feedback) {
	if !m.Enabled() || m.sender == nil {
		zap.L().Info("new feedback received",
			zap.Int64("feedback_id", fb.ID),
			zap.Int64("user_id", user.ID),
			zap.Int("rating", fb.Rating))
		return
	}
	msg := m.feedbackMessage(user, fb)
	go func() {
		defer func() {
			if err := recover(); err != nil {
				zap.S().Error(err)
			}
		}()
		if err := m.sender.DialAndSend(msg); err != nil {
			zap.L().Error("feedback notification failed", zap.Int64("feedback_id", fb.ID), zap.Error(err))
			return
		}
		zap.L().Info("feedback notification sent", zap.Int64("feedback_id", fb.ID), zap.String("to", m.cfg.Notify))
	}()
}
