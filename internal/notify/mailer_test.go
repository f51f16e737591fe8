package notify

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfstudio/vfcatalog/config"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"gopkg.in/gomail.v2"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []*gomail.Message
	done chan struct{}
}

func (r *recordingSender) DialAndSend(m ...*gomail.Message) error {
	r.mu.Lock()
	r.sent = append(r.sent, m...)
	r.mu.Unlock()
	close(r.done)
	return nil
}

func TestFeedbackMessage(t *testing.T) {
	m := NewMailer(config.SmtpConfig{Host: "smtp.local", Port: 25, From: "noreply@vf.local", Notify: "owner@vf.local"}, "VFCatalog")
	pid := int64(12)
	msg := m.feedbackMessage(
		domain.User{ID: 1, Name: "Asha", Whatsapp: "+919876543210", City: "Jaipur"},
		domain.Feedback{ID: 2, ProductID: &pid, Rating: 4, Title: "Lovely bowl", Message: "Arrived well packed"},
	)
	assert.Equal(t, []string{"owner@vf.local"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"[VFCatalog] New feedback (4/5): Lovely bowl"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "https://wa.me/919876543210")
	assert.Contains(t, buf.String(), "Product: 12")
}

func TestFeedbackSubmittedSendsWhenEnabled(t *testing.T) {
	sender := &recordingSender{done: make(chan struct{})}
	m := NewMailer(config.SmtpConfig{Host: "smtp.local", Notify: "owner@vf.local"}, "VFCatalog").WithSender(sender)
	m.FeedbackSubmitted(domain.User{ID: 1}, domain.Feedback{ID: 2, Rating: 5, Title: "Great"})

	select {
	case <-sender.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not sent")
	}
	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Len(t, sender.sent, 1)
}

func TestDisabledMailerOnlyLogs(t *testing.T) {
	m := NewMailer(config.SmtpConfig{}, "VFCatalog")
	assert.False(t, m.Enabled())
	m.FeedbackSubmitted(domain.User{ID: 1}, domain.Feedback{ID: 2, Rating: 3})
}
