package utils

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type capturedMail struct {
	from string
	to   []string
	raw  string
}

func captureSender(out *capturedMail, err error) gomail.SendFunc {
	return func(from string, to []string, msg io.WriterTo) error {
		var buf bytes.Buffer
		if _, werr := msg.WriteTo(&buf); werr != nil {
			return werr
		}
		out.from = from
		out.to = to
		out.raw = buf.String()
		return err
	}
}

func TestMailerSend(t *testing.T) {
	var got capturedMail
	m := NewMailerWithSender(captureSender(&got, nil), "hello@example.org", "Lead Desk")

	id, err := m.Send(context.Background(), Message{
		To:      "jane@acme.com",
		ToName:  "Jane",
		Subject: "Your report",
		HTML:    "<p>hi</p>",
		Tag:     "report",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(id, "@example.org"))
	assert.Equal(t, "hello@example.org", got.from)
	assert.Equal(t, []string{"jane@acme.com"}, got.to)
	assert.Contains(t, got.raw, "Subject: Your report")
	assert.Contains(t, got.raw, id)
	assert.Contains(t, got.raw, "X-Email-Tag: report")
}

func TestMailerSendKeepsPresetMessageID(t *testing.T) {
	var got capturedMail
	m := NewMailerWithSender(captureSender(&got, nil), "hello@example.org", "")

	id, err := m.Send(context.Background(), Message{To: "jane@acme.com", MessageID: "fixed-1@example.org"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-1@example.org", id)
	assert.Contains(t, got.raw, "<fixed-1@example.org>")

	assert.True(t, strings.HasSuffix(NewMessageID("no-at-sign"), "@localhost"))
}

func TestMailerSendErrors(t *testing.T) {
	var got capturedMail
	m := NewMailerWithSender(captureSender(&got, errors.New("550 mailbox unavailable")), "hello@example.org", "")

	_, err := m.Send(context.Background(), Message{To: "jane@acme.com", Subject: "x", HTML: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "550")

	_, err = m.Send(context.Background(), Message{Subject: "no recipient"})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Send(ctx, Message{To: "jane@acme.com"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMailerSendHonoursContextWhileSending(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	slow := gomail.SendFunc(func(string, []string, io.WriterTo) error {
		<-release
		return nil
	})
	m := NewMailerWithSender(slow, "hello@example.org", "")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.Send(ctx, Message{To: "jane@acme.com"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRenderTemplate(t *testing.T) {
	body, err := RenderTemplate("assessment_report", ReportEmailData{
		Subject:        "Your AI Readiness Report",
		Name:           "<Jane>",
		OverallScore:   72,
		ReadinessLevel: "implementer",
		BookingURL:     "https://calendly.com/x",
		Year:           2024,
	})
	require.NoError(t, err)
	assert.Contains(t, body, "72/100")
	assert.Contains(t, body, "&lt;Jane&gt;")
	assert.Contains(t, body, "https://calendly.com/x")

	body, err = RenderTemplate("sales_notification", SalesNotificationData{Tier: "tier_1", Email: "ceo@acme.com"})
	require.NoError(t, err)
	assert.Contains(t, body, "New tier_1 prospect")

	_, err = RenderTemplate("missing", nil)
	assert.Error(t, err)
}
