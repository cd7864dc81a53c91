package notification

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"portcullis/internal/auth/models"
	"portcullis/internal/platform/config"
	id "portcullis/pkg/domain"
	dErrors "portcullis/pkg/domain-errors"
)

type recordingMailer struct {
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testUser() *models.User {
	return &models.User{ID: id.NewUserID(), Email: "jane.doe@example.com"}
}

func TestNotifier_SendVerification(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewNotifier(mailer, "Portcullis", "https://app.example.com")
	now := time.Now()
	v := &models.Verification{Value: "tok<en>", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	require.NoError(t, n.SendVerification(context.Background(), testUser(), v, ""))

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, []string{"jane.doe@example.com"}, msg.To)
	assert.Equal(t, "Verify your email", msg.Subject)
	assert.Contains(t, msg.HTML, "Hi Jane,")
	assert.Contains(t, msg.HTML, "https://app.example.com/verify-email?token=tok%3Cen%3E")
	assert.Contains(t, msg.HTML, "1 hour")
}

func TestNotifier_PasswordResetUsesCallback(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewNotifier(mailer, "Portcullis", "https://app.example.com", "https://client.example.com")
	now := time.Now()
	v := &models.Verification{Value: "abc", CreatedAt: now, ExpiresAt: now.Add(30 * time.Minute)}

	require.NoError(t, n.SendPasswordReset(context.Background(), testUser(), v, "https://client.example.com/reset?src=mail"))

	html := mailer.sent[0].HTML
	assert.Contains(t, html, "https://client.example.com/reset?src=mail&amp;token=abc")
	assert.Contains(t, html, "30 minutes")
}

func TestNotifier_ForeignCallbackFallsBackToBaseURL(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewNotifier(mailer, "Portcullis", "https://app.example.com")
	now := time.Now()
	v := &models.Verification{Value: "SECRET-RESET-TOKEN", CreatedAt: now, ExpiresAt: now.Add(30 * time.Minute)}

	require.NoError(t, n.SendPasswordReset(context.Background(), testUser(), v, "https://evil.example/steal"))

	html := mailer.sent[0].HTML
	assert.NotContains(t, html, "evil.example")
	assert.Contains(t, html, "https://app.example.com/reset-password?token=SECRET-RESET-TOKEN")
}

func TestNotifier_AllTemplatesRender(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewNotifier(mailer, "Portcullis", "http://localhost:8080")
	ctx := context.Background()
	u := testUser()

	require.NoError(t, n.SendWelcome(ctx, u))
	require.NoError(t, n.SendPasswordChanged(ctx, u))
	require.NoError(t, n.SendEmailVerified(ctx, u))
	require.Len(t, mailer.sent, 3)
	assert.Equal(t, "Welcome to Portcullis", mailer.sent[0].Subject)
}

func TestNotifier_MailerFailurePropagates(t *testing.T) {
	failure := dErrors.New(dErrors.CodeExternalService, "failed to send email")
	n := NewNotifier(&recordingMailer{err: failure}, "Portcullis", "")

	err := n.SendWelcome(context.Background(), testUser())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeExternalService))
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	_, err := NewRenderer().Render("missing.html", templateData{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeExternalService))
}

type fakeSender struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeSender) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msgs...)
	return nil
}

func newTestSMTPMailer(snd *fakeSender) *SMTPMailer {
	return &SMTPMailer{
		from: "Portcullis <no-reply@example.com>",
		dial: func() (sender, error) { return snd, nil },
	}
}

func TestSMTPMailer(t *testing.T) {
	t.Run("builds a complete MIME message", func(t *testing.T) {
		snd := &fakeSender{}
		m := newTestSMTPMailer(snd)

		err := m.Send(context.Background(), Message{
			To:      []string{"a@x.com"},
			Subject: "Réinitialisation du mot de passe",
			HTML:    "<p>héllo</p>",
		})
		require.NoError(t, err)
		require.Len(t, snd.sent, 1)

		var buf bytes.Buffer
		_, err = snd.sent[0].WriteTo(&buf)
		require.NoError(t, err)
		raw := buf.String()
		assert.Contains(t, raw, "no-reply@example.com")
		assert.Contains(t, raw, "a@x.com")
		assert.Contains(t, raw, "Subject: =?UTF-8?q?")
		assert.NotContains(t, raw, "Subject: Réinitialisation")
		assert.Contains(t, raw, "Date: ")
		assert.Contains(t, raw, "Message-ID: <")
		assert.Contains(t, raw, "Content-Transfer-Encoding: quoted-printable")
		assert.Contains(t, raw, "text/html")
	})

	t.Run("invalid recipients are rejected before dialing", func(t *testing.T) {
		snd := &fakeSender{}
		m := newTestSMTPMailer(snd)
		err := m.Send(context.Background(), Message{To: []string{"not an address"}, Subject: "Hi"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeExternalService))
		assert.Empty(t, snd.sent)
	})

	t.Run("transport errors become external service errors", func(t *testing.T) {
		m := newTestSMTPMailer(&fakeSender{err: errors.New("connection refused")})
		err := m.Send(context.Background(), Message{To: []string{"a@x.com"}})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeExternalService))
	})

	t.Run("a cancelled context sends nothing", func(t *testing.T) {
		snd := &fakeSender{}
		m := newTestSMTPMailer(snd)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := m.Send(ctx, Message{To: []string{"a@x.com"}})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeExternalService))
		assert.Empty(t, snd.sent)
	})
}

func TestNewMailer_PicksSMTPWhenHostIsSet(t *testing.T) {
	m := NewMailer(config.MailConfig{Host: "smtp.example.com", Port: 2525, From: "no-reply@example.com"}, slog.Default())
	require.IsType(t, &SMTPMailer{}, m)
}

func TestNewMailer_FallsBackToLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	m := NewMailer(config.MailConfig{}, logger)
	require.IsType(t, &LogMailer{}, m)
	require.NoError(t, m.Send(context.Background(), Message{To: []string{"a@x.com"}, Subject: "Hi"}))
	assert.Contains(t, buf.String(), "subject=Hi")
}
