// Package notification renders and sends account emails. Delivery failures
// are returned as external_service_error; callers decide whether to surface them.
package notification

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"portcullis/internal/auth/models"
	"portcullis/pkg/email"
)

// Notifier builds the account emails sent by the auth flows.
type Notifier struct {
	mailer   Mailer
	renderer *Renderer
	appName  string
	baseURL  string
	origins  models.CallbackOrigins
}

// NewNotifier sends links under baseURL. Callback URLs are honoured only on
// the baseURL origin or one of extraOrigins.
func NewNotifier(mailer Mailer, appName, baseURL string, extraOrigins ...string) *Notifier {
	return &Notifier{
		mailer:   mailer,
		renderer: NewRenderer(),
		appName:  appName,
		baseURL:  baseURL,
		origins:  models.NewCallbackOrigins(append([]string{baseURL}, extraOrigins...)...),
	}
}

type templateData struct {
	AppName   string
	Name      string
	Email     string
	Link      string
	ExpiresIn string
}

func (n *Notifier) SendWelcome(ctx context.Context, user *models.User) error {
	return n.send(ctx, user, "Welcome to "+n.appName, TemplateWelcome, templateData{})
}

// SendVerification mails the email-verification link. callbackURL overrides
// the default landing page when set.
func (n *Notifier) SendVerification(ctx context.Context, user *models.User, v *models.Verification, callbackURL string) error {
	return n.send(ctx, user, "Verify your email", TemplateVerifyEmail, templateData{
		Link:      n.link(callbackURL, "/verify-email", v.Value),
		ExpiresIn: humanize(v.ExpiresAt.Sub(v.CreatedAt)),
	})
}

func (n *Notifier) SendPasswordReset(ctx context.Context, user *models.User, v *models.Verification, callbackURL string) error {
	return n.send(ctx, user, "Reset your password", TemplatePasswordReset, templateData{
		Link:      n.link(callbackURL, "/reset-password", v.Value),
		ExpiresIn: humanize(v.ExpiresAt.Sub(v.CreatedAt)),
	})
}

func (n *Notifier) SendPasswordChanged(ctx context.Context, user *models.User) error {
	return n.send(ctx, user, "Your password was changed", TemplatePasswordChanged, templateData{})
}

func (n *Notifier) SendEmailVerified(ctx context.Context, user *models.User) error {
	return n.send(ctx, user, "Email verified", TemplateEmailVerified, templateData{})
}

func (n *Notifier) send(ctx context.Context, user *models.User, subject, tmpl string, data templateData) error {
	data.AppName = n.appName
	data.Name = email.DisplayName(user.Email)
	data.Email = user.Email
	html, err := n.renderer.Render(tmpl, data)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, Message{To: []string{user.Email}, Subject: subject, HTML: html})
}

// link appends the token as a query parameter to callbackURL, or to
// baseURL+path when no callback was supplied or its origin is not allowed.
func (n *Notifier) link(callbackURL, path, token string) string {
	target := callbackURL
	if target == "" || !n.origins.Allows(target) {
		target = n.baseURL + path
	}
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func humanize(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		if h := int(d / time.Hour); h > 1 {
			return fmt.Sprintf("%d hours", h)
		}
		return "1 hour"
	}
	if m := int(d / time.Minute); m > 1 {
		return fmt.Sprintf("%d minutes", m)
	}
	return "1 minute"
}
