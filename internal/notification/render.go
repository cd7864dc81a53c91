package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sync"

	dErrors "portcullis/pkg/domain-errors"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TemplateWelcome         = "welcome.html"
	TemplateVerifyEmail     = "verify_email.html"
	TemplatePasswordReset   = "password_reset.html"
	TemplatePasswordChanged = "password_changed.html"
	TemplateEmailVerified   = "email_verified.html"
)

// Renderer executes a content template inside the shared layout. Parsed
// templates are cached per name.
type Renderer struct {
	mu    sync.Mutex
	cache map[string]*template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{cache: make(map[string]*template.Template)}
}

func (r *Renderer) Render(name string, data any) (string, error) {
	tmpl, err := r.load(name)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeExternalService, "failed to load email template")
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeExternalService, "failed to render email template")
	}
	return buf.String(), nil
}

func (r *Renderer) load(name string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.cache[name]; ok {
		return tmpl, nil
	}
	tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	r.cache[name] = tmpl
	return tmpl, nil
}
