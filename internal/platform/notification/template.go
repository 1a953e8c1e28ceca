package notification

import (
	"fmt"
	"strings"
	"sync"
)

// Built-in template IDs.
const (
	TemplateEmailVerification = "email-verification"
	TemplatePhoneVerification = "phone-verification"
	TemplateWelcome           = "welcome"
)

// Template is a reusable message with {{key}} placeholders.
type Template struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Subject string           `json:"subject"`
	Body    string           `json:"body"`
	Type    NotificationType `json:"type"`
}

// Rendered is the outcome of applying data to a template.
type Rendered struct {
	Subject string
	Body    string
	Type    NotificationType
}

// TemplateEngine holds registered templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine returns an engine with the built-in account templates
// registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	for _, t := range builtinTemplates() {
		e.RegisterTemplate(t)
	}
	return e
}

func builtinTemplates() []Template {
	return []Template{
		{
			ID:      TemplateEmailVerification,
			Name:    "Email Verification",
			Subject: "Verify your email address",
			Body:    "Hi {{name}}, your verification code is {{code}}. It expires in {{ttl_minutes}} minutes.",
			Type:    TypeEmail,
		},
		{
			ID:   TemplatePhoneVerification,
			Name: "Phone Verification",
			Body: "Your CareLink verification code is {{code}}. It expires in {{ttl_minutes}} minutes.",
			Type: TypeSMS,
		},
		{
			ID:      TemplateWelcome,
			Name:    "Welcome",
			Subject: "Welcome to CareLink",
			Body:    "Hi {{name}}, your {{role}} account is ready. Please verify your email to unlock all features.",
			Type:    TypeEmail,
		},
	}
}

// RegisterTemplate adds or replaces a template.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render expands the template's placeholders with data. Placeholders without
// a matching key are left in place.
func (e *TemplateEngine) Render(id string, data map[string]string) (Rendered, error) {
	e.mu.RLock()
	t, ok := e.templates[id]
	e.mu.RUnlock()
	if !ok {
		return Rendered{}, fmt.Errorf("template %q not registered", id)
	}
	return Rendered{
		Subject: expand(t.Subject, data),
		Body:    expand(t.Body, data),
		Type:    t.Type,
	}, nil
}

func expand(s string, data map[string]string) string {
	for k, v := range data {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}
