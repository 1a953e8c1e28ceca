package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means no notification exists with the given ID.
	ErrNotFound = errors.New("notification not found")

	// ErrNotRetryable means the notification is not in the failed state.
	ErrNotRetryable = errors.New("only failed notifications can be retried")
)

// Manager sends notifications and keeps an in-memory record of every
// attempt so failed deliveries can be inspected and retried.
type Manager struct {
	email     EmailSender
	sms       SMSSender
	templates *TemplateEngine

	mu    sync.RWMutex
	byID  map[string]*Notification
	order []string // insertion order, oldest first
}

// NewManager wires the delivery backends and template engine together.
func NewManager(email EmailSender, sms SMSSender, templates *TemplateEngine) *Manager {
	return &Manager{
		email:     email,
		sms:       sms,
		templates: templates,
		byID:      make(map[string]*Notification),
	}
}

// Send delivers n on its channel and records the outcome. Failed deliveries
// are kept so they can be retried.
func (m *Manager) Send(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()
	err := m.deliver(ctx, n)

	m.mu.Lock()
	if _, seen := m.byID[n.ID]; !seen {
		m.order = append(m.order, n.ID)
	}
	m.byID[n.ID] = n
	m.mu.Unlock()
	return err
}

// SendFromTemplate renders the template and sends the result to recipient.
// The notification is non-nil whenever the template rendered, even if
// delivery then failed.
func (m *Manager) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notification, error) {
	r, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	n := &Notification{
		Type:         r.Type,
		Recipient:    recipient,
		Subject:      r.Subject,
		Body:         r.Body,
		TemplateID:   templateID,
		TemplateData: data,
	}
	return n, m.Send(ctx, n)
}

// Retry re-attempts delivery of a failed notification and returns its
// updated record.
func (m *Manager) Retry(ctx context.Context, id string) (*Notification, error) {
	m.mu.RLock()
	n, ok := m.byID[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if n.Status != StatusFailed {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotRetryable, id, n.Status)
	}
	return n, m.deliver(ctx, n)
}

// Get returns the notification with the given ID.
func (m *Manager) Get(id string) (*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return n, nil
}

// ListByRecipient returns up to limit notifications addressed to recipient,
// newest first.
func (m *Manager) ListByRecipient(recipient string, limit int) []*Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Notification, 0)
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		if n := m.byID[m.order[i]]; n.Recipient == recipient {
			out = append(out, n)
		}
	}
	return out
}

// Stats counts recorded notifications by status.
func (m *Manager) Stats() map[Status]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[Status]int)
	for _, n := range m.byID {
		stats[n.Status]++
	}
	return stats
}

// deliver routes n to its channel backend and stamps the outcome on it.
func (m *Manager) deliver(ctx context.Context, n *Notification) error {
	var err error
	switch n.Type {
	case TypeEmail:
		err = m.email.SendEmail(ctx, n.Recipient, n.Subject, n.Body)
	case TypeSMS:
		err = m.sms.SendSMS(ctx, n.Recipient, n.Body)
	default:
		err = fmt.Errorf("unsupported notification type %q", n.Type)
	}
	if err != nil {
		n.Status = StatusFailed
		n.Error = err.Error()
		return err
	}
	now := time.Now().UTC()
	n.Status = StatusSent
	n.SentAt = &now
	n.Error = ""
	return nil
}
