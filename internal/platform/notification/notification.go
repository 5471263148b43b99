// Package notification delivers push/SMS updates about emergency request
// status changes. Dispatch is fire-and-forget: delivery failures are recorded
// and logged but never propagate to the operation that triggered them.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Kind identifies a notification template.
type Kind string

const (
	KindRequestAccepted  Kind = "request-accepted"
	KindResponderArrived Kind = "responder-arrived"
	KindBedOccupied      Kind = "bed-occupied"
	KindRequestCancelled Kind = "request-cancelled"
	KindRequestCompleted Kind = "request-completed"
	KindStatusChanged    Kind = "status-changed"
)

// Channel represents the delivery channel for a notification.
type Channel string

const (
	ChannelPush Channel = "push"
	ChannelSMS  Channel = "sms"
)

// Notification represents a single outbound notification.
type Notification struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	Channel   Channel           `json:"channel"`
	Recipient string            `json:"recipient"`
	Title     string            `json:"title,omitempty"`
	Body      string            `json:"body"`
	Payload   map[string]string `json:"payload,omitempty"`
	Status    string            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	SentAt    *time.Time        `json:"sent_at,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// PushSender is the interface for delivering push notifications.
type PushSender interface {
	SendPush(ctx context.Context, to, title, body string, data map[string]string) error
}

// SMSSender is the interface for delivering SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Template defines a reusable notification template.
type Template struct {
	Kind    Kind
	Channel Channel
	Title   string
	Body    string
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[Kind]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[Kind]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			Kind:    KindRequestAccepted,
			Channel: ChannelPush,
			Title:   "Request accepted",
			Body:    "{{hospital}} has accepted your {{service}} request. Help is on the way.",
		},
		{
			Kind:    KindResponderArrived,
			Channel: ChannelPush,
			Title:   "Ambulance arrived",
			Body:    "The ambulance from {{hospital}} has arrived at your location.",
		},
		{
			Kind:    KindBedOccupied,
			Channel: ChannelPush,
			Title:   "Bed ready",
			Body:    "Your bed at {{hospital}} is occupied and your stay has begun.",
		},
		{
			Kind:    KindRequestCancelled,
			Channel: ChannelPush,
			Title:   "Request cancelled",
			Body:    "Your {{service}} request at {{hospital}} was cancelled.",
		},
		{
			Kind:    KindRequestCompleted,
			Channel: ChannelPush,
			Title:   "Request completed",
			Body:    "Your {{service}} request at {{hospital}} is complete. We hope you are well.",
		},
		{
			Kind:    KindStatusChanged,
			Channel: ChannelPush,
			Title:   "Request update",
			Body:    "Your {{service}} request is now {{status}}.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.Kind] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.Kind] = &t
}

// Render looks up a template by kind and performs {{key}} replacement using
// the supplied data map. Keys present in the template but absent from data
// are left as-is.
func (e *TemplateEngine) Render(kind Kind, data map[string]string) (channel Channel, title, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[kind]
	e.mu.RUnlock()
	if !ok {
		return "", "", "", fmt.Errorf("template %q not found", kind)
	}

	title = t.Title
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		title = strings.ReplaceAll(title, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return t.Channel, title, body, nil
}

// Dispatcher renders and delivers notifications, keeping an in-memory
// delivery log for inspection.
type Dispatcher struct {
	push      PushSender
	sms       SMSSender
	templates *TemplateEngine
	logger    zerolog.Logger

	mu  sync.RWMutex
	log map[string]*Notification
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(push PushSender, sms SMSSender, tpl *TemplateEngine, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		push:      push,
		sms:       sms,
		templates: tpl,
		logger:    logger,
		log:       make(map[string]*Notification),
	}
}

// Dispatch renders the template for kind and delivers it to the recipient.
// It never returns an error: failures are logged and recorded in the
// delivery log.
func (d *Dispatcher) Dispatch(ctx context.Context, kind Kind, recipient string, payload map[string]string) {
	n := &Notification{
		ID:        uuid.New().String(),
		Kind:      kind,
		Recipient: recipient,
		Payload:   payload,
		Status:    "pending",
		CreatedAt: time.Now().UTC(),
	}

	channel, title, body, err := d.templates.Render(kind, payload)
	if err == nil {
		n.Channel = channel
		n.Title = title
		n.Body = body
		err = d.send(ctx, n)
	}

	if err != nil {
		n.Status = "failed"
		n.Error = err.Error()
		d.logger.Warn().Err(err).Str("kind", string(kind)).Str("recipient", recipient).
			Msg("notification dispatch failed")
	} else {
		n.Status = "sent"
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
	}

	d.mu.Lock()
	d.log[n.ID] = n
	d.mu.Unlock()
}

func (d *Dispatcher) send(ctx context.Context, n *Notification) error {
	switch n.Channel {
	case ChannelPush:
		if d.push == nil {
			return errors.New("no push sender configured")
		}
		return d.push.SendPush(ctx, n.Recipient, n.Title, n.Body, n.Payload)
	case ChannelSMS:
		if d.sms == nil {
			return errors.New("no sms sender configured")
		}
		return d.sms.SendSMS(ctx, n.Recipient, n.Body)
	default:
		return fmt.Errorf("unsupported channel: %s", n.Channel)
	}
}

// ListByRecipient returns logged notifications for a recipient, up to limit.
func (d *Dispatcher) ListByRecipient(recipient string, limit int) []*Notification {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []*Notification
	for _, n := range d.log {
		if n.Recipient == recipient {
			result = append(result, n)
			if len(result) >= limit {
				break
			}
		}
	}
	return result
}

// Stats returns counts of logged notifications grouped by status.
func (d *Dispatcher) Stats() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := make(map[string]int)
	for _, n := range d.log {
		stats[n.Status]++
	}
	return stats
}

// PushCall records a single call to SendPush.
type PushCall struct {
	To    string
	Title string
	Body  string
	Data  map[string]string
}

// MockPushSender is a test double for PushSender.
type MockPushSender struct {
	mu         sync.Mutex
	calls      []PushCall
	ShouldFail bool
	FailError  string
}

// SendPush records the call and optionally returns an error.
func (m *MockPushSender) SendPush(_ context.Context, to, title, body string, data map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, PushCall{To: to, Title: title, Body: body, Data: data})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded push calls.
func (m *MockPushSender) Calls() []PushCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PushCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// SMSCall records a single call to SendSMS.
type SMSCall struct {
	To   string
	Body string
}

// MockSMSSender is a test double for SMSSender.
type MockSMSSender struct {
	mu         sync.Mutex
	calls      []SMSCall
	ShouldFail bool
	FailError  string
}

// SendSMS records the call and optionally returns an error.
func (m *MockSMSSender) SendSMS(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, SMSCall{To: to, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded SMS calls.
func (m *MockSMSSender) Calls() []SMSCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SMSCall, len(m.calls))
	copy(out, m.calls)
	return out
}
