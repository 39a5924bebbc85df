// Package notification sends transactional email to patients with template
// rendering and best-effort asynchronous delivery.
package notification

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ---------------------------------------------------------------------------
// Template Engine
// ---------------------------------------------------------------------------

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "appointment-confirmed",
			Name:    "Appointment Confirmed",
			Subject: "Your appointment on {{date}} is confirmed",
			Body:    "Dear {{patient_name}}, your appointment on {{date}} at {{time}} has been confirmed. Please arrive 10 minutes early.",
		},
		{
			ID:      "appointment-cancelled",
			Name:    "Appointment Cancelled",
			Subject: "Your appointment on {{date}} has been cancelled",
			Body:    "Dear {{patient_name}}, your appointment on {{date}} at {{time}} has been cancelled. Contact the clinic to reschedule.",
		},
		{
			ID:      "payment-receipt",
			Name:    "Payment Receipt",
			Subject: "Payment received",
			Body:    "Dear {{patient_name}}, we have received your payment of {{total}}. Thank you.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are left
// as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// ---------------------------------------------------------------------------
// SMTP Sender
// ---------------------------------------------------------------------------

// SMTPSender delivers email over plain SMTP.
type SMTPSender struct {
	Addr string
	From string
}

// NewSMTPSender creates an SMTPSender for the given host:port address.
func NewSMTPSender(addr, from string) *SMTPSender {
	return &SMTPSender{Addr: addr, From: from}
}

// SendEmail sends a single plain-text message.
func (s *SMTPSender) SendEmail(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.From, to, subject, body)
	return smtp.SendMail(s.Addr, nil, s.From, []string{to}, []byte(msg))
}

// NoopSender discards all mail. Used when no SMTP host is configured.
type NoopSender struct{}

func (NoopSender) SendEmail(context.Context, string, string, string) error { return nil }

// ---------------------------------------------------------------------------
// Mock Sender (test double)
// ---------------------------------------------------------------------------

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// ---------------------------------------------------------------------------
// Notifier
// ---------------------------------------------------------------------------

// Notifier renders templates and delivers email in the background. Delivery
// failures are logged, never returned to the caller: a lost email must not
// fail the operation that triggered it.
type Notifier struct {
	sender    EmailSender
	templates *TemplateEngine
	logger    zerolog.Logger
	timeout   time.Duration

	wg sync.WaitGroup
}

// NewNotifier constructs a Notifier.
func NewNotifier(sender EmailSender, tpl *TemplateEngine, logger zerolog.Logger) *Notifier {
	return &Notifier{
		sender:    sender,
		templates: tpl,
		logger:    logger,
		timeout:   10 * time.Second,
	}
}

// SendTemplateAsync renders the template and sends it in the background.
func (n *Notifier) SendTemplateAsync(templateID string, data map[string]string, recipient string) {
	subject, body, err := n.templates.Render(templateID, data)
	if err != nil {
		n.logger.Error().Err(err).Str("template", templateID).Msg("render notification template")
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.sender.SendEmail(ctx, recipient, subject, body); err != nil {
			n.logger.Error().Err(err).
				Str("template", templateID).
				Str("recipient", recipient).
				Msg("send notification email")
		}
	}()
}

// Wait blocks until all in-flight sends complete. Used in tests and shutdown.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
