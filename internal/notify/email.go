// Package notify turns booking lifecycle events into client-facing emails.
package notify

import (
	"context"
	"sync"

	"github.com/fixloop/fixloop-platform/pkg/logging"
)

// EmailSender sends one email. Implementations can be swapped (SES, SMTP,
// a test recorder) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is an email to be sent.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string // plain text
	HTML    string // optional HTML body
}

// NoopSender logs instead of sending. Used when email is disabled.
type NoopSender struct {
	logger *logging.Logger
}

func NewNoopSender(logger *logging.Logger) *NoopSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &NoopSender{logger: logger}
}

func (s *NoopSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("email disabled, dropping message", "to", msg.To, "subject", msg.Subject)
	return nil
}

// MemorySender records sent messages. Test double.
type MemorySender struct {
	mu   sync.Mutex
	sent []EmailMessage
}

func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

func (s *MemorySender) Send(_ context.Context, msg EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

// Sent returns a copy of everything sent so far.
func (s *MemorySender) Sent() []EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EmailMessage, len(s.sent))
	copy(out, s.sent)
	return out
}
