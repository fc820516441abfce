// Package notification sends transactional email. Sends are best-effort:
// callers log failures and never fail the primary operation on them.
package notification

import (
	"context"
	"log/slog"
	"sync"
)

// Message is a rendered email ready to send.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender is the default sink when SMTP is not configured: it logs the
// message metadata and drops the body.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.Logger.InfoContext(ctx, "email suppressed (no SMTP configured)",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

// Recorder captures sent messages for test assertions.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
	// Fail, when set, makes every Send return this error.
	Fail error
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	if r.Fail != nil {
		return r.Fail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

// Sent returns a copy of everything delivered so far.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message{}, r.sent...)
}
