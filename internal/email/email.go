// Package email defines the outbound mail hook used for verification,
// password reset and invitation notices.
package email

import (
	"context"
	"log/slog"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the logger instead of delivering them.
// Used in development and tests.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that logs instead of sending.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("email (not sent)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body)
	return nil
}
