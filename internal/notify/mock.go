package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// MockSender records messages instead of delivering them. It backs the
// "mock" provider used in development and in tests.
type MockSender struct {
	mu     sync.Mutex
	sent   []AccessMessage
	Err    error // returned from SendAccessKey when non-nil
	logger zerolog.Logger
}

// NewMockSender creates a recording sender.
func NewMockSender(logger zerolog.Logger) *MockSender {
	return &MockSender{logger: logger.With().Str("notifier", "mock").Logger()}
}

var _ Sender = (*MockSender)(nil)

// SendAccessKey records the message and logs it.
func (s *MockSender) SendAccessKey(_ context.Context, msg AccessMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.sent = append(s.sent, msg)
	s.logger.Info().
		Str("to", msg.To).
		Str("password", msg.Password).
		Msg("mock access email")
	return nil
}

// Sent returns a copy of every recorded message.
func (s *MockSender) Sent() []AccessMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AccessMessage, len(s.sent))
	copy(out, s.sent)
	return out
}
