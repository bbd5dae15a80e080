package testing

import (
	"sync"

	"github.com/gabrielmiguelok/stepform/pkg/core"
)

// MockTransport implements core.Transport and records what a component
// pushes.
type MockTransport struct {
	sent   []core.Message
	closed bool
	err    error

	mu sync.Mutex
}

// NewMockTransport creates a connected mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Send records msg, or returns the error set with SetError.
func (m *MockTransport) Send(msg core.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	if m.closed {
		return core.ErrSocketClosed
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsConnected reports whether Close has not been called.
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// SetError makes every following Send fail with err. nil clears it.
func (m *MockTransport) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Sent returns a copy of every recorded message.
func (m *MockTransport) Sent() []core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]core.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// Events returns the recorded messages with the given event name.
func (m *MockTransport) Events(event string) []core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []core.Message
	for _, msg := range m.sent {
		if msg.Event == event {
			out = append(out, msg)
		}
	}
	return out
}

// Reset forgets recorded messages.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
