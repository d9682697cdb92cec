package digest

import (
	"context"
	"sync"
)

// MockNotifier implements Notifier for testing.
type MockNotifier struct {
	mu      sync.Mutex
	name    string
	sent    []Digest
	SendErr error
}

// NewMockNotifier creates a MockNotifier reporting the given name.
func NewMockNotifier(name string) *MockNotifier {
	return &MockNotifier{name: name}
}

// Name implements Notifier.
func (m *MockNotifier) Name() string { return m.name }

// Send records d, or returns SendErr when set.
func (m *MockNotifier) Send(ctx context.Context, d Digest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.sent = append(m.sent, d)
	return nil
}

// Sent returns every digest delivered so far.
func (m *MockNotifier) Sent() []Digest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Digest, len(m.sent))
	copy(out, m.sent)
	return out
}
