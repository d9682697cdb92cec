package chat

import (
	"context"
	"sync"
)

// MockAssistant implements Assistant for testing. Replies are scripted with
// Queue/QueueError and consumed in order; when the script is empty it
// echoes the message back.
type MockAssistant struct {
	mu     sync.Mutex
	script []mockStep
	asked  []string
	gate   chan struct{}
}

type mockStep struct {
	reply Reply
	err   error
}

// NewMockAssistant creates a MockAssistant with an empty script.
func NewMockAssistant() *MockAssistant {
	return &MockAssistant{}
}

// Queue appends a successful reply to the script.
func (m *MockAssistant) Queue(r Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockStep{reply: r})
}

// QueueError appends a failure to the script.
func (m *MockAssistant) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockStep{err: err})
}

// Hold makes subsequent Ask calls block until Release is called or their
// context ends.
func (m *MockAssistant) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = make(chan struct{})
}

// Release unblocks calls waiting because of Hold.
func (m *MockAssistant) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

// Ask records the message and returns the next scripted step.
func (m *MockAssistant) Ask(ctx context.Context, message string) (Reply, error) {
	m.mu.Lock()
	m.asked = append(m.asked, message)
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.script) == 0 {
		return Reply{Text: message}, nil
	}
	step := m.script[0]
	m.script = m.script[1:]
	return step.reply, step.err
}

// Asked returns a copy of every message passed to Ask.
func (m *MockAssistant) Asked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.asked))
	copy(out, m.asked)
	return out
}
