package gateway

import (
	"context"
	"sync"
)

// MockStep is one scripted outcome for a MockProvider.
type MockStep struct {
	Text string
	Err  error
}

// MockProvider replays a fixed script of outcomes and records which
// credential each call used. The last step repeats once the script
// runs out.
type MockProvider struct {
	mu    sync.Mutex
	steps []MockStep
	calls []string
	block chan struct{}
}

func NewMockProvider(steps ...MockStep) *MockProvider {
	return &MockProvider{steps: steps}
}

// Block makes every subsequent call hang until the returned channel is
// closed, or the call's context ends.
func (m *MockProvider) Block() chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block = make(chan struct{})
	return m.block
}

func (m *MockProvider) Complete(ctx context.Context, credential, model string, req Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, credential)
	idx := len(m.calls) - 1
	if idx >= len(m.steps) {
		idx = len(m.steps) - 1
	}
	step := MockStep{}
	if idx >= 0 {
		step = m.steps[idx]
	}
	block := m.block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return step.Text, step.Err
}

// Calls returns the credentials used so far, in call order.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
