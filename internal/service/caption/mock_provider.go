package caption

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider provides a scripted Provider for testing and local development
type MockProvider struct {
	mu        sync.Mutex
	available bool
	response  string
	err       error
	panicWith any
	prompts   []string
}

// NewMockProvider creates a mock provider that answers with response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{available: true, response: response}
}

// NewFailingMockProvider creates a mock provider whose calls fail with err.
func NewFailingMockProvider(err error) *MockProvider {
	return &MockProvider{available: true, err: err}
}

// SetAvailable toggles IsAvailable.
func (m *MockProvider) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
}

// PanicWith makes the next calls panic with v.
func (m *MockProvider) PanicWith(v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicWith = v
}

// IsAvailable returns whether the mock provider is available
func (m *MockProvider) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// Complete records the prompt and returns the scripted answer.
func (m *MockProvider) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	if !m.available {
		return "", fmt.Errorf("mock provider is not available")
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// Prompts returns the prompts received so far.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
