package testutils

import (
	"context"
	"fmt"
	"sync"
)

// DefaultVector is returned for any text without an entry in Embeddings.
var DefaultVector = []float32{0.1, 0.2, 0.3}

// MockEmbedder returns canned vectors and records what it was asked to
// embed. An entry in Embeddings is returned as is, even when empty.
type MockEmbedder struct {
	Embeddings map[string][]float32

	// FailOn and PanicOn make Embed error or panic for one exact text.
	FailOn  string
	PanicOn string

	mu     sync.Mutex
	texts  []string
	closed bool
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Embeddings: map[string][]float32{}}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	switch {
	case m.PanicOn != "" && text == m.PanicOn:
		panic("mock embedder panic on " + text)
	case m.FailOn != "" && text == m.FailOn:
		return nil, fmt.Errorf("mock embedding failure for %q", text)
	}

	if v, ok := m.Embeddings[text]; ok {
		return v, nil
	}
	return append([]float32(nil), DefaultVector...), nil
}

// Calls returns how many times Embed ran.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

// Texts returns every text passed to Embed, in call order.
func (m *MockEmbedder) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

func (m *MockEmbedder) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockEmbedder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
