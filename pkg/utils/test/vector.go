package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/docqa/pkg/vector"
	"github.com/papercomputeco/docqa/pkg/vector/flat"
)

// ErrMockIndex is returned by the mock provider and its indexes when told to fail.
var ErrMockIndex = errors.New("mock index failure")

// MockProvider is a test vector provider backed by the flat index. Its
// failure switches apply to the provider and every index it returns.
type MockProvider struct {
	FailBuild   bool
	FailLoad    bool
	FailSearch  bool
	PanicSearch bool

	mu     sync.Mutex
	builds int
	closed bool
	inner  *flat.Provider
}

func NewMockProvider() *MockProvider {
	return &MockProvider{inner: flat.NewProvider()}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Build(ctx context.Context, rows [][]float32) (vector.Index, error) {
	m.mu.Lock()
	m.builds++
	m.mu.Unlock()

	if m.FailBuild {
		return nil, ErrMockIndex
	}
	idx, err := m.inner.Build(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &MockIndex{Index: idx, provider: m}, nil
}

func (m *MockProvider) Load(ctx context.Context, path string) (vector.Index, error) {
	if m.FailLoad {
		return nil, ErrMockIndex
	}
	idx, err := m.inner.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return &MockIndex{Index: idx, provider: m}, nil
}

// Builds returns how many times Build was invoked.
func (m *MockProvider) Builds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.builds
}

// Closed reports whether Close was called.
func (m *MockProvider) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// MockIndex wraps a real index with the owning provider's failure switches.
type MockIndex struct {
	vector.Index
	provider *MockProvider
}

func (i *MockIndex) Search(ctx context.Context, query []float32, k int) ([]vector.Neighbor, error) {
	if i.provider.PanicSearch {
		panic("mock index panic")
	}
	if i.provider.FailSearch {
		return nil, ErrMockIndex
	}
	return i.Index.Search(ctx, query, k)
}
