package selection

import (
	"context"
	"sync"

	"github.com/autorovers/autorovers/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	watched []string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) Watch(_ context.Context, key string, _ func()) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watched = append(m.watched, key)
	return func() {}, nil
}
