// Package memory is an in-process db.Store. Handles created with Share see
// each other's writes and change signals, which stands in for separate
// processes sharing one server.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/autorovers/autorovers/internal/db"
)

var _ db.Store = (*Store)(nil)

type backend struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[string]map[int]chan struct{}
	nextID   int
}

// Store is a map-backed key-value store.
type Store struct {
	be *backend

	mu     sync.Mutex
	closed bool
	stops  map[int]func()
}

// New creates an empty store.
func New() *Store {
	return &Store{be: &backend{
		data:     make(map[string][]byte),
		watchers: make(map[string]map[int]chan struct{}),
	}}
}

// Share returns a new handle over the same data.
func (s *Store) Share() *Store {
	return &Store{be: s.be}
}

// Ping always succeeds on an open store.
func (s *Store) Ping(context.Context) error {
	if s.isClosed() {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	return nil
}

// Get retrieves a copy of the value at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	if s.isClosed() {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrClosed}
	}
	s.be.mu.RLock()
	v, ok := s.be.data[key]
	s.be.mu.RUnlock()
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value at key and signals watchers.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if s.isClosed() {
		return &db.Error{Op: db.OpSet, Err: db.ErrClosed}
	}
	s.be.mu.Lock()
	s.be.data[key] = append([]byte(nil), value...)
	s.be.mu.Unlock()
	s.be.signal(key)
	return nil
}

// Del removes key and signals watchers.
func (s *Store) Del(_ context.Context, key string) error {
	if s.isClosed() {
		return &db.Error{Op: db.OpDel, Err: db.ErrClosed}
	}
	s.be.mu.Lock()
	_, existed := s.be.data[key]
	delete(s.be.data, key)
	s.be.mu.Unlock()
	if existed {
		s.be.signal(key)
	}
	return nil
}

// Watch calls fn after every Set or Del of key through any shared handle.
// Signals that arrive while fn is running are coalesced into one call.
func (s *Store) Watch(_ context.Context, key string, fn func()) (func(), error) {
	if s.isClosed() {
		return nil, &db.Error{Op: db.OpSubscribe, Err: db.ErrClosed}
	}

	ch := make(chan struct{}, 1)
	s.be.mu.Lock()
	id := s.be.nextID
	s.be.nextID++
	if s.be.watchers[key] == nil {
		s.be.watchers[key] = make(map[int]chan struct{})
	}
	s.be.watchers[key][id] = ch
	s.be.mu.Unlock()

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-quit:
				return
			case <-ch:
				fn()
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			s.be.mu.Lock()
			delete(s.be.watchers[key], id)
			if len(s.be.watchers[key]) == 0 {
				delete(s.be.watchers, key)
			}
			s.be.mu.Unlock()
			close(quit)
			<-done

			s.mu.Lock()
			delete(s.stops, id)
			s.mu.Unlock()
		})
	}

	s.mu.Lock()
	if s.stops == nil {
		s.stops = make(map[int]func())
	}
	s.stops[id] = stop
	s.mu.Unlock()

	return stop, nil
}

// Close marks the handle closed and stops its watches.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	stops := make([]func(), 0, len(s.stops))
	for _, stop := range s.stops {
		stops = append(stops, stop)
	}
	s.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}

// WaitForReady returns immediately for an open store.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, s, timeout)
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (b *backend) signal(key string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.watchers[key] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
