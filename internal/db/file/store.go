// Package file is a db.Store that keeps one JSON document per key in a
// directory. Change signals come from fsnotify, so separate processes sharing
// the directory observe each other's writes.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/autorovers/autorovers/internal/db"
)

var _ db.Store = (*Store)(nil)

const filePerm = 0o600

// Store persists values as files under dir.
type Store struct {
	dir string

	mu     sync.Mutex
	closed bool
	stops  map[int]func()
	nextID int
}

// NewStore creates the directory if needed and returns a store rooted at it.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir, stops: make(map[int]func())}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, fileName(key))
}

func fileName(key string) string {
	return url.QueryEscape(key) + ".json"
}

// Ping checks that the directory is still accessible.
func (s *Store) Ping(context.Context) error {
	if s.isClosed() {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	if _, err := os.Stat(s.dir); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Get reads the value stored at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	if s.isClosed() {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrClosed}
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set writes value atomically (temp file + rename).
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if s.isClosed() {
		return &db.Error{Op: db.OpSet, Err: db.ErrClosed}
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &db.Error{Op: db.OpSet, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &db.Error{Op: db.OpSet, Err: err}
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		_ = os.Remove(tmpName)
		return &db.Error{Op: db.OpSet, Err: err}
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del removes the file for key. Missing keys are not an error.
func (s *Store) Del(_ context.Context, key string) error {
	if s.isClosed() {
		return &db.Error{Op: db.OpDel, Err: db.ErrClosed}
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Watch calls fn whenever the file backing key is created, written, renamed or removed.
func (s *Store) Watch(_ context.Context, key string, fn func()) (func(), error) {
	if s.isClosed() {
		return nil, &db.Error{Op: db.OpSubscribe, Err: db.ErrClosed}
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &db.Error{Op: db.OpSubscribe, Err: err}
	}
	if err := w.Add(s.dir); err != nil {
		_ = w.Close()
		return nil, &db.Error{Op: db.OpSubscribe, Err: err}
	}

	name := fileName(key)
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		for {
			select {
			case <-stopCh:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != name {
					continue
				}
				if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) ||
					ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
					fn()
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(stopCh)
			<-doneCh
			_ = w.Close()
			s.mu.Lock()
			delete(s.stops, id)
			s.mu.Unlock()
		})
	}
	s.stops[id] = stop
	s.mu.Unlock()

	return stop, nil
}

// Close stops every watch opened through this store.
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

// WaitForReady polls Ping until the directory is accessible or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, s, timeout)
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
