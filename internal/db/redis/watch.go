package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/rueidis"

	"github.com/autorovers/autorovers/internal/db"
)

const resubscribeDelay = time.Second

// Watch subscribes to the key's keyspace channel. Every write or delete of the
// key, from any process, invokes fn. The subscription is re-established after
// connection errors until stop is called or the store is closed.
func (s *Store) Watch(ctx context.Context, key string, fn func()) (func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, &db.Error{Op: db.OpSubscribe, Err: db.ErrClosed}
	}
	s.watchers.Add(1)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	channel := s.keyspaceChannel(key)
	done := make(chan struct{})

	go func() {
		defer s.watchers.Done()
		defer close(done)

		for {
			cmd := s.b().Subscribe().Channel(channel).Build()
			err := s.client.Receive(ctx, cmd, func(rueidis.PubSubMessage) {
				fn()
			})
			if ctx.Err() != nil || errors.Is(err, rueidis.ErrClosing) {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(resubscribeDelay):
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}
