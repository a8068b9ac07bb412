package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/autorovers/autorovers/internal/domain"
	domsel "github.com/autorovers/autorovers/internal/domain/selection"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// Mutation operation labels.
const (
	OpToggle    = "toggle"
	OpRemove    = "remove"
	OpClear     = "clear"
	OpSanitize  = "sanitize"
	OpReconcile = "reconcile"
)

// Listener receives the selection after every change.
type Listener func(domsel.State)

// Service is the compare selection store. Mutations re-read the stored state,
// apply a domain transition, persist, and then notify subscribers before returning.
type Service struct {
	repo       Repository
	classifier domsel.Classifier
	logger     *zap.Logger
	mutations  *prometheus.CounterVec
	publisher  Publisher

	mu sync.Mutex // serializes read-modify-write cycles

	subMu  sync.Mutex
	subs   map[string]*ownerSubs
	nextID int
}

type listenerEntry struct {
	id int
	fn Listener
}

type ownerSubs struct {
	listeners []listenerEntry
	stopWatch func()
	last      domsel.State
	hasLast   bool
}

// New creates a selection service.
func New(repo Repository, c domsel.Classifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:       repo,
		classifier: c,
		logger:     logger,
		subs:       make(map[string]*ownerSubs),
	}
}

// WithMetrics records mutations in a counter vec labelled op and result.
func (s *Service) WithMetrics(mutations *prometheus.CounterVec) *Service {
	s.mutations = mutations
	return s
}

// WithPublisher announces every persisted change through p.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

// Load returns the owner's selection. It never fails: storage errors and
// corrupt documents are logged and read as the empty selection.
func (s *Service) Load(ctx context.Context, owner string) domsel.State {
	st, err := s.repo.Load(ctx, owner)
	if err != nil {
		if errors.Is(err, domsel.ErrMalformed) {
			s.logger.Warn("Discarding malformed selection", zap.String("owner", owner), zap.Error(err))
		} else {
			s.logger.Error("Failed to load selection", zap.String("owner", owner), zap.Error(err))
		}
		return domsel.Empty()
	}
	return st
}

// Toggle removes ref when selected, otherwise tries to add it. A rejected add
// returns the current state and a reason; the error is reserved for storage failures.
func (s *Service) Toggle(ctx context.Context, owner string, ref vehicle.Reference) (domsel.State, domsel.Reason, error) {
	var reason domsel.Reason
	st, err := s.mutate(ctx, owner, OpToggle, func(cur domsel.State) (domsel.State, bool) {
		var next domsel.State
		next, reason = domsel.Toggle(cur, ref, s.classifier)
		return next, reason == domsel.ReasonNone
	})
	if reason != domsel.ReasonNone {
		s.count(OpToggle, string(reason))
		s.logger.Debug("Toggle rejected",
			zap.String("owner", owner), zap.Int64("vehicle_id", ref.ID), zap.String("reason", string(reason)))
	}
	return st, reason, err
}

// Remove drops the vehicle with the given slug.
func (s *Service) Remove(ctx context.Context, owner, slug string) (domsel.State, error) {
	return s.mutate(ctx, owner, OpRemove, func(cur domsel.State) (domsel.State, bool) {
		next := domsel.RemoveSlug(cur, slug, s.classifier)
		return next, !next.Equal(cur)
	})
}

// Clear empties the selection. The empty state is always written.
func (s *Service) Clear(ctx context.Context, owner string) (domsel.State, error) {
	return s.mutate(ctx, owner, OpClear, func(domsel.State) (domsel.State, bool) {
		return domsel.Empty(), true
	})
}

// ClearUnlessLocked clears the selection when it is locked to a line other than line.
func (s *Service) ClearUnlessLocked(ctx context.Context, owner string, line vehicle.Line) (domsel.State, bool, error) {
	var cleared bool
	st, err := s.mutate(ctx, owner, OpClear, func(cur domsel.State) (domsel.State, bool) {
		if cur.IsEmpty() || cur.Locked() == line {
			return cur, false
		}
		cleared = true
		return domsel.Empty(), true
	})
	return st, cleared, err
}

// Sanitize keeps only keep ids and applies the resolved lock, then re-persists.
func (s *Service) Sanitize(ctx context.Context, owner string, keep []int64, resolved vehicle.Line) (domsel.State, error) {
	return s.mutate(ctx, owner, OpSanitize, func(cur domsel.State) (domsel.State, bool) {
		return domsel.Sanitize(cur, keep, resolved, s.classifier), true
	})
}

// Reconcile applies a finished comparison to the current selection: dropped
// ids are removed, refreshed references replace stored ones, and the result
// is sanitized under the resolved lock. Items added meanwhile are kept.
func (s *Service) Reconcile(
	ctx context.Context, owner string,
	drop []int64, refreshed []vehicle.Reference, resolved vehicle.Line,
) (domsel.State, error) {
	return s.mutate(ctx, owner, OpReconcile, func(cur domsel.State) (domsel.State, bool) {
		next := domsel.Reconcile(cur, drop, refreshed, resolved, s.classifier)
		return next, !next.Equal(cur)
	})
}

// mutate runs one read-modify-write cycle. apply reports whether to persist.
func (s *Service) mutate(
	ctx context.Context, owner, op string,
	apply func(domsel.State) (domsel.State, bool),
) (domsel.State, error) {
	s.mu.Lock()
	cur := s.Load(ctx, owner)
	next, persist := apply(cur)
	if !persist {
		s.mu.Unlock()
		return next, nil
	}
	if err := s.repo.Save(ctx, owner, next); err != nil {
		s.mu.Unlock()
		s.count(op, "error")
		s.logger.Error("Failed to save selection", zap.String("owner", owner), zap.String("op", op), zap.Error(err))
		return cur, fmt.Errorf("%s selection: %w: %w", op, domain.ErrStorageUnavailable, err)
	}
	s.mu.Unlock()

	s.count(op, "applied")
	s.dispatch(owner, next)
	if s.publisher != nil {
		if err := s.publisher.PublishSelection(ctx, owner, next); err != nil {
			s.logger.Warn("Failed to publish selection change", zap.String("owner", owner), zap.Error(err))
		}
	}
	return next, nil
}

func (s *Service) count(op, result string) {
	if s.mutations != nil {
		s.mutations.WithLabelValues(op, result).Inc()
	}
}

// Subscribe registers fn for the owner's selection changes, whether made by
// this service or by another process sharing the store. Listeners run
// synchronously in registration order and receive each distinct state once.
func (s *Service) Subscribe(owner string, fn Listener) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	os, ok := s.subs[owner]
	if !ok {
		os = &ownerSubs{}
		s.subs[owner] = os
	}
	os.listeners = append(os.listeners, listenerEntry{id: id, fn: fn})
	startWatch := os.stopWatch == nil
	s.subMu.Unlock()

	if startWatch {
		stop, err := s.repo.Watch(context.Background(), owner, func() { s.onExternalChange(owner) })
		if err != nil {
			s.logger.Warn("Cross-process selection watch unavailable", zap.String("owner", owner), zap.Error(err))
		} else {
			s.subMu.Lock()
			if cur, live := s.subs[owner]; live && cur == os && os.stopWatch == nil {
				os.stopWatch = stop
				stop = nil
			}
			s.subMu.Unlock()
			if stop != nil {
				stop()
			}
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(owner, id) })
	}
}

func (s *Service) unsubscribe(owner string, id int) {
	s.subMu.Lock()
	os, ok := s.subs[owner]
	if !ok {
		s.subMu.Unlock()
		return
	}
	for i, l := range os.listeners {
		if l.id == id {
			os.listeners = append(os.listeners[:i], os.listeners[i+1:]...)
			break
		}
	}
	var stop func()
	if len(os.listeners) == 0 {
		stop = os.stopWatch
		delete(s.subs, owner)
	}
	s.subMu.Unlock()

	if stop != nil {
		stop()
	}
}

func (s *Service) onExternalChange(owner string) {
	s.dispatch(owner, s.Load(context.Background(), owner))
}

func (s *Service) dispatch(owner string, st domsel.State) {
	s.subMu.Lock()
	os, ok := s.subs[owner]
	if !ok || (os.hasLast && os.last.Equal(st)) {
		s.subMu.Unlock()
		return
	}
	os.last, os.hasLast = st, true
	listeners := make([]Listener, len(os.listeners))
	for i, l := range os.listeners {
		listeners[i] = l.fn
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
}
