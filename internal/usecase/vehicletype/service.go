package vehicletype

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/autorovers/autorovers/internal/domain"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// Listener receives the line after every change. An unset lock is "".
type Listener func(vehicle.Line)

// Service tracks which product line a session is browsing.
type Service struct {
	repo      Repository
	selection SelectionClearer
	logger    *zap.Logger

	mu sync.Mutex

	subMu     sync.Mutex
	listeners map[string][]entry
	stops     map[string]func()
	last      map[string]vehicle.Line
	nextID    int
}

type entry struct {
	id int
	fn Listener
}

// New creates a vehicle type service. selection may be nil.
func New(repo Repository, selection SelectionClearer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		selection: selection,
		logger:    logger,
		listeners: make(map[string][]entry),
		stops:     make(map[string]func()),
		last:      make(map[string]vehicle.Line),
	}
}

// Get returns the stored line, or "" when absent, invalid or unreadable.
func (s *Service) Get(ctx context.Context, owner string) vehicle.Line {
	line, err := s.repo.Get(ctx, owner)
	if err != nil {
		s.logger.Error("Failed to load vehicle type", zap.String("owner", owner), zap.Error(err))
		return ""
	}
	return line
}

// Set stores line and clears a compare selection locked to the other line.
func (s *Service) Set(ctx context.Context, owner string, line vehicle.Line) error {
	if !line.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidVehicleType, line)
	}

	s.mu.Lock()
	err := s.repo.Set(ctx, owner, line)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("set vehicle type: %w: %w", domain.ErrStorageUnavailable, err)
	}

	s.dispatch(owner, line)

	if s.selection != nil {
		_, cleared, err := s.selection.ClearUnlessLocked(ctx, owner, line)
		if err != nil {
			return fmt.Errorf("clear selection for %s: %w", line, err)
		}
		if cleared {
			s.logger.Info("Cleared compare selection after vehicle type switch",
				zap.String("owner", owner), zap.Stringer("vehicle_type", line))
		}
	}
	return nil
}

// Clear removes the stored line.
func (s *Service) Clear(ctx context.Context, owner string) error {
	s.mu.Lock()
	err := s.repo.Clear(ctx, owner)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("clear vehicle type: %w: %w", domain.ErrStorageUnavailable, err)
	}
	s.dispatch(owner, "")
	return nil
}

// Subscribe registers fn for changes of the owner's line, local or from
// another process sharing the store.
func (s *Service) Subscribe(owner string, fn Listener) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[owner] = append(s.listeners[owner], entry{id: id, fn: fn})
	_, watching := s.stops[owner]
	if !watching {
		s.stops[owner] = nil
	}
	s.subMu.Unlock()

	if !watching {
		stop, err := s.repo.Watch(context.Background(), owner, func() {
			s.dispatch(owner, s.Get(context.Background(), owner))
		})
		if err != nil {
			s.logger.Warn("Cross-process vehicle type watch unavailable", zap.String("owner", owner), zap.Error(err))
		} else {
			s.subMu.Lock()
			if cur, ok := s.stops[owner]; ok && cur == nil {
				s.stops[owner] = stop
				stop = nil
			}
			s.subMu.Unlock()
			if stop != nil {
				stop()
			}
		}
	}

	var once sync.Once
	return func() { once.Do(func() { s.unsubscribe(owner, id) }) }
}

func (s *Service) unsubscribe(owner string, id int) {
	s.subMu.Lock()
	ls := s.listeners[owner]
	for i, e := range ls {
		if e.id == id {
			ls = append(ls[:i], ls[i+1:]...)
			break
		}
	}
	var stop func()
	if len(ls) == 0 {
		stop = s.stops[owner]
		delete(s.listeners, owner)
		delete(s.stops, owner)
		delete(s.last, owner)
	} else {
		s.listeners[owner] = ls
	}
	s.subMu.Unlock()

	if stop != nil {
		stop()
	}
}

func (s *Service) dispatch(owner string, line vehicle.Line) {
	s.subMu.Lock()
	ls := s.listeners[owner]
	if len(ls) == 0 {
		s.subMu.Unlock()
		return
	}
	if prev, ok := s.last[owner]; ok && prev == line {
		s.subMu.Unlock()
		return
	}
	s.last[owner] = line
	fns := make([]Listener, len(ls))
	for i, e := range ls {
		fns[i] = e.fn
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(line)
	}
}
