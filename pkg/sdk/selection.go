package autorovers

import (
	"context"
	"fmt"
	"time"

	domsel "github.com/autorovers/autorovers/internal/domain/selection"
	selectionuc "github.com/autorovers/autorovers/internal/usecase/selection"
)

// SelectionService operates on one owner's compare selection.
type SelectionService struct {
	owner string
	svc   *selectionuc.Service
	obs   *observer
}

// Get returns the current selection. Unreadable state reads as empty.
func (s *SelectionService) Get(ctx context.Context) Selection {
	return selectionFromState(s.svc.Load(ctx, s.owner))
}

// Toggle removes v when selected and adds it otherwise. A rejected add is
// not an error: the selection is returned unchanged with a non-empty reason.
func (s *SelectionService) Toggle(ctx context.Context, v Vehicle) (_ Selection, reason Reason, err error) {
	start := time.Now()
	defer func() {
		c := call{op: "selection.toggle", owner: s.owner, start: start, err: err, attrs: []any{"slug", v.Slug}}
		if reason != ReasonNone {
			c.status = statusRejected
			c.attrs = append(c.attrs, "reason", string(reason))
		}
		s.obs.observe(c)
	}()

	st, reason, err := s.svc.Toggle(ctx, s.owner, v)
	if err != nil {
		return Selection{}, ReasonNone, fmt.Errorf("toggle: %w", err)
	}
	return selectionFromState(st), reason, nil
}

// Remove drops the vehicle with slug. Unknown slugs are a no-op.
func (s *SelectionService) Remove(ctx context.Context, slug string) (_ Selection, err error) {
	start := time.Now()
	defer func() { s.obs.observe(call{op: "selection.remove", owner: s.owner, start: start, err: err, attrs: []any{"slug", slug}}) }()

	st, err := s.svc.Remove(ctx, s.owner, slug)
	if err != nil {
		return Selection{}, fmt.Errorf("remove %s: %w", slug, err)
	}
	return selectionFromState(st), nil
}

// Clear empties the selection.
func (s *SelectionService) Clear(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.obs.observe(call{op: "selection.clear", owner: s.owner, start: start, err: err}) }()

	if _, err = s.svc.Clear(ctx, s.owner); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

// Watch calls fn with every new selection until stop is called.
// fn must not block.
func (s *SelectionService) Watch(fn func(Selection)) (stop func()) {
	return s.svc.Subscribe(s.owner, func(st domsel.State) {
		fn(selectionFromState(st))
	})
}
