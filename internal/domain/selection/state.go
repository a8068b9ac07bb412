// Package selection implements the compare selection state machine: a bounded,
// ordered set of vehicle references locked to a single product line.
package selection

import (
	"errors"
	"fmt"

	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// Capacity is the maximum number of vehicles in a selection.
const Capacity = 4

// ErrMalformed signals a stored selection that violates the state invariants.
var ErrMalformed = errors.New("malformed selection")

// Classifier resolves the product line of a reference.
type Classifier interface {
	Classify(h vehicle.Hints) (vehicle.Line, bool)
}

// State is an immutable selection snapshot.
// Non-empty states are locked to the line of every item; empty states are unlocked.
type State struct {
	locked vehicle.Line
	items  []vehicle.Reference
}

// Empty returns the unlocked empty selection.
func Empty() State { return State{} }

// New validates items and builds a state locked to the line of items[0].
// Ids must be positive and unique, slugs non-blank, and every item must
// classify to the same line.
func New(items []vehicle.Reference, c Classifier) (State, error) {
	if len(items) == 0 {
		return Empty(), nil
	}
	if len(items) > Capacity {
		return Empty(), fmt.Errorf("%w: %d items exceeds capacity %d", ErrMalformed, len(items), Capacity)
	}
	locked, ok := c.Classify(items[0].Hints())
	if !ok {
		return Empty(), fmt.Errorf("%w: item %d is unclassifiable", ErrMalformed, items[0].ID)
	}
	seen := make(map[int64]struct{}, len(items))
	for _, it := range items {
		if it.ID <= 0 {
			return Empty(), fmt.Errorf("%w: invalid id %d", ErrMalformed, it.ID)
		}
		if !it.HasSlug() {
			return Empty(), fmt.Errorf("%w: item %d has no slug", ErrMalformed, it.ID)
		}
		if _, dup := seen[it.ID]; dup {
			return Empty(), fmt.Errorf("%w: duplicate id %d", ErrMalformed, it.ID)
		}
		seen[it.ID] = struct{}{}
		if line, ok := c.Classify(it.Hints()); !ok || line != locked {
			return Empty(), fmt.Errorf("%w: item %d does not match line %s", ErrMalformed, it.ID, locked)
		}
	}
	return State{locked: locked, items: cloneItems(items)}, nil
}

// Locked returns the product line lock, or "" when the selection is empty.
func (s State) Locked() vehicle.Line { return s.locked }

// Items returns a copy of the selected references in insertion order.
func (s State) Items() []vehicle.Reference { return cloneItems(s.items) }

// Len returns the number of selected vehicles.
func (s State) Len() int { return len(s.items) }

// IsEmpty reports whether nothing is selected.
func (s State) IsEmpty() bool { return len(s.items) == 0 }

// IsFull reports whether the selection is at capacity.
func (s State) IsFull() bool { return len(s.items) >= Capacity }

// Contains reports whether id is selected.
func (s State) Contains(id int64) bool { return s.indexOf(id) >= 0 }

// IDs returns the selected ids in order.
func (s State) IDs() []int64 {
	ids := make([]int64, len(s.items))
	for i, it := range s.items {
		ids[i] = it.ID
	}
	return ids
}

// Slugs returns the non-blank slugs in order.
func (s State) Slugs() []string {
	slugs := make([]string, 0, len(s.items))
	for _, it := range s.items {
		if it.HasSlug() {
			slugs = append(slugs, it.Slug)
		}
	}
	return slugs
}

// Equal reports whether two states hold the same lock and items in the same order.
func (s State) Equal(o State) bool {
	if s.locked != o.locked || len(s.items) != len(o.items) {
		return false
	}
	for i := range s.items {
		if s.items[i] != o.items[i] {
			return false
		}
	}
	return true
}

func (s State) indexOf(id int64) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func cloneItems(items []vehicle.Reference) []vehicle.Reference {
	if len(items) == 0 {
		return nil
	}
	out := make([]vehicle.Reference, len(items))
	copy(out, items)
	return out
}
