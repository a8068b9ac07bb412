package selection

import (
	"strings"

	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// Reason explains why a toggle was rejected. The empty reason means applied.
type Reason string

// Toggle rejection reasons.
const (
	ReasonNone            Reason = ""
	ReasonDuplicateType   Reason = "duplicate-type"
	ReasonCapacity        Reason = "capacity"
	ReasonUnclassifiable  Reason = "unclassifiable"
	ReasonMissingIdentity Reason = "missing-identity"
)

// Message is a user-facing explanation of the reason.
func (r Reason) Message() string {
	switch r {
	case ReasonDuplicateType:
		return "You can only compare vehicles of the same type"
	case ReasonCapacity:
		return "You can compare up to 4 vehicles"
	case ReasonUnclassifiable:
		return "This vehicle's type could not be determined"
	case ReasonMissingIdentity:
		return "This vehicle cannot be compared yet"
	default:
		return ""
	}
}

// Toggle removes ref when its id is selected, otherwise tries to append it.
// A rejected add returns s unchanged with a reason.
func Toggle(s State, ref vehicle.Reference, c Classifier) (State, Reason) {
	if i := s.indexOf(ref.ID); i >= 0 {
		items := make([]vehicle.Reference, 0, len(s.items)-1)
		items = append(items, s.items[:i]...)
		items = append(items, s.items[i+1:]...)
		return relock(items, c), ReasonNone
	}

	if s.IsFull() {
		return s, ReasonCapacity
	}
	line, ok := c.Classify(ref.Hints())
	if !ok {
		return s, ReasonUnclassifiable
	}
	if ref.ID <= 0 || !ref.HasSlug() {
		return s, ReasonMissingIdentity
	}
	if !s.IsEmpty() && line != s.locked {
		return s, ReasonDuplicateType
	}

	items := make([]vehicle.Reference, 0, len(s.items)+1)
	items = append(items, s.items...)
	items = append(items, ref)
	return State{locked: line, items: items}, ReasonNone
}

// RemoveSlug drops every item with the given slug.
func RemoveSlug(s State, slug string, c Classifier) State {
	slug = strings.TrimSpace(slug)
	items := make([]vehicle.Reference, 0, len(s.items))
	for _, it := range s.items {
		if it.Slug != slug {
			items = append(items, it)
		}
	}
	if len(items) == len(s.items) {
		return s
	}
	return relock(items, c)
}

// Sanitize keeps only the items whose id is in keep, preserving order.
// An empty result is unlocked. Otherwise the lock is resolved when valid, or
// the line of the first kept item, and items of any other line are dropped.
func Sanitize(s State, keep []int64, resolved vehicle.Line, c Classifier) State {
	keepSet := make(map[int64]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	items := make([]vehicle.Reference, 0, len(s.items))
	for _, it := range s.items {
		if _, ok := keepSet[it.ID]; ok {
			items = append(items, it)
		}
	}
	return lockTo(items, resolved, c)
}

// Reconcile applies the outcome of a comparison run to the current state.
// Dropped ids are removed, refreshed references replace stored ones by id
// (re-tagged with the resolved line), and the result is sanitized. Items not
// mentioned in either list are kept, so additions made while a comparison
// was running survive.
func Reconcile(s State, drop []int64, refreshed []vehicle.Reference, resolved vehicle.Line, c Classifier) State {
	dropSet := make(map[int64]struct{}, len(drop))
	for _, id := range drop {
		dropSet[id] = struct{}{}
	}
	fresh := make(map[int64]vehicle.Reference, len(refreshed))
	for _, r := range refreshed {
		if resolved.IsValid() {
			r.VehicleType = resolved.String()
		}
		fresh[r.ID] = r
	}

	items := make([]vehicle.Reference, 0, len(s.items))
	for _, it := range s.items {
		if _, gone := dropSet[it.ID]; gone {
			continue
		}
		if r, ok := fresh[it.ID]; ok && r.HasSlug() {
			it = r
		}
		items = append(items, it)
	}
	return lockTo(items, resolved, c)
}

func relock(items []vehicle.Reference, c Classifier) State {
	return lockTo(items, "", c)
}

func lockTo(items []vehicle.Reference, resolved vehicle.Line, c Classifier) State {
	if len(items) == 0 {
		return Empty()
	}
	locked := resolved
	if !locked.IsValid() {
		line, ok := c.Classify(items[0].Hints())
		if !ok {
			return Empty()
		}
		locked = line
	}
	kept := make([]vehicle.Reference, 0, len(items))
	for _, it := range items {
		if line, ok := c.Classify(it.Hints()); ok && line == locked {
			kept = append(kept, it)
		}
	}
	if len(kept) == 0 {
		return Empty()
	}
	return State{locked: locked, items: kept}
}
