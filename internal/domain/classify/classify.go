// Package classify resolves the product line of a catalog row from its
// explicit vehicle type or, for older records, from its free-text category.
package classify

import (
	"fmt"
	"strings"

	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// Tier names the rule that resolved a classification.
type Tier int

// Resolution tiers, in precedence order for Classify.
const (
	TierNone Tier = iota
	TierExplicit
	TierVocabulary
	TierHeuristic
)

func (t Tier) String() string {
	switch t {
	case TierExplicit:
		return "explicit"
	case TierVocabulary:
		return "vocabulary"
	case TierHeuristic:
		return "heuristic"
	default:
		return "none"
	}
}

// Default vocabularies. Entries are matched after trim + lowercase.
var (
	DefaultCarCategories = []string{
		"suv", "hatchback", "sedan", "coupe", "convertible", "wagon",
		"muv", "mpv", "crossover", "pickup", "truck", "van", "ev car",
	}
	DefaultBikeCategories = []string{
		"naked", "classic", "roadster", "cruiser", "sports", "sport",
		"adventure", "scooter", "commuter", "tourer", "cafe racer",
		"scrambler", "off-road", "off road", "ev bike",
	}
)

// substring heuristics, checked in order after the vocabularies miss.
var heuristics = []struct {
	needle string
	line   vehicle.Line
}{
	{"suv", vehicle.LineCar},
	{"hatch", vehicle.LineCar},
	{"sedan", vehicle.LineCar},
	{"scooter", vehicle.LineBike},
	{"cruiser", vehicle.LineBike},
	{"bike", vehicle.LineBike},
}

// Classifier maps hints to a product line.
type Classifier struct {
	vocab map[string]vehicle.Line
}

// New builds a classifier from two category vocabularies.
// The vocabularies must be disjoint; an overlap is a data-integrity bug.
func New(car, bike []string) (*Classifier, error) {
	vocab := make(map[string]vehicle.Line, len(car)+len(bike))
	for _, c := range car {
		vocab[normalize(c)] = vehicle.LineCar
	}
	for _, b := range bike {
		key := normalize(b)
		if vocab[key] == vehicle.LineCar {
			return nil, fmt.Errorf("category %q is in both car and bike vocabularies", key)
		}
		vocab[key] = vehicle.LineBike
	}
	return &Classifier{vocab: vocab}, nil
}

// MustNew is New that panics on overlapping vocabularies.
func MustNew(car, bike []string) *Classifier {
	c, err := New(car, bike)
	if err != nil {
		panic(err)
	}
	return c
}

var std = MustNew(DefaultCarCategories, DefaultBikeCategories)

// Default returns the classifier built from the default vocabularies.
func Default() *Classifier { return std }

// Classify resolves a line: explicit tag, then category vocabulary, then
// substring heuristics. Used for rows the user picks from a list.
func (c *Classifier) Classify(h vehicle.Hints) (vehicle.Line, bool) {
	line, tier := c.Explain(h)
	return line, tier != TierNone
}

// Explain is Classify that also reports which tier matched.
func (c *Classifier) Explain(h vehicle.Hints) (vehicle.Line, Tier) {
	if line, ok := vehicle.ParseLine(h.VehicleType); ok {
		return line, TierExplicit
	}
	return c.fromCategory(h.Category)
}

// ClassifyDetail resolves the line of a fetched detail record. The category is
// trusted over a self-reported type; the explicit tag only fills in when the
// category says nothing.
func (c *Classifier) ClassifyDetail(h vehicle.Hints) (vehicle.Line, bool) {
	if line, tier := c.fromCategory(h.Category); tier != TierNone {
		return line, true
	}
	return vehicle.ParseLine(h.VehicleType)
}

// Category resolves a line from a category string alone.
func (c *Classifier) Category(category string) (vehicle.Line, bool) {
	line, tier := c.fromCategory(category)
	return line, tier != TierNone
}

func (c *Classifier) fromCategory(category string) (vehicle.Line, Tier) {
	cat := normalize(category)
	if cat == "" {
		return "", TierNone
	}
	if line, ok := c.vocab[cat]; ok {
		return line, TierVocabulary
	}
	for _, h := range heuristics {
		if strings.Contains(cat, h.needle) {
			return h.line, TierHeuristic
		}
	}
	return "", TierNone
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Classify resolves a line with the default classifier.
func Classify(h vehicle.Hints) (vehicle.Line, bool) { return std.Classify(h) }

// ClassifyDetail resolves a detail record's line with the default classifier.
func ClassifyDetail(h vehicle.Hints) (vehicle.Line, bool) { return std.ClassifyDetail(h) }
