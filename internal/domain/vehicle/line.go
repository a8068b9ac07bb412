// Package vehicle holds the catalog shapes shared by the comparison pipeline:
// product lines, selection references and the detail record returned by the catalog.
package vehicle

import "strings"

// Line is a product line. The zero value means unresolved.
type Line string

// Product lines.
const (
	LineBike Line = "Bike"
	LineCar  Line = "Car"
)

// Lines lists every product line in display order.
var Lines = []Line{LineBike, LineCar}

// ParseLine resolves a product line from a free-form tag ("Bike", " car ", "BIKE").
func ParseLine(s string) (Line, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bike":
		return LineBike, true
	case "car":
		return LineCar, true
	default:
		return "", false
	}
}

// IsValid reports whether l is one of the known product lines.
func (l Line) IsValid() bool { return l == LineBike || l == LineCar }

// Other returns the opposite product line.
func (l Line) Other() Line {
	switch l {
	case LineBike:
		return LineCar
	case LineCar:
		return LineBike
	default:
		return ""
	}
}

func (l Line) String() string { return string(l) }
