package row

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Dash renders an unknown value.
const Dash = "—"

// CurrencyGlyph prefixes money values.
const CurrencyGlyph = "₹"

// Formatting is pinned to one locale so output does not depend on the host.
var printer = message.NewPrinter(language.English)

func known(n float64) bool {
	return n > 0 && !math.IsInf(n, 0) && !math.IsNaN(n)
}

// Money renders a rounded, thousands-grouped amount with the currency glyph.
// Amounts that round to zero are unknown.
func Money(n float64) string {
	r := math.Round(n)
	if !known(r) {
		return Dash
	}
	return CurrencyGlyph + " " + grouped(r)
}

// Int renders a rounded, thousands-grouped integer followed by unit.
func Int(n float64, unit string) string {
	r := math.Round(n)
	if !known(r) {
		return Dash
	}
	return grouped(r) + " " + unit
}

// OneDecimal renders n rounded to one decimal place (trailing ".0" dropped) followed by unit.
func OneDecimal(n float64, unit string) string {
	r := math.Round(n*10) / 10
	if math.IsInf(r, 0) && !math.IsInf(n, 0) {
		r = n
	}
	if !known(r) {
		return Dash
	}
	return strconv.FormatFloat(r, 'f', -1, 64) + " " + unit
}

// Text renders a trimmed string, or a dash when blank.
func Text(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return Dash
	}
	return s
}

// grouped formats an already rounded value, saturating at the int64 range.
func grouped(r float64) string {
	v := int64(math.MaxInt64)
	if r < math.MaxInt64 {
		v = int64(r)
	}
	return printer.Sprintf("%d", v)
}
