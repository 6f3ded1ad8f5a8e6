// Package convert provides type conversion utilities.
package convert

import (
	"strconv"
	"strings"
)

// ParseNumeric parses a spreadsheet cell as a float64. The second return
// value reports presence: empty or non-parseable cells are "missing" rather
// than zero, because downstream aggregation treats the two differently.
func ParseNumeric(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormatNumeric renders a float the way spreadsheet cells carry numbers:
// no exponent for typical magnitudes and no trailing zeros.
func FormatNumeric(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
