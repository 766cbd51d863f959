package matching

import (
	"strconv"
	"strings"
)

// DefaultDurationMinutes is the assumed length of a request with no explicit
// end time.
const DefaultDurationMinutes = 60

// ParseClock converts an "HH:MM" string to minutes since midnight. It does
// not range-check the fields, so "25:99" parses to a large but well-defined
// offset; callers must treat ok=false (malformed or non-numeric input) as an
// unusable bound.
func ParseClock(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}
	return hours*60 + minutes, true
}

// ContainsInterval reports whether [innerStart, innerEnd] lies entirely
// within [outerStart, outerEnd]. This is full containment, not overlap:
// escort coverage must span the whole requested appointment.
func ContainsInterval(outerStart, outerEnd, innerStart, innerEnd int) bool {
	return innerStart >= outerStart && innerEnd <= outerEnd
}
