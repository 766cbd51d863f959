package matching

import "strings"

// LocationsCompatible reports whether two free-text locations look like the
// same place. Patients describe a hospital and volunteers describe a coverage
// area, so exact comparison would almost never succeed; mutual substring
// containment after lowercasing and trimming is the deliberate heuristic.
func LocationsCompatible(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	return strings.Contains(a, b) || strings.Contains(b, a)
}
