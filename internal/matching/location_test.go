package matching

import "testing"

func TestLocationsCompatible(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "General Hospital", "General Hospital", true},
		{"case insensitive", "general hospital", "GENERAL HOSPITAL", true},
		{"trims whitespace", "  General Hospital ", "general hospital", true},
		{"a contains b", "General Hospital, North Wing", "General Hospital", true},
		{"b contains a", "General", "General Hospital", true},
		{"unrelated", "General Hospital", "City Clinic", false},
		{"partial word counts as match", "Gen", "General Hospital", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LocationsCompatible(tt.a, tt.b); got != tt.want {
				t.Fatalf("LocationsCompatible(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
