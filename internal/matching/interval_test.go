package matching

import "testing"

func TestParseClock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
		ok    bool
	}{
		{"midnight", "00:00", 0, true},
		{"morning", "09:30", 570, true},
		{"end of day", "23:59", 1439, true},
		{"no range check", "25:99", 1599, true},
		{"surrounding spaces", " 09 : 30 ", 570, true},
		{"non-numeric hours", "ab:30", 0, false},
		{"non-numeric minutes", "09:cd", 0, false},
		{"missing colon", "0930", 0, false},
		{"too many fields", "09:30:00", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseClock(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseClock(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("ParseClock(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestContainsInterval(t *testing.T) {
	tests := []struct {
		name                   string
		outerStart, outerEnd   int
		innerStart, innerEnd   int
		want                   bool
	}{
		{"fully inside", 540, 720, 570, 630, true},
		{"exact fit", 540, 720, 540, 720, true},
		{"shares start", 540, 720, 540, 600, true},
		{"shares end", 540, 720, 660, 720, true},
		{"starts before window", 540, 720, 530, 600, false},
		{"ends after window", 540, 720, 600, 730, false},
		{"overlap is not containment", 540, 720, 700, 780, false},
		{"disjoint", 540, 720, 800, 860, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContainsInterval(tt.outerStart, tt.outerEnd, tt.innerStart, tt.innerEnd)
			if got != tt.want {
				t.Fatalf("ContainsInterval(%d,%d,%d,%d) = %v, want %v",
					tt.outerStart, tt.outerEnd, tt.innerStart, tt.innerEnd, got, tt.want)
			}
		})
	}
}
