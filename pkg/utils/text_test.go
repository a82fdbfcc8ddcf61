package utils

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		s      string
		maxLen int
		want   string
	}{
		{"hello", 10, "hello"},
		{"hello world", 5, "hello..."},
		{"hello", 0, "hello"},
		{"hello", -1, "hello"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.s, tt.maxLen); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
		}
	}
}

func TestTruncateRuneBoundary(t *testing.T) {
	// "héllo" cut inside the two-byte é must back up to the rune start.
	got := Truncate("héllo", 2)
	if got != "h..." {
		t.Errorf("Truncate on rune boundary = %q, want %q", got, "h...")
	}
}
