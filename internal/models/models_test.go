package models

import "testing"

func TestURLHashStable(t *testing.T) {
	if URLHash("https://example.com/a") != URLHash("https://example.com/a") {
		t.Error("same url must produce the same hash")
	}
	if URLHash("https://example.com/a") == URLHash("https://example.com/b") {
		t.Error("different urls must produce different hashes")
	}
	if len(URLHash("x")) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(URLHash("x")))
	}
}

func TestNewProfileState(t *testing.T) {
	s := NewProfileState("model-1", 3)
	if s.ModelID != "model-1" {
		t.Errorf("ModelID = %q", s.ModelID)
	}
	if len(s.Positive) != 3 || len(s.Negative) != 3 {
		t.Errorf("accumulator lengths = %d, %d, want 3", len(s.Positive), len(s.Negative))
	}
	if s.PositiveCount != 0 || s.NegativeCount != 0 {
		t.Error("new profile must have zero counts")
	}
}
