package dedup

import (
	"testing"
	"time"
)

func TestSeenAfterRecord(t *testing.T) {
	horizon := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache(horizon)

	if c.Seen("h1") {
		t.Error("empty cache must not report seen")
	}
	c.Record("h1", horizon.Add(time.Hour))
	if !c.Seen("h1") {
		t.Error("recorded hash must be seen")
	}
	if c.Seen("h2") {
		t.Error("unrecorded hash must not be seen")
	}
}

func TestFirstOccurrenceWins(t *testing.T) {
	horizon := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache(horizon)

	c.Record("h1", horizon.Add(time.Hour))
	c.Record("h1", horizon.Add(48*time.Hour))
	if !c.Seen("h1") {
		t.Error("hash recorded twice must still be seen")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestStaleEntriesIgnored(t *testing.T) {
	horizon := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	c := NewCache(horizon)

	c.Record("old", horizon.Add(-time.Hour))
	if c.Seen("old") {
		t.Error("entry before horizon must not count as seen")
	}
}

func TestWarmFiltersByHorizon(t *testing.T) {
	horizon := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	c := NewCache(horizon)

	c.Warm(map[string]time.Time{
		"fresh": horizon.Add(time.Hour),
		"stale": horizon.Add(-time.Hour),
	})
	if !c.Seen("fresh") {
		t.Error("fresh warm entry must be seen")
	}
	if c.Seen("stale") {
		t.Error("stale warm entry must not be seen")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1 (stale entry not loaded)", c.Len())
	}
}

func TestCompact(t *testing.T) {
	horizon := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	c := NewCache(horizon)

	c.Record("old", horizon.Add(-time.Minute))
	c.Record("new", horizon.Add(time.Minute))
	if removed := c.Compact(); removed != 1 {
		t.Errorf("Compact removed %d, want 1", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len after compact = %d, want 1", c.Len())
	}
	if !c.Seen("new") {
		t.Error("fresh entry must survive compact")
	}
}
