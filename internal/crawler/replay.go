package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// ReplaySource plays back a recorded fetch sequence from a JSON fixture.
// Used in bounded mode for deterministic replay of one cycle.
type ReplaySource struct {
	docs []RawDocument
}

// NewReplaySource loads a recorded fetch sequence: a JSON array of raw
// documents, emitted in file order (duplicates included, as recorded).
func NewReplaySource(path string) (*ReplaySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read replay file: %w", err)
	}
	var docs []RawDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse replay file: %w", err)
	}
	return &ReplaySource{docs: docs}, nil
}

// NewStaticSource wraps an in-memory document sequence. Used in tests.
func NewStaticSource(docs []RawDocument) *ReplaySource {
	return &ReplaySource{docs: docs}
}

// Fetch streams the recorded documents in order.
func (s *ReplaySource) Fetch(ctx context.Context) <-chan RawDocument {
	out := make(chan RawDocument)
	go func() {
		defer close(out)
		for _, doc := range s.docs {
			select {
			case out <- doc:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
