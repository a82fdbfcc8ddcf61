// Package integration tests the orchestration loop against real SQLite
// storage under concurrent grading load.
package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gator-life/gator/internal/crawler"
	"github.com/gator-life/gator/internal/models"
	"github.com/gator-life/gator/internal/orchestrator"
	"github.com/gator-life/gator/internal/profile"
	"github.com/gator-life/gator/internal/storage"
)

const integrationModelID = "integration-model"

type keywordClassifier struct{}

func (keywordClassifier) ModelID() string { return integrationModelID }

func (keywordClassifier) Classify(text string) (bool, []float64) {
	switch {
	case strings.Contains(text, "alpha"):
		return true, []float64{1, 0}
	case strings.Contains(text, "beta"):
		return true, []float64{0, 1}
	default:
		return false, nil
	}
}

func TestIntegration_ConcurrentGradingOverSQLite(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "gator.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	const numUsers = 12
	for i := 0; i < numUsers; i++ {
		id := fmt.Sprintf("user-%02d", i)
		if err := store.SaveUser(ctx, &models.User{ID: id, Email: id + "@example.com"}); err != nil {
			t.Fatal(err)
		}
		state := models.NewProfileState(integrationModelID, 2)
		// Alternate interest direction so both topics are exercised.
		interest := []float64{1, 0}
		if i%2 == 1 {
			interest = []float64{0, 1}
		}
		state, err := profile.RecordFeedback(state,
			models.FeatureVector{Values: interest, ModelID: integrationModelID}, profile.Positive)
		if err != nil {
			t.Fatal(err)
		}
		if err := store.SaveProfile(ctx, id, state); err != nil {
			t.Fatal(err)
		}
	}

	docs := make([]crawler.RawDocument, 0, 40)
	for i := 0; i < 20; i++ {
		docs = append(docs,
			crawler.RawDocument{
				URL:  fmt.Sprintf("https://example.com/alpha-%d", i),
				HTML: "<html><body>alpha content</body></html>",
			},
			crawler.RawDocument{
				URL:  fmt.Sprintf("https://example.com/beta-%d", i),
				HTML: "<html><body>beta content</body></html>",
			},
		)
	}

	o := orchestrator.New(store, keywordClassifier{}, crawler.NewStaticSource(docs), orchestrator.Config{
		DocsChunkSize:      7,
		UserDocsMaxSize:    5,
		DedupHorizon:       24 * time.Hour,
		GradingConcurrency: 6,
		RetryAttempts:      3,
		RetryBackoff:       5 * time.Millisecond,
	})
	if err := o.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	count, err := store.CountDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 40 {
		t.Errorf("stored %d documents, want 40", count)
	}

	// Every user ends with a full, correctly-oriented document set.
	for i := 0; i < numUsers; i++ {
		id := fmt.Sprintf("user-%02d", i)
		kept, err := store.GetUserDocuments(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if len(kept) != 5 {
			t.Errorf("%s kept %d documents, want 5", id, len(kept))
			continue
		}
		wantPrefix := "https://example.com/alpha-"
		if i%2 == 1 {
			wantPrefix = "https://example.com/beta-"
		}
		for _, ud := range kept {
			if !strings.HasPrefix(ud.Document.URL, wantPrefix) {
				t.Errorf("%s kept %s against interest", id, ud.Document.URL)
			}
		}
	}
}
