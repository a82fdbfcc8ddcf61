// Package orchestrator drives the scrape-classify-grade loop: it streams
// crawled documents through deduplication, classification, per-user grading,
// and a bounded retention policy, persisting results after each batch.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gator-life/gator/internal/crawler"
	"github.com/gator-life/gator/internal/dedup"
	"github.com/gator-life/gator/internal/models"
	"github.com/gator-life/gator/internal/profile"
	"github.com/gator-life/gator/internal/retention"
	"github.com/gator-life/gator/internal/storage"
	"github.com/gator-life/gator/pkg/utils"
	"go.uber.org/zap"
)

const summaryMaxLen = 300

// Classifier embeds text into a feature vector. The trained topic model
// satisfies this; tests substitute a double.
type Classifier interface {
	Classify(text string) (bool, []float64)
	ModelID() string
}

// Config holds the loop's tuning knobs. Batch size is purely a performance
// knob: the same fetch sequence produces the same dedup and classification
// outcome however it is batched.
type Config struct {
	DocsChunkSize      int
	UserDocsMaxSize    int
	DedupHorizon       time.Duration
	GradingConcurrency int
	RetryAttempts      int
	RetryBackoff       time.Duration
	// MaxDocsPerCycle bounds one cycle's intake; 0 means unbounded.
	MaxDocsPerCycle int
}

// Orchestrator composes the crawler, topic model, dedup cache, profile
// grading, and retention policy over the store. Cycles are serialized: no two
// cycles ever mutate the same user concurrently.
type Orchestrator struct {
	store      storage.Store
	classifier Classifier
	source     crawler.Source
	cfg        Config
	logger     *zap.Logger
	skipUser   func(*models.User) bool
	now        func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a logger for pipeline events.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithSkipUser sets a predicate excluding users from grading. Used by bounded
// replay mode to grade only test users.
func WithSkipUser(skip func(*models.User) bool) Option {
	return func(o *Orchestrator) { o.skipUser = skip }
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator with the given collaborators.
func New(store storage.Store, classifier Classifier, source crawler.Source, cfg Config, opts ...Option) *Orchestrator {
	if cfg.DocsChunkSize < 1 {
		cfg.DocsChunkSize = 1
	}
	if cfg.GradingConcurrency < 1 {
		cfg.GradingConcurrency = 1
	}
	o := &Orchestrator{
		store:      store,
		classifier: classifier,
		source:     source,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run cycles until ctx is cancelled. Each cycle re-reads the user list (to
// pick up new registrations) and a fresh dedup horizon. Shutdown is
// cooperative between cycles, never mid-cycle. Structural failures (store
// unreachable at cycle start) stop the loop.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.RunOnce(ctx); err != nil {
			return err
		}
	}
}

// RunOnce executes exactly one cycle. This is the bounded/replay mode entry
// point, and the unit Run repeats.
func (o *Orchestrator) RunOnce(ctx context.Context) error {
	var users []*models.User
	err := o.withRetry(ctx, "load users", func() error {
		var err error
		users, err = o.store.GetAllUsers(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("cycle start: %w", err)
	}

	horizon := o.now().Add(-o.cfg.DedupHorizon)
	cache := dedup.NewCache(horizon)
	var seen map[string]time.Time
	err = o.withRetry(ctx, "load seen urls", func() error {
		var err error
		seen, err = o.store.SeenURLs(ctx, horizon)
		return err
	})
	if err != nil {
		return fmt.Errorf("cycle start: %w", err)
	}
	cache.Warm(seen)

	stats := o.consume(ctx, users, cache)
	if o.logger != nil {
		o.logger.Info("cycle complete",
			zap.Int("fetched", stats.fetched),
			zap.Int("duplicates", stats.duplicates),
			zap.Int("classified", stats.classified),
			zap.Int("unclassifiable", stats.unclassifiable),
			zap.Int("users", len(users)),
		)
	}
	return nil
}

type cycleStats struct {
	fetched        int
	duplicates     int
	classified     int
	unclassifiable int
}

// consume drains the fetch stream: dedup in fetch order (first occurrence
// wins), classify, and hand off full batches. The stream is consumed with
// backpressure; at most one batch of documents is held in memory.
func (o *Orchestrator) consume(ctx context.Context, users []*models.User, cache *dedup.Cache) cycleStats {
	fetchCtx, cancelFetch := context.WithCancel(ctx)
	defer cancelFetch()
	stream := o.source.Fetch(fetchCtx)

	var stats cycleStats
	batch := make([]*models.Document, 0, o.cfg.DocsChunkSize)
	seenBatch := make(map[string]time.Time)

	for raw := range stream {
		stats.fetched++
		urlHash := models.URLHash(raw.URL)
		if cache.Seen(urlHash) {
			stats.duplicates++
			if o.logger != nil {
				o.logger.Debug("duplicate url dropped", zap.String("url", raw.URL))
			}
			continue
		}
		firstSeen := o.now()
		cache.Record(urlHash, firstSeen)
		seenBatch[urlHash] = firstSeen

		// Classification failure is a normal, reportable outcome: the
		// document is dropped, the pipeline continues.
		ok, vec := o.classifier.Classify(raw.HTML)
		if !ok {
			stats.unclassifiable++
			if o.logger != nil {
				o.logger.Debug("unclassifiable document dropped", zap.String("url", raw.URL))
			}
			continue
		}
		stats.classified++
		batch = append(batch, &models.Document{
			URL:     raw.URL,
			URLHash: urlHash,
			Title:   raw.Title,
			Summary: utils.Truncate(crawler.ExtractText(raw.HTML), summaryMaxLen),
			FeatureVector: models.FeatureVector{
				Values:  vec,
				ModelID: o.classifier.ModelID(),
			},
		})

		if len(batch) >= o.cfg.DocsChunkSize {
			o.flush(ctx, users, batch, seenBatch)
			batch = make([]*models.Document, 0, o.cfg.DocsChunkSize)
			seenBatch = make(map[string]time.Time)
		}
		if o.cfg.MaxDocsPerCycle > 0 && stats.classified >= o.cfg.MaxDocsPerCycle {
			cancelFetch()
			for range stream {
				// unblock the producer; remainder is dropped
			}
			break
		}
	}
	o.flush(ctx, users, batch, seenBatch)
	return stats
}

// flush persists one batch of classified documents and their seen-URL records,
// then grades the batch for every user. A store failure after retries skips
// the batch for this cycle; the run continues.
func (o *Orchestrator) flush(ctx context.Context, users []*models.User, batch []*models.Document, seenBatch map[string]time.Time) {
	if len(seenBatch) > 0 {
		if err := o.withRetry(ctx, "record seen urls", func() error {
			return o.store.RecordSeenURLs(ctx, seenBatch)
		}); err != nil && o.logger != nil {
			o.logger.Warn("seen urls not persisted", zap.Error(err))
		}
	}
	if len(batch) == 0 {
		return
	}
	if err := o.withRetry(ctx, "save documents", func() error {
		return o.store.SaveDocuments(ctx, batch)
	}); err != nil {
		if o.logger != nil {
			o.logger.Warn("document batch skipped", zap.Int("size", len(batch)), zap.Error(err))
		}
		return
	}
	o.gradeAndRetain(ctx, users, batch)
}

// gradeAndRetain grades a batch against every non-skipped user and applies the
// retention policy, across a bounded worker pool. Users are independent: one
// user's failure never affects another's outcome.
func (o *Orchestrator) gradeAndRetain(ctx context.Context, users []*models.User, batch []*models.Document) {
	sem := make(chan struct{}, o.cfg.GradingConcurrency)
	var wg sync.WaitGroup
	for _, user := range users {
		if o.skipUser != nil && o.skipUser(user) {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(u *models.User) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := o.gradeUser(ctx, u, batch); err != nil && o.logger != nil {
				o.logger.Warn("user grading skipped for cycle",
					zap.String("email", u.Email), zap.Error(err))
			}
		}(user)
	}
	wg.Wait()
}

// gradeUser grades the batch against one user's profile and merges the result
// into the user's bounded document set. The user's state is owned exclusively
// by this task for the duration of the cycle.
func (o *Orchestrator) gradeUser(ctx context.Context, user *models.User, batch []*models.Document) error {
	var state *models.ProfileState
	err := o.withRetry(ctx, "load profile", func() error {
		var err error
		state, err = o.store.GetProfile(ctx, user.ID)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		if o.logger != nil {
			o.logger.Debug("user has no profile yet", zap.String("email", user.Email))
		}
		return nil
	}
	if err != nil {
		return err
	}

	insertedAt := o.now()
	incoming := make([]*models.UserDocument, 0, len(batch))
	for _, doc := range batch {
		grade, err := profile.Grade(state, doc)
		if errors.Is(err, profile.ErrModelMismatch) {
			// Data-integrity warning: the document belongs to another model
			// generation. Skip it, never crash the cycle.
			if o.logger != nil {
				o.logger.Warn("model generation mismatch, document skipped",
					zap.String("email", user.Email),
					zap.String("url_hash", doc.URLHash),
					zap.Error(err))
			}
			continue
		}
		if err != nil {
			return err
		}
		incoming = append(incoming, &models.UserDocument{
			Document:   doc,
			Grade:      grade,
			InsertedAt: insertedAt,
		})
	}
	if len(incoming) == 0 {
		return nil
	}

	var existing []*models.UserDocument
	if err := o.withRetry(ctx, "load user documents", func() error {
		var err error
		existing, err = o.store.GetUserDocuments(ctx, user.ID)
		return err
	}); err != nil {
		return err
	}

	kept, evicted := retention.Apply(existing, incoming, o.cfg.UserDocsMaxSize)
	if err := o.withRetry(ctx, "save user documents", func() error {
		return o.store.SaveUserDocuments(ctx, user.ID, kept)
	}); err != nil {
		return err
	}
	if o.logger != nil && len(evicted) > 0 {
		o.logger.Debug("documents evicted",
			zap.String("email", user.Email), zap.Int("count", len(evicted)))
	}
	return nil
}
