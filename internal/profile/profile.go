// Package profile maintains per-user interest profiles learned from
// positive/negative document feedback.
package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/gator-life/gator/internal/models"
	"github.com/gator-life/gator/pkg/utils"
)

// ErrModelMismatch is returned when a feature vector's model generation
// differs from the profile's bound generation. Callers skip the document;
// cross-generation vectors are never silently compared.
var ErrModelMismatch = errors.New("profile: feature vector model does not match profile model")

// Signal is the polarity of a feedback event.
type Signal int

const (
	// Positive marks a document the user engaged with.
	Positive Signal = iota
	// Negative marks a document the user dismissed.
	Negative
)

// RecordFeedback folds a feature vector into the matching accumulator and
// returns the updated state. The input state is not mutated, so concurrent
// per-user processing can hold the previous state safely.
func RecordFeedback(s *models.ProfileState, fv models.FeatureVector, sig Signal) (*models.ProfileState, error) {
	if fv.ModelID != s.ModelID {
		return nil, fmt.Errorf("%w: vector %q, profile %q", ErrModelMismatch, fv.ModelID, s.ModelID)
	}
	if len(fv.Values) != len(s.Positive) {
		return nil, fmt.Errorf("profile: vector has %d dimensions, profile expects %d", len(fv.Values), len(s.Positive))
	}
	next := &models.ProfileState{
		ModelID:       s.ModelID,
		Positive:      append([]float64(nil), s.Positive...),
		Negative:      append([]float64(nil), s.Negative...),
		PositiveCount: s.PositiveCount,
		NegativeCount: s.NegativeCount,
		UpdatedAt:     time.Now().UTC(),
	}
	switch sig {
	case Positive:
		for i, v := range fv.Values {
			next.Positive[i] += v
		}
		next.PositiveCount++
	case Negative:
		for i, v := range fv.Values {
			next.Negative[i] += v
		}
		next.NegativeCount++
	default:
		return nil, fmt.Errorf("profile: unknown feedback signal %d", sig)
	}
	return next, nil
}

// CurrentInterest derives the interest vector from the accumulated feedback:
// the normalized difference of positive and negative means, the positive mean
// alone when only positive feedback exists, and the zero vector before any
// feedback. Deterministic and side-effect free.
func CurrentInterest(s *models.ProfileState) models.FeatureVector {
	values := make([]float64, len(s.Positive))
	switch {
	case s.PositiveCount > 0 && s.NegativeCount > 0:
		for i := range values {
			values[i] = s.Positive[i]/float64(s.PositiveCount) - s.Negative[i]/float64(s.NegativeCount)
		}
		values = utils.NormalizeL2(values)
	case s.PositiveCount > 0:
		for i := range values {
			values[i] = s.Positive[i] / float64(s.PositiveCount)
		}
		values = utils.NormalizeL2(values)
	}
	return models.FeatureVector{Values: values, ModelID: s.ModelID}
}

// Grade scores a document against the profile's current interest vector with
// cosine similarity, in [-1, 1]. Returns ErrModelMismatch when the document
// was classified by a different model generation.
func Grade(s *models.ProfileState, doc *models.Document) (float64, error) {
	if doc.FeatureVector.ModelID != s.ModelID {
		return 0, fmt.Errorf("%w: document %q vector %q, profile %q",
			ErrModelMismatch, doc.URLHash, doc.FeatureVector.ModelID, s.ModelID)
	}
	interest := CurrentInterest(s)
	return utils.Cosine(interest.Values, doc.FeatureVector.Values), nil
}
