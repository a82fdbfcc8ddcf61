// Package models defines core data structures for documents, users, and profiles.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// FeatureVector is a document or interest embedding in a topic model's latent space.
// Two vectors are only comparable when ModelID matches.
type FeatureVector struct {
	Values  []float64 `json:"values"`
	ModelID string    `json:"model_id"`
}

// Document represents a classified web document. Identity is URLHash: two
// documents with the same hash are the same document for dedup purposes.
type Document struct {
	URL           string        `json:"url" db:"url"`
	URLHash       string        `json:"url_hash" db:"url_hash"`
	Title         string        `json:"title" db:"title"`
	Summary       string        `json:"summary" db:"summary"`
	FeatureVector FeatureVector `json:"feature_vector"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// User owns one profile and one bounded document set.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Interests []string  `json:"interests"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserDocument is a document graded against a user's interest vector.
// Grade is a point-in-time snapshot; it is not recomputed when the profile
// later changes.
type UserDocument struct {
	Document   *Document `json:"document"`
	Grade      float64   `json:"grade" db:"grade"`
	InsertedAt time.Time `json:"inserted_at" db:"inserted_at"`
}

// ProfileState holds a user's accumulated feedback, bound to one model
// generation. The interest vector is derived, never stored redundantly.
type ProfileState struct {
	ModelID       string    `json:"model_id"`
	Positive      []float64 `json:"positive"`
	Negative      []float64 `json:"negative"`
	PositiveCount int       `json:"positive_count"`
	NegativeCount int       `json:"negative_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewProfileState returns an empty profile bound to the given model generation.
func NewProfileState(modelID string, dimensions int) *ProfileState {
	return &ProfileState{
		ModelID:  modelID,
		Positive: make([]float64, dimensions),
		Negative: make([]float64, dimensions),
	}
}

// URLHash returns the stable identity key for a URL.
// Same URL always yields the same hash.
func URLHash(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
