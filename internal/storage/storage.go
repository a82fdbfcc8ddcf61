// Package storage defines the persistence interface for documents, users,
// profiles, and seen URLs.
package storage

import (
	"context"
	"time"

	"github.com/gator-life/gator/internal/models"
)

// Store defines the persistence operations used by the pipeline. All
// operations are keyed by stable identifiers (url_hash, user id); the vector
// storage layout stays internal to the implementation.
type Store interface {
	// User operations
	SaveUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)

	// Document operations
	SaveDocuments(ctx context.Context, docs []*models.Document) error
	GetDocument(ctx context.Context, urlHash string) (*models.Document, error)

	// Per-user ranked document set
	GetUserDocuments(ctx context.Context, userID string) ([]*models.UserDocument, error)
	SaveUserDocuments(ctx context.Context, userID string, docs []*models.UserDocument) error

	// Profile operations
	GetProfile(ctx context.Context, userID string) (*models.ProfileState, error)
	SaveProfile(ctx context.Context, userID string, state *models.ProfileState) error

	// Seen-URL operations for the dedup warm start
	SeenURLs(ctx context.Context, since time.Time) (map[string]time.Time, error)
	RecordSeenURLs(ctx context.Context, seen map[string]time.Time) error

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountUsers(ctx context.Context) (int64, error)

	Close() error
}
