// Package retention bounds a user's kept document set to a fixed capacity by grade.
package retention

import (
	"sort"

	"github.com/gator-life/gator/internal/models"
)

// Apply merges existing and incoming user documents, keeps the top maxSize by
// grade, and returns the remainder as evicted. Ties on grade are broken by
// most-recent insertion first, then by URL hash, so the final set is the same
// regardless of input order. A document appearing in both slices keeps the
// incoming entry. maxSize < 1 keeps nothing.
func Apply(existing, incoming []*models.UserDocument, maxSize int) (kept, evicted []*models.UserDocument) {
	byHash := make(map[string]*models.UserDocument, len(existing)+len(incoming))
	for _, ud := range existing {
		byHash[ud.Document.URLHash] = ud
	}
	for _, ud := range incoming {
		byHash[ud.Document.URLHash] = ud
	}

	merged := make([]*models.UserDocument, 0, len(byHash))
	for _, ud := range byHash {
		merged = append(merged, ud)
	}
	sort.Slice(merged, func(a, b int) bool {
		da, db := merged[a], merged[b]
		if da.Grade != db.Grade {
			return da.Grade > db.Grade
		}
		if !da.InsertedAt.Equal(db.InsertedAt) {
			return da.InsertedAt.After(db.InsertedAt)
		}
		return da.Document.URLHash < db.Document.URLHash
	})

	if maxSize < 0 {
		maxSize = 0
	}
	if maxSize > len(merged) {
		maxSize = len(merged)
	}
	return merged[:maxSize], merged[maxSize:]
}
