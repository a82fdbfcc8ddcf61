package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gator-life/gator/internal/models"
)

// ErrNotFound is returned when a keyed lookup matches nothing.
var ErrNotFound = errors.New("storage: not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		interests TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS documents (
		url_hash TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		title TEXT,
		summary TEXT,
		vector TEXT NOT NULL,
		model_id TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS user_documents (
		user_id TEXT NOT NULL,
		url_hash TEXT NOT NULL,
		grade REAL NOT NULL,
		inserted_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, url_hash),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_user_documents_grade ON user_documents(user_id, grade);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		model_id TEXT NOT NULL,
		positive TEXT NOT NULL,
		negative TEXT NOT NULL,
		positive_count INTEGER NOT NULL,
		negative_count INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS seen_urls (
		url_hash TEXT PRIMARY KEY,
		first_seen TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_seen_urls_first_seen ON seen_urls(first_seen);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveUser inserts or updates a user.
func (s *SQLiteStore) SaveUser(ctx context.Context, user *models.User) error {
	interestsJSON, err := json.Marshal(user.Interests)
	if err != nil {
		return fmt.Errorf("failed to marshal interests: %w", err)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, interests, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET email = excluded.email, interests = excluded.interests`,
		user.ID, user.Email, string(interestsJSON), user.CreatedAt,
	)
	return err
}

// GetUserByEmail returns a user by email, ErrNotFound when absent.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, interests, created_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// GetAllUsers returns every registered user.
func (s *SQLiteStore) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, interests, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var interestsJSON string
	err := row.Scan(&user.ID, &user.Email, &interestsJSON, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if interestsJSON != "" {
		if err := json.Unmarshal([]byte(interestsJSON), &user.Interests); err != nil {
			return nil, fmt.Errorf("failed to unmarshal interests: %w", err)
		}
	}
	return &user, nil
}

// SaveDocuments upserts a batch of documents in one transaction.
func (s *SQLiteStore) SaveDocuments(ctx context.Context, docs []*models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (url_hash, url, title, summary, vector, model_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url_hash) DO UPDATE SET
		   title = excluded.title, summary = excluded.summary,
		   vector = excluded.vector, model_id = excluded.model_id`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, doc := range docs {
		vectorJSON, err := json.Marshal(doc.FeatureVector.Values)
		if err != nil {
			return fmt.Errorf("failed to marshal vector: %w", err)
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
		if _, err := stmt.ExecContext(ctx,
			doc.URLHash, doc.URL, doc.Title, doc.Summary,
			string(vectorJSON), doc.FeatureVector.ModelID, doc.CreatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetDocument returns a document by URL hash, ErrNotFound when absent.
func (s *SQLiteStore) GetDocument(ctx context.Context, urlHash string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT url_hash, url, title, summary, vector, model_id, created_at
		 FROM documents WHERE url_hash = ?`, urlHash)
	return scanDocument(row)
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var vectorJSON string
	err := row.Scan(&doc.URLHash, &doc.URL, &doc.Title, &doc.Summary,
		&vectorJSON, &doc.FeatureVector.ModelID, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(vectorJSON), &doc.FeatureVector.Values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vector: %w", err)
	}
	return &doc, nil
}

// GetUserDocuments returns a user's document set ordered by grade descending,
// recency first on ties.
func (s *SQLiteStore) GetUserDocuments(ctx context.Context, userID string) ([]*models.UserDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.url_hash, d.url, d.title, d.summary, d.vector, d.model_id, d.created_at,
		        ud.grade, ud.inserted_at
		 FROM user_documents ud
		 JOIN documents d ON d.url_hash = ud.url_hash
		 WHERE ud.user_id = ?
		 ORDER BY ud.grade DESC, ud.inserted_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userDocs []*models.UserDocument
	for rows.Next() {
		var doc models.Document
		var ud models.UserDocument
		var vectorJSON string
		if err := rows.Scan(&doc.URLHash, &doc.URL, &doc.Title, &doc.Summary,
			&vectorJSON, &doc.FeatureVector.ModelID, &doc.CreatedAt,
			&ud.Grade, &ud.InsertedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(vectorJSON), &doc.FeatureVector.Values); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vector: %w", err)
		}
		ud.Document = &doc
		userDocs = append(userDocs, &ud)
	}
	return userDocs, rows.Err()
}

// SaveUserDocuments replaces the user's document set with docs in one
// transaction. Rows for evicted documents disappear with the replace; garbage
// collection of fully unreferenced documents is left to the store operator.
func (s *SQLiteStore) SaveUserDocuments(ctx context.Context, userID string, docs []*models.UserDocument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_documents WHERE user_id = ?`, userID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO user_documents (user_id, url_hash, grade, inserted_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ud := range docs {
		if _, err := stmt.ExecContext(ctx, userID, ud.Document.URLHash, ud.Grade, ud.InsertedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetProfile returns a user's profile state, ErrNotFound when absent.
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*models.ProfileState, error) {
	var state models.ProfileState
	var positiveJSON, negativeJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT model_id, positive, negative, positive_count, negative_count, updated_at
		 FROM profiles WHERE user_id = ?`, userID,
	).Scan(&state.ModelID, &positiveJSON, &negativeJSON,
		&state.PositiveCount, &state.NegativeCount, &state.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(positiveJSON), &state.Positive); err != nil {
		return nil, fmt.Errorf("failed to unmarshal positive accumulator: %w", err)
	}
	if err := json.Unmarshal([]byte(negativeJSON), &state.Negative); err != nil {
		return nil, fmt.Errorf("failed to unmarshal negative accumulator: %w", err)
	}
	return &state, nil
}

// SaveProfile upserts a user's profile state.
func (s *SQLiteStore) SaveProfile(ctx context.Context, userID string, state *models.ProfileState) error {
	positiveJSON, err := json.Marshal(state.Positive)
	if err != nil {
		return fmt.Errorf("failed to marshal positive accumulator: %w", err)
	}
	negativeJSON, err := json.Marshal(state.Negative)
	if err != nil {
		return fmt.Errorf("failed to marshal negative accumulator: %w", err)
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, model_id, positive, negative, positive_count, negative_count, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   model_id = excluded.model_id, positive = excluded.positive, negative = excluded.negative,
		   positive_count = excluded.positive_count, negative_count = excluded.negative_count,
		   updated_at = excluded.updated_at`,
		userID, state.ModelID, string(positiveJSON), string(negativeJSON),
		state.PositiveCount, state.NegativeCount, state.UpdatedAt,
	)
	return err
}

// SeenURLs returns URL hashes first seen at or after since.
func (s *SQLiteStore) SeenURLs(ctx context.Context, since time.Time) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url_hash, first_seen FROM seen_urls WHERE first_seen >= ?`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]time.Time)
	for rows.Next() {
		var urlHash string
		var firstSeen time.Time
		if err := rows.Scan(&urlHash, &firstSeen); err != nil {
			return nil, err
		}
		seen[urlHash] = firstSeen
	}
	return seen, rows.Err()
}

// RecordSeenURLs persists first-seen times in one transaction. Existing
// entries keep their original first-seen time.
func (s *SQLiteStore) RecordSeenURLs(ctx context.Context, seen map[string]time.Time) error {
	if len(seen) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO seen_urls (url_hash, first_seen) VALUES (?, ?)
		 ON CONFLICT(url_hash) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for urlHash, firstSeen := range seen {
		if _, err := stmt.ExecContext(ctx, urlHash, firstSeen); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// CountUsers returns the total number of users.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
