package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/artpar/workbench/internal/core"
	"github.com/artpar/workbench/internal/storage"
	_ "modernc.org/sqlite"
)

// CollectionStore keeps one JSON document per user in SQLite.
type CollectionStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
	now    func() time.Time
}

// New opens (or creates) the database at dbPath.
func New(dbPath string) (*CollectionStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open collections database: %w", err)
	}

	store := &CollectionStore{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize collections database: %w", err)
	}

	return store, nil
}

// NewWithDB creates a store using an existing database connection.
func NewWithDB(db *sql.DB) (*CollectionStore, error) {
	store := &CollectionStore{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize collections tables: %w", err)
	}
	return store, nil
}

// NewInMemory creates a new in-memory SQLite store (useful for testing).
func NewInMemory() (*CollectionStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every pooled connection would get its own empty database.
	db.SetMaxOpenConns(1)

	store := &CollectionStore{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *CollectionStore) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS collections (
			user_id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// LoadCollections returns the tree of userID, empty when none was saved.
func (s *CollectionStore) LoadCollections(ctx context.Context, userID string) ([]*core.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrStoreClosed
	}

	var document string
	err := s.db.QueryRowContext(ctx,
		"SELECT document FROM collections WHERE user_id = ?",
		userID,
	).Scan(&document)

	if errors.Is(err, sql.ErrNoRows) {
		return []*core.Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}

	return storage.UnmarshalJSON([]byte(document))
}

// SaveCollections replaces the tree of userID.
func (s *CollectionStore) SaveCollections(ctx context.Context, userID string, collections []*core.Collection) error {
	document, err := storage.MarshalJSON(collections)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStoreClosed
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO collections (user_id, document, updated_at) VALUES (?, ?, ?)",
		userID, string(document), s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save collections: %w", err)
	}

	return nil
}

// UpdatedAt returns when the tree of userID was last saved.
func (s *CollectionStore) UpdatedAt(ctx context.Context, userID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return time.Time{}, storage.ErrStoreClosed
	}

	var updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT updated_at FROM collections WHERE user_id = ?",
		userID,
	).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, core.NewNotFoundError("user", userID)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read collections timestamp: %w", err)
	}
	return time.Unix(updated, 0), nil
}

// Delete removes the tree of userID.
func (s *CollectionStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStoreClosed
	}

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM collections WHERE user_id = ?",
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete collections: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return core.NewNotFoundError("user", userID)
	}
	return nil
}

// Close closes the database connection.
func (s *CollectionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
