// Package sqlite implements the document Store over a local SQLite database.
// Documents are rows in a single generic table with their fields stored as
// JSON and queried through json_extract, so the same filter and order-by
// semantics apply to every collection.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// dbFileName is the database file created inside Config.DataDir.
const dbFileName = "dinner.db"

// Store implements types.Store using SQLite as the document engine.
type Store struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB

	watcherMu sync.Mutex
	watchers  map[int]*subscription
	nextID    int
}

// NewStore creates a new SQLite store instance. The store is not attached;
// call Attach with a Config to initialize.
func NewStore() *Store {
	return &Store{watchers: make(map[int]*subscription)}
}

// Attach opens the database inside config.DataDir, creating the directory
// and schema if needed. Returns ErrAlreadyAttached if already attached.
func (s *Store) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, dbFileName))
	if err != nil {
		return err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return err
	}

	s.db = db
	s.config = config
	s.attached = true
	return nil
}

// Detach cancels open subscriptions and closes the database. Idempotent.
// After Detach, all operations return ErrStoreDetached.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil // idempotent
	}

	s.closeAllSubscriptions()

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return err
		}
		s.db = nil
	}
	s.attached = false
	return nil
}

// Create inserts a new document with a generated id and returns the id.
func (s *Store) Create(ctx context.Context, collection string, fields types.Fields) (string, error) {
	if err := s.checkCollection(collection); err != nil {
		return "", err
	}

	id := generateID()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshaling fields: %w", err)
	}

	s.mu.Lock()
	if !s.attached {
		s.mu.Unlock()
		return "", types.ErrStoreDetached
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO documents (collection, doc_id, fields, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		collection, id, string(payload), now, now)
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("inserting document: %w", err)
	}

	s.notify(collection)
	return id, nil
}

// Update merges fields into an existing document.
// Returns ErrNotFound if the id is absent.
func (s *Store) Update(ctx context.Context, collection, id string, fields types.Fields) error {
	if err := s.checkCollection(collection); err != nil {
		return err
	}
	if id == "" {
		return types.ErrInvalidID
	}

	s.mu.Lock()
	if !s.attached {
		s.mu.Unlock()
		return types.ErrStoreDetached
	}
	err := mergeDocument(ctx, s.db, collection, id, fields)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify(collection)
	return nil
}

// Delete removes a document by id. Returns ErrNotFound if the id is absent.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.checkCollection(collection); err != nil {
		return err
	}
	if id == "" {
		return types.ErrInvalidID
	}

	s.mu.Lock()
	if !s.attached {
		s.mu.Unlock()
		return types.ErrStoreDetached
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND doc_id = ?", collection, id)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}

	s.notify(collection)
	return nil
}

// Get retrieves a document by id. Returns ErrNotFound if the id is absent.
func (s *Store) Get(ctx context.Context, collection, id string) (types.Document, error) {
	if err := s.checkCollection(collection); err != nil {
		return types.Document{}, err
	}
	if id == "" {
		return types.Document{}, types.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return types.Document{}, types.ErrStoreDetached
	}

	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT fields FROM documents WHERE collection = ? AND doc_id = ?", collection, id).
		Scan(&payload)
	if err == sql.ErrNoRows {
		return types.Document{}, types.ErrNotFound
	}
	if err != nil {
		return types.Document{}, fmt.Errorf("scanning document: %w", err)
	}
	return decodeDocument(id, payload)
}

// Query returns documents matching q in q.OrderBy order.
func (s *Store) Query(ctx context.Context, collection string, q types.Query) ([]types.Document, error) {
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	return s.runQuery(ctx, collection, q)
}

// Batch returns an empty write batch bound to this store.
func (s *Store) Batch() types.Batch {
	return &batch{store: s}
}

// checkCollection validates the collection name.
func (s *Store) checkCollection(collection string) error {
	if !types.IsKnownCollection(collection) {
		return types.ErrCollectionNotFound
	}
	return nil
}

// mergeDocument applies a partial field update in read-modify-write style.
// The caller must hold the write lock (or run inside a transaction).
func mergeDocument(ctx context.Context, db queryExecer, collection, id string, fields types.Fields) error {
	var payload string
	err := db.QueryRowContext(ctx,
		"SELECT fields FROM documents WHERE collection = ? AND doc_id = ?", collection, id).
		Scan(&payload)
	if err == sql.ErrNoRows {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading document for update: %w", err)
	}

	var existing types.Fields
	if err := json.Unmarshal([]byte(payload), &existing); err != nil {
		return fmt.Errorf("parsing document fields: %w", err)
	}
	for k, v := range fields {
		existing[k] = v
	}

	merged, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("marshaling merged fields: %w", err)
	}
	_, err = db.ExecContext(ctx,
		"UPDATE documents SET fields = ?, updated_at = ? WHERE collection = ? AND doc_id = ?",
		string(merged), time.Now().UTC().Format(time.RFC3339Nano), collection, id)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	return nil
}

// queryExecer is satisfied by both *sql.DB and *sql.Tx.
type queryExecer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// decodeDocument parses a stored JSON payload into a Document.
func decodeDocument(id, payload string) (types.Document, error) {
	var fields types.Fields
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return types.Document{}, fmt.Errorf("parsing document fields: %w", err)
	}
	return types.Document{ID: id, Fields: fields}, nil
}

// generateID generates a UUID v7 document id, falling back to v4.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
