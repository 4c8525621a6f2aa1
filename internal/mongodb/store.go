// Package mongodb implements the document Store on a MongoDB deployment.
// Each collection maps to a Mongo collection in the configured database and
// document fields are stored as top-level BSON fields, so filters and sort
// orders translate directly to Mongo query operators.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// attachTimeout bounds the connectivity check during Attach.
const attachTimeout = 10 * time.Second

// Store implements types.Store backed by MongoDB.
type Store struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	client   *mongo.Client
	db       *mongo.Database

	watcherMu sync.Mutex
	watchers  map[int]*subscription
	nextID    int
}

// NewStore creates a new MongoDB store instance. The store is not attached;
// call Attach with a Config to connect.
func NewStore() *Store {
	return &Store{watchers: make(map[int]*subscription)}
}

// Attach connects to the deployment named by config.MongoURI and pings it.
// Returns ErrAlreadyAttached if already attached.
func (s *Store) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	client, err := mongo.Connect(options.Client().ApplyURI(config.MongoURI))
	if err != nil {
		return fmt.Errorf("connecting to MongoDB: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), attachTimeout)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return fmt.Errorf("pinging MongoDB: %w", err)
	}

	s.client = client
	s.db = client.Database(config.MongoDatabase)
	s.config = config
	s.attached = true
	return nil
}

// Detach cancels open subscriptions and disconnects the client. Idempotent.
// After Detach, all operations return ErrStoreDetached.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil // idempotent
	}

	s.closeAllSubscriptions()

	if s.client != nil {
		if err := s.client.Disconnect(context.Background()); err != nil {
			return err
		}
		s.client = nil
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
	doc := bson.M{"_id": id}
	for k, v := range fields {
		doc[k] = v
	}

	s.mu.RLock()
	if !s.attached {
		s.mu.RUnlock()
		return "", types.ErrStoreDetached
	}
	_, err := s.db.Collection(collection).InsertOne(ctx, doc)
	s.mu.RUnlock()
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

	s.mu.RLock()
	if !s.attached {
		s.mu.RUnlock()
		return types.ErrStoreDetached
	}
	res, err := s.db.Collection(collection).UpdateByID(ctx, id, bson.M{"$set": bson.M(fields)})
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	if res.MatchedCount == 0 {
		return types.ErrNotFound
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

	s.mu.RLock()
	if !s.attached {
		s.mu.RUnlock()
		return types.ErrStoreDetached
	}
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if res.DeletedCount == 0 {
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

	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Document{}, types.ErrNotFound
	}
	if err != nil {
		return types.Document{}, fmt.Errorf("finding document: %w", err)
	}
	return decodeDocument(raw), nil
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

// decodeDocument converts a raw BSON document into a Document, splitting off
// the _id field.
func decodeDocument(raw bson.M) types.Document {
	var doc types.Document
	doc.Fields = make(types.Fields, len(raw))
	for k, v := range raw {
		if k == "_id" {
			doc.ID, _ = v.(string)
			continue
		}
		doc.Fields[k] = v
	}
	return doc
}

// generateID generates a UUID v7 document id, falling back to v4.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
