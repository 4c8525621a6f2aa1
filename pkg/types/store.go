package types

import (
	"context"
	"errors"
)

// Fields holds the named values of a document. Values are restricted to
// JSON-representable types: string, float64/int, bool, and nil.
type Fields map[string]any

// Document is a stored record: a server-assigned id plus its fields.
type Document struct {
	ID     string
	Fields Fields
}

// Store is the backend-agnostic document store contract. Callers attach to a
// backend, operate on named collections, and detach when done. All reads and
// writes are per-document and independent; Batch is the only multi-document
// atomic primitive.
type Store interface {
	// Attach connects the store to the backend described by config.
	// Idempotent on first call; returns ErrAlreadyAttached while attached.
	Attach(config Config) error

	// Detach releases backend resources and cancels open subscriptions.
	// Idempotent. After Detach, operations return ErrStoreDetached.
	Detach() error

	// Create inserts a new document and returns its generated id.
	Create(ctx context.Context, collection string, fields Fields) (string, error)

	// Update merges fields into an existing document.
	// Returns ErrNotFound if the id is absent.
	Update(ctx context.Context, collection, id string, fields Fields) error

	// Delete removes the document with the given id.
	// Returns ErrNotFound if the id is absent.
	Delete(ctx context.Context, collection, id string) error

	// Get retrieves a single document by id.
	// Returns ErrNotFound if the id is absent.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Query returns documents matching q, in q.OrderBy order.
	Query(ctx context.Context, collection string, q Query) ([]Document, error)

	// Subscribe opens a live view of a query. The subscription delivers a
	// full replacement snapshot immediately and after every change to the
	// collection, until unsubscribed.
	Subscribe(collection string, q Query) (Subscription, error)

	// Batch returns an empty write batch bound to this store.
	Batch() Batch
}

// Subscription is a live query result stream. Snapshots are full replacement
// lists in the query's OrderBy order.
type Subscription interface {
	// Updates delivers snapshots. The channel is closed by Unsubscribe or
	// by a subscription error.
	Updates() <-chan []Document

	// Err reports the error that closed the stream, if any.
	Err() error

	// Unsubscribe cancels the subscription. Idempotent; no snapshot is
	// delivered after it returns.
	Unsubscribe()
}

// Batch queues writes for a single atomic commit: either every queued
// operation applies, or none do.
type Batch interface {
	// Set queues a create with a generated id.
	Set(collection string, fields Fields)

	// Update queues a field merge on an existing document.
	Update(collection, id string, fields Fields)

	// Delete queues a document removal.
	Delete(collection, id string)

	// Commit applies all queued operations atomically.
	Commit(ctx context.Context) error
}

// Store lifecycle errors.
var (
	ErrStoreDetached      = errors.New("store is detached")
	ErrAlreadyAttached    = errors.New("store is already attached")
	ErrCollectionNotFound = errors.New("collection not found")
)

// Document operation errors.
var (
	ErrNotFound      = errors.New("document not found")
	ErrInvalidID     = errors.New("invalid document id")
	ErrInvalidFilter = errors.New("invalid filter")
)

// Client-layer errors.
var (
	ErrItemNotFound = errors.New("item not found in local list")
	ErrNoUser       = errors.New("no authenticated user")
)
