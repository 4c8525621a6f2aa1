package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// batchOp kinds.
const (
	opSet    = "set"
	opUpdate = "update"
	opDelete = "delete"
)

type batchOp struct {
	kind       string
	collection string
	id         string
	fields     types.Fields
}

// batch queues writes and applies them inside a session transaction, so the
// whole set commits or none of it does. Transactions require the deployment
// to be a replica set or sharded cluster.
type batch struct {
	store *Store
	ops   []batchOp
}

// Set queues a create with a generated id.
func (b *batch) Set(collection string, fields types.Fields) {
	b.ops = append(b.ops, batchOp{kind: opSet, collection: collection, fields: fields})
}

// Update queues a field merge on an existing document.
func (b *batch) Update(collection, id string, fields types.Fields) {
	b.ops = append(b.ops, batchOp{kind: opUpdate, collection: collection, id: id, fields: fields})
}

// Delete queues a document removal. Deleting an absent document is a no-op
// inside a batch.
func (b *batch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{kind: opDelete, collection: collection, id: id})
}

// Commit applies all queued operations atomically and then notifies
// subscriptions on the affected collections once.
func (b *batch) Commit(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}
	for _, op := range b.ops {
		if !types.IsKnownCollection(op.collection) {
			return types.ErrCollectionNotFound
		}
	}

	s := b.store
	s.mu.RLock()
	if !s.attached {
		s.mu.RUnlock()
		return types.ErrStoreDetached
	}
	client, db := s.client, s.db
	s.mu.RUnlock()

	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("starting batch session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		for _, op := range b.ops {
			if err := applyOp(ctx, db, op); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	affected := make(map[string]bool)
	for _, op := range b.ops {
		affected[op.collection] = true
	}
	collections := make([]string, 0, len(affected))
	for c := range affected {
		collections = append(collections, c)
	}
	s.notify(collections...)
	return nil
}

func applyOp(ctx context.Context, db *mongo.Database, op batchOp) error {
	coll := db.Collection(op.collection)
	switch op.kind {
	case opSet:
		doc := bson.M{"_id": generateID()}
		for k, v := range op.fields {
			doc[k] = v
		}
		if _, err := coll.InsertOne(ctx, doc); err != nil {
			return fmt.Errorf("batch insert into %s: %w", op.collection, err)
		}
		return nil
	case opUpdate:
		if op.id == "" {
			return types.ErrInvalidID
		}
		res, err := coll.UpdateByID(ctx, op.id, bson.M{"$set": bson.M(op.fields)})
		if err != nil {
			return fmt.Errorf("batch update in %s: %w", op.collection, err)
		}
		if res.MatchedCount == 0 {
			return types.ErrNotFound
		}
		return nil
	case opDelete:
		if op.id == "" {
			return types.ErrInvalidID
		}
		_, err := coll.DeleteOne(ctx, bson.M{"_id": op.id})
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("batch delete from %s: %w", op.collection, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown batch op %q", op.kind)
	}
}
