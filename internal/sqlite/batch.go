package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

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

// batch queues writes and applies them in a single SQL transaction, so the
// whole set commits or none of it does.
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
	s.mu.Lock()
	if !s.attached {
		s.mu.Unlock()
		return types.ErrStoreDetached
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("beginning batch: %w", err)
	}

	affected := make(map[string]bool)
	for _, op := range b.ops {
		if err := applyOp(ctx, tx, op); err != nil {
			tx.Rollback()
			s.mu.Unlock()
			return err
		}
		affected[op.collection] = true
	}
	if err := tx.Commit(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("committing batch: %w", err)
	}
	s.mu.Unlock()

	collections := make([]string, 0, len(affected))
	for c := range affected {
		collections = append(collections, c)
	}
	s.notify(collections...)
	return nil
}

func applyOp(ctx context.Context, tx queryExecer, op batchOp) error {
	switch op.kind {
	case opSet:
		payload, err := json.Marshal(op.fields)
		if err != nil {
			return fmt.Errorf("marshaling batch fields: %w", err)
		}
		now := time.Now().UTC().Format(time.RFC3339Nano)
		_, err = tx.ExecContext(ctx,
			"INSERT INTO documents (collection, doc_id, fields, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			op.collection, generateID(), string(payload), now, now)
		if err != nil {
			return fmt.Errorf("batch insert into %s: %w", op.collection, err)
		}
		return nil
	case opUpdate:
		if op.id == "" {
			return types.ErrInvalidID
		}
		return mergeDocument(ctx, tx, op.collection, op.id, op.fields)
	case opDelete:
		if op.id == "" {
			return types.ErrInvalidID
		}
		_, err := tx.ExecContext(ctx,
			"DELETE FROM documents WHERE collection = ? AND doc_id = ?", op.collection, op.id)
		if err != nil {
			return fmt.Errorf("batch delete from %s: %w", op.collection, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown batch op %q", op.kind)
	}
}
