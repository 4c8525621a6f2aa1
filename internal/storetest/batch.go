package storetest

import (
	"context"
	"fmt"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

type batchOp struct {
	kind       string
	collection string
	id         string
	fields     types.Fields
}

// batch applies queued writes atomically: if any op fails, none of them
// take effect.
type batch struct {
	store *Store
	ops   []batchOp
}

// Batch returns an empty write batch bound to this store.
func (s *Store) Batch() types.Batch {
	return &batch{store: s}
}

func (b *batch) Set(collection string, fields types.Fields) {
	b.ops = append(b.ops, batchOp{kind: "create", collection: collection, fields: fields})
}

func (b *batch) Update(collection, id string, fields types.Fields) {
	b.ops = append(b.ops, batchOp{kind: "update", collection: collection, id: id, fields: fields})
}

func (b *batch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{kind: "delete", collection: collection, id: id})
}

func (b *batch) Commit(context.Context) error {
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

	// Validate against scripted failures and existence before mutating
	// anything, so a failing op leaves the store untouched.
	for _, op := range b.ops {
		switch op.kind {
		case "create":
			if err := s.failCreate[op.collection]; err != nil {
				s.mu.Unlock()
				return err
			}
		case "update":
			if err := s.failUpdate[op.id]; err != nil {
				s.mu.Unlock()
				return err
			}
			if _, ok := s.collectionLocked(op.collection)[op.id]; !ok {
				s.mu.Unlock()
				return types.ErrNotFound
			}
		case "delete":
			if err := s.failDelete[op.id]; err != nil {
				s.mu.Unlock()
				return err
			}
		}
	}

	affected := make(map[string]bool)
	for _, op := range b.ops {
		affected[op.collection] = true
		switch op.kind {
		case "create":
			s.seq++
			id := fmt.Sprintf("doc-%d", s.seq)
			s.collectionLocked(op.collection)[id] = op.fields.Clone()
			s.ops = append(s.ops, Op{Kind: "create", Collection: op.collection, ID: id, Fields: op.fields.Clone()})
		case "update":
			existing := s.collectionLocked(op.collection)[op.id]
			for k, v := range op.fields {
				existing[k] = v
			}
			s.ops = append(s.ops, Op{Kind: "update", Collection: op.collection, ID: op.id, Fields: op.fields.Clone()})
		case "delete":
			// Deleting an absent document inside a batch is a no-op.
			c := s.collectionLocked(op.collection)
			if _, ok := c[op.id]; ok {
				delete(c, op.id)
				s.ops = append(s.ops, Op{Kind: "delete", Collection: op.collection, ID: op.id})
			}
		}
	}
	s.mu.Unlock()

	collections := make([]string, 0, len(affected))
	for c := range affected {
		collections = append(collections, c)
	}
	s.notify(collections...)
	return nil
}
