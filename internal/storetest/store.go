// Package storetest provides an in-memory Store for package tests. It keeps
// documents in plain maps, supports the same filter and subscription
// semantics as the real backends, and can be scripted to fail individual
// writes so callers can exercise their rollback paths.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// Op records one committed write for test assertions.
type Op struct {
	Kind       string // "create", "update", "delete"
	Collection string
	ID         string
	Fields     types.Fields
}

// Store is an in-memory types.Store.
type Store struct {
	mu       sync.Mutex
	attached bool
	docs     map[string]map[string]types.Fields
	seq      int
	ops      []Op

	failCreate map[string]error // keyed by collection
	failUpdate map[string]error // keyed by document id
	failDelete map[string]error // keyed by document id

	watcherMu sync.Mutex
	watchers  map[int]*subscription
	nextID    int
}

// NewStore returns an attached empty store.
func NewStore() *Store {
	return &Store{
		attached:   true,
		docs:       make(map[string]map[string]types.Fields),
		failCreate: make(map[string]error),
		failUpdate: make(map[string]error),
		failDelete: make(map[string]error),
		watchers:   make(map[int]*subscription),
	}
}

// Attach marks the store attached. The zero configuration is accepted so
// tests do not have to build one.
func (s *Store) Attach(types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return types.ErrAlreadyAttached
	}
	s.attached = true
	return nil
}

// Detach closes open subscriptions and marks the store detached.
func (s *Store) Detach() error {
	s.mu.Lock()
	s.attached = false
	s.mu.Unlock()
	s.closeAllSubscriptions()
	return nil
}

// FailUpdate makes every Update of the given document id return err.
func (s *Store) FailUpdate(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpdate[id] = err
}

// FailDelete makes every Delete of the given document id return err.
func (s *Store) FailDelete(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelete[id] = err
}

// FailCreate makes every Create into the given collection return err.
func (s *Store) FailCreate(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCreate[collection] = err
}

// Ops returns the writes committed so far, in order.
func (s *Store) Ops() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Op(nil), s.ops...)
}

// ResetOps clears the recorded write log.
func (s *Store) ResetOps() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = nil
}

// Seed inserts a document with a fixed id, bypassing failure scripting and
// the write log.
func (s *Store) Seed(collection, id string, fields types.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collectionLocked(collection)[id] = fields.Clone()
}

func (s *Store) collectionLocked(collection string) map[string]types.Fields {
	c, ok := s.docs[collection]
	if !ok {
		c = make(map[string]types.Fields)
		s.docs[collection] = c
	}
	return c
}

// Create inserts a document and returns its generated id.
func (s *Store) Create(_ context.Context, collection string, fields types.Fields) (string, error) {
	if !types.IsKnownCollection(collection) {
		return "", types.ErrCollectionNotFound
	}

	s.mu.Lock()
	if !s.attached {
		s.mu.Unlock()
		return "", types.ErrStoreDetached
	}
	if err := s.failCreate[collection]; err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.seq++
	id := fmt.Sprintf("doc-%d", s.seq)
	s.collectionLocked(collection)[id] = fields.Clone()
	s.ops = append(s.ops, Op{Kind: "create", Collection: collection, ID: id, Fields: fields.Clone()})
	s.mu.Unlock()

	s.notify(collection)
	return id, nil
}

// Update merges fields into an existing document.
func (s *Store) Update(_ context.Context, collection, id string, fields types.Fields) error {
	if !types.IsKnownCollection(collection) {
		return types.ErrCollectionNotFound
	}

	s.mu.Lock()
	if !s.attached {
		s.mu.Unlock()
		return types.ErrStoreDetached
	}
	if err := s.failUpdate[id]; err != nil {
		s.mu.Unlock()
		return err
	}
	existing, ok := s.collectionLocked(collection)[id]
	if !ok {
		s.mu.Unlock()
		return types.ErrNotFound
	}
	for k, v := range fields {
		existing[k] = v
	}
	s.ops = append(s.ops, Op{Kind: "update", Collection: collection, ID: id, Fields: fields.Clone()})
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

// Delete removes a document.
func (s *Store) Delete(_ context.Context, collection, id string) error {
	if !types.IsKnownCollection(collection) {
		return types.ErrCollectionNotFound
	}

	s.mu.Lock()
	if !s.attached {
		s.mu.Unlock()
		return types.ErrStoreDetached
	}
	if err := s.failDelete[id]; err != nil {
		s.mu.Unlock()
		return err
	}
	c := s.collectionLocked(collection)
	if _, ok := c[id]; !ok {
		s.mu.Unlock()
		return types.ErrNotFound
	}
	delete(c, id)
	s.ops = append(s.ops, Op{Kind: "delete", Collection: collection, ID: id})
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

// Get retrieves a document by id.
func (s *Store) Get(_ context.Context, collection, id string) (types.Document, error) {
	if !types.IsKnownCollection(collection) {
		return types.Document{}, types.ErrCollectionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return types.Document{}, types.ErrStoreDetached
	}
	fields, ok := s.collectionLocked(collection)[id]
	if !ok {
		return types.Document{}, types.ErrNotFound
	}
	return types.Document{ID: id, Fields: fields.Clone()}, nil
}

// Query returns matching documents in q.OrderBy order.
func (s *Store) Query(_ context.Context, collection string, q types.Query) ([]types.Document, error) {
	if !types.IsKnownCollection(collection) {
		return nil, types.ErrCollectionNotFound
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	return s.runQueryLocked(collection, q), nil
}

func (s *Store) runQueryLocked(collection string, q types.Query) []types.Document {
	docs := make([]types.Document, 0)
	for id, fields := range s.collectionLocked(collection) {
		if matches(fields, q.Filters) {
			docs = append(docs, types.Document{ID: id, Fields: fields.Clone()})
		}
	}
	sortDocs(docs, q.OrderBy)
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs
}

func matches(fields types.Fields, filters []types.Filter) bool {
	for _, f := range filters {
		v, ok := fields[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case types.OpEqual:
			if compare(v, f.Value) != 0 {
				return false
			}
		case types.OpGreaterOrEqual:
			if compare(v, f.Value) < 0 {
				return false
			}
		case types.OpLessOrEqual:
			if compare(v, f.Value) > 0 {
				return false
			}
		case types.OpIn:
			values, _ := f.Value.([]string)
			str, _ := v.(string)
			found := false
			for _, candidate := range values {
				if candidate == str {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compare orders two field values. Numbers compare numerically, everything
// else compares by string form.
func compare(a, b any) int {
	na, aNum := asFloat(a)
	nb, bNum := asFloat(b)
	if aNum && bNum {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func sortDocs(docs []types.Document, orderBy []string) {
	if len(orderBy) == 0 {
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, field := range orderBy {
			if c := compare(docs[i].Fields[field], docs[j].Fields[field]); c != 0 {
				return c < 0
			}
		}
		return docs[i].ID < docs[j].ID
	})
}
