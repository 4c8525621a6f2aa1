package sync

import (
	"context"
	"strings"
	stdsync "sync"

	"github.com/rs/zerolog"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// Synchronizer mirrors one collection, filtered to a single user, into an
// in-memory projection. Every store snapshot replaces the projection whole;
// there is no per-document patching, so the projection can never drift from
// what the subscription reports.
type Synchronizer struct {
	store      types.Store
	collection string
	orderBy    []string
	logger     zerolog.Logger

	mu       stdsync.Mutex
	sub      types.Subscription
	userID   string
	items    []types.Document
	maxOrder int
	loading  bool
	err      error
	onChange func()
}

// NewSynchronizer creates a synchronizer for one collection. Snapshots are
// ordered by the given fields (usually FieldOrder).
func NewSynchronizer(store types.Store, collection string, orderBy []string, logger zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		store:      store,
		collection: collection,
		orderBy:    orderBy,
		logger:     logger.With().Str("collection", collection).Logger(),
	}
}

// OnChange registers a callback fired after every projection replacement,
// including optimistic ones.
func (s *Synchronizer) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Start subscribes to the user's documents. A running subscription for a
// previous user is stopped first, so no snapshot from the old identity can
// land in the new projection.
func (s *Synchronizer) Start(userID string) error {
	if userID == "" {
		return types.ErrNoUser
	}
	s.Stop()

	q := types.Query{OrderBy: s.orderBy}.Where(types.FieldUserID, types.OpEqual, userID)
	sub, err := s.store.Subscribe(s.collection, q)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sub = sub
	s.userID = userID
	s.items = nil
	s.maxOrder = 0
	s.loading = true
	s.err = nil
	s.mu.Unlock()

	go s.consume(sub)
	return nil
}

// Stop cancels the subscription. Safe to call when not started.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.userID = ""
	s.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

func (s *Synchronizer) consume(sub types.Subscription) {
	for docs := range sub.Updates() {
		s.mu.Lock()
		if s.sub != sub {
			// Superseded by a restart; drop the stale snapshot.
			s.mu.Unlock()
			return
		}
		s.applyLocked(docs)
		cb := s.onChange
		s.mu.Unlock()
		if cb != nil {
			cb()
		}
	}

	if err := sub.Err(); err != nil {
		s.mu.Lock()
		if s.sub == sub {
			s.err = err
			s.loading = false
		}
		cb := s.onChange
		s.mu.Unlock()
		s.logger.Error().Err(err).Msg("subscription failed")
		if cb != nil {
			cb()
		}
	}
}

// applyLocked replaces the projection and recomputes maxOrder from the last
// document. Snapshots arrive ordered, so the last document carries the
// highest order.
func (s *Synchronizer) applyLocked(docs []types.Document) {
	s.items = docs
	if len(docs) == 0 {
		s.maxOrder = 0
	} else {
		s.maxOrder = docs[len(docs)-1].Fields.IntField(types.FieldOrder)
	}
	s.loading = false
}

// Items returns a copy of the current projection.
func (s *Synchronizer) Items() []types.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Document(nil), s.items...)
}

// MaxOrder returns the order of the last document, 0 when empty.
func (s *Synchronizer) MaxOrder() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxOrder
}

// Loading reports whether the first snapshot is still pending.
func (s *Synchronizer) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error that stopped the subscription, if any.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Add creates a document at the end of the list: order is maxOrder+1, the
// user id is stamped, and lowercaseName is derived from the name.
func (s *Synchronizer) Add(ctx context.Context, fields types.Fields) (string, error) {
	s.mu.Lock()
	userID := s.userID
	next := s.maxOrder + 1
	s.mu.Unlock()
	if userID == "" {
		return "", types.ErrNoUser
	}

	f := fields.Clone()
	f[types.FieldUserID] = userID
	f[types.FieldOrder] = next
	if name := f.StringField(types.FieldName); name != "" {
		f[types.FieldLowercaseName] = strings.ToLower(name)
	}
	return s.store.Create(ctx, s.collection, f)
}

// Edit merges fields into a document, recomputing lowercaseName whenever the
// name changes.
func (s *Synchronizer) Edit(ctx context.Context, id string, fields types.Fields) error {
	f := fields.Clone()
	if name, ok := f[types.FieldName]; ok {
		if str, ok := name.(string); ok {
			f[types.FieldLowercaseName] = strings.ToLower(str)
		}
	}
	return s.store.Update(ctx, s.collection, id, f)
}

// Remove deletes a document and optimistically drops it from the projection
// without waiting for the next snapshot.
func (s *Synchronizer) Remove(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, s.collection, id); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.items[:0]
	for _, doc := range s.items {
		if doc.ID != id {
			kept = append(kept, doc)
		}
	}
	s.items = kept
	cb := s.onChange
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
	return nil
}
