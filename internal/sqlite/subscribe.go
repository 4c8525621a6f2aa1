package sqlite

import (
	"context"
	"sync"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// subscription is a live query over one collection. Snapshots are coalesced:
// the channel holds at most the latest unconsumed snapshot, so a slow
// consumer only ever sees the freshest state.
type subscription struct {
	store      *Store
	id         int
	collection string
	query      types.Query

	mu     sync.Mutex
	ch     chan []types.Document
	closed bool
	err    error
}

// Subscribe opens a live view of a query. The initial snapshot is delivered
// before Subscribe returns control to the consumer's channel reads.
func (s *Store) Subscribe(collection string, q types.Query) (types.Subscription, error) {
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	if !s.attached {
		s.mu.RUnlock()
		return nil, types.ErrStoreDetached
	}
	initial, err := s.runQuery(context.Background(), collection, q)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	sub := &subscription{
		store:      s,
		collection: collection,
		query:      q,
		ch:         make(chan []types.Document, 1),
	}

	s.watcherMu.Lock()
	s.nextID++
	sub.id = s.nextID
	s.watchers[sub.id] = sub
	s.watcherMu.Unlock()

	sub.deliver(initial)
	return sub, nil
}

// Updates delivers snapshots until Unsubscribe or a query failure closes the
// channel.
func (sub *subscription) Updates() <-chan []types.Document {
	return sub.ch
}

// Err reports the error that closed the stream, if any.
func (sub *subscription) Err() error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.err
}

// Unsubscribe cancels the subscription. Idempotent; no snapshot is delivered
// after it returns.
func (sub *subscription) Unsubscribe() {
	sub.store.removeWatcher(sub.id)
	sub.close(nil)
}

// deliver pushes a snapshot, replacing any unconsumed one.
func (sub *subscription) deliver(docs []types.Document) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	select {
	case sub.ch <- docs:
	default:
		// Drop the stale pending snapshot; the buffer guarantees room.
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- docs
	}
}

// close marks the subscription finished and closes the channel once.
func (sub *subscription) close(err error) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	sub.err = err
	close(sub.ch)
}

// notify re-evaluates every subscription watching the given collections and
// delivers fresh snapshots. Called after each committed mutation, outside
// the store's write lock.
func (s *Store) notify(collections ...string) {
	affected := make(map[string]bool, len(collections))
	for _, c := range collections {
		affected[c] = true
	}

	s.watcherMu.Lock()
	watching := make([]*subscription, 0, len(s.watchers))
	for _, sub := range s.watchers {
		if affected[sub.collection] {
			watching = append(watching, sub)
		}
	}
	s.watcherMu.Unlock()

	for _, sub := range watching {
		s.mu.RLock()
		if !s.attached {
			s.mu.RUnlock()
			return
		}
		docs, err := s.runQuery(context.Background(), sub.collection, sub.query)
		s.mu.RUnlock()
		if err != nil {
			s.removeWatcher(sub.id)
			sub.close(err)
			continue
		}
		sub.deliver(docs)
	}
}

// removeWatcher deregisters a subscription.
func (s *Store) removeWatcher(id int) {
	s.watcherMu.Lock()
	delete(s.watchers, id)
	s.watcherMu.Unlock()
}

// closeAllSubscriptions cancels every open subscription. The caller holds
// the store write lock (Detach).
func (s *Store) closeAllSubscriptions() {
	s.watcherMu.Lock()
	watchers := make([]*subscription, 0, len(s.watchers))
	for _, sub := range s.watchers {
		watchers = append(watchers, sub)
	}
	s.watchers = make(map[int]*subscription)
	s.watcherMu.Unlock()

	for _, sub := range watchers {
		sub.close(types.ErrStoreDetached)
	}
}
