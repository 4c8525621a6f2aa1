package storetest

import (
	"sync"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

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

// Subscribe opens a live view of a query, delivering the initial snapshot
// immediately and a fresh snapshot after every committed write.
func (s *Store) Subscribe(collection string, q types.Query) (types.Subscription, error) {
	if !types.IsKnownCollection(collection) {
		return nil, types.ErrCollectionNotFound
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if !s.attached {
		s.mu.Unlock()
		return nil, types.ErrStoreDetached
	}
	initial := s.runQueryLocked(collection, q)
	s.mu.Unlock()

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

func (sub *subscription) Updates() <-chan []types.Document {
	return sub.ch
}

func (sub *subscription) Err() error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.err
}

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
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- docs
	}
}

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
		s.mu.Lock()
		if !s.attached {
			s.mu.Unlock()
			return
		}
		docs := s.runQueryLocked(sub.collection, sub.query)
		s.mu.Unlock()
		sub.deliver(docs)
	}
}

func (s *Store) removeWatcher(id int) {
	s.watcherMu.Lock()
	delete(s.watchers, id)
	s.watcherMu.Unlock()
}

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
