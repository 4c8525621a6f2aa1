package sync

import (
	"context"
	stdsync "sync"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// MoveItem moves the document with the given id to a new position in the
// list. The projection is updated optimistically before any write lands:
// the document is spliced out of its current slot, inserted at the
// destination, and every document whose position changed is renumbered to
// its zero-based index. The changed orders are then persisted concurrently;
// if any write fails the pre-move projection is restored whole.
func (s *Synchronizer) MoveItem(ctx context.Context, id string, to int) error {
	s.mu.Lock()
	from := -1
	for i, doc := range s.items {
		if doc.ID == id {
			from = i
			break
		}
	}
	if from == -1 {
		s.mu.Unlock()
		s.logger.Warn().Str("id", id).Msg("move target not in projection")
		return types.ErrItemNotFound
	}

	snapshot := cloneDocs(s.items)
	reordered, changed := splice(s.items, from, to)
	s.items = reordered
	cb := s.onChange
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
	if len(changed) == 0 {
		return nil
	}

	if err := s.persistOrders(ctx, changed); err != nil {
		s.mu.Lock()
		s.items = snapshot
		cb := s.onChange
		s.mu.Unlock()
		s.logger.Error().Err(err).Str("id", id).Msg("reorder failed, restored previous order")
		s.revertOrders(ctx, snapshot, changed)
		if cb != nil {
			cb()
		}
		return err
	}
	return nil
}

// revertOrders writes the pre-move orders back for every document the failed
// move may have touched. Best effort: a document whose write failed still
// holds its old order, so its revert failing again changes nothing.
func (s *Synchronizer) revertOrders(ctx context.Context, snapshot []types.Document, changed []orderChange) {
	orders := make(map[string]int, len(snapshot))
	for _, doc := range snapshot {
		orders[doc.ID] = doc.Fields.IntField(types.FieldOrder)
	}

	var wg stdsync.WaitGroup
	for _, c := range changed {
		order, ok := orders[c.id]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(id string, order int) {
			defer wg.Done()
			err := s.store.Update(ctx, s.collection, id, types.Fields{types.FieldOrder: order})
			if err != nil {
				s.logger.Warn().Err(err).Str("id", id).Msg("revert write failed")
			}
		}(c.id, order)
	}
	wg.Wait()
}

// orderChange is one pending order write.
type orderChange struct {
	id    string
	order int
}

// splice removes the document at from, inserts it at to (clamped), and
// renumbers every document to its zero-based index. It returns the new list
// and the subset whose stored order actually changed.
func splice(docs []types.Document, from, to int) ([]types.Document, []orderChange) {
	reordered := cloneDocs(docs)
	moved := reordered[from]
	reordered = append(reordered[:from], reordered[from+1:]...)
	if to < 0 {
		to = 0
	}
	if to > len(reordered) {
		to = len(reordered)
	}
	reordered = append(reordered[:to], append([]types.Document{moved}, reordered[to:]...)...)

	var changed []orderChange
	for i := range reordered {
		if reordered[i].Fields.IntField(types.FieldOrder) != i {
			reordered[i].Fields[types.FieldOrder] = i
			changed = append(changed, orderChange{id: reordered[i].ID, order: i})
		}
	}
	return reordered, changed
}

// persistOrders writes the changed orders concurrently. The first error wins.
func (s *Synchronizer) persistOrders(ctx context.Context, changed []orderChange) error {
	var wg stdsync.WaitGroup
	var mu stdsync.Mutex
	var firstErr error

	for _, c := range changed {
		wg.Add(1)
		go func(c orderChange) {
			defer wg.Done()
			err := s.store.Update(ctx, s.collection, c.id, types.Fields{types.FieldOrder: c.order})
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(c)
	}
	wg.Wait()
	return firstErr
}

// cloneDocs deep-copies a projection so optimistic edits cannot leak into
// the rollback snapshot.
func cloneDocs(docs []types.Document) []types.Document {
	clone := make([]types.Document, len(docs))
	for i, doc := range docs {
		clone[i] = types.Document{ID: doc.ID, Fields: doc.Fields.Clone()}
	}
	return clone
}
