package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// PlanBoard mirrors the meal plan as per-day buckets over a window of
// calendar days. Every day in the window has a bucket even when empty, so
// entries can be dropped onto days that have no meals yet.
type PlanBoard struct {
	store  types.Store
	logger zerolog.Logger

	mu       stdsync.Mutex
	sub      types.Subscription
	userID   string
	days     []string
	buckets  map[string][]types.Document
	loading  bool
	err      error
	onChange func()
}

// NewPlanBoard creates an empty board.
func NewPlanBoard(store types.Store, logger zerolog.Logger) *PlanBoard {
	return &PlanBoard{
		store:   store,
		logger:  logger.With().Str("collection", types.CollectionMealPlan).Logger(),
		buckets: make(map[string][]types.Document),
	}
}

// OnChange registers a callback fired after every board replacement.
func (b *PlanBoard) OnChange(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

// Start subscribes to the user's meal plan entries for numDays days
// beginning at from. A previous subscription is stopped first.
func (b *PlanBoard) Start(userID string, from time.Time, numDays int) error {
	if userID == "" {
		return types.ErrNoUser
	}
	b.Stop()

	days := make([]string, numDays)
	for i := range days {
		days[i] = types.DateKey(from.AddDate(0, 0, i))
	}

	q := types.Query{OrderBy: []string{types.FieldDate, types.FieldOrder}}.
		Where(types.FieldUserID, types.OpEqual, userID).
		Where(types.FieldDate, types.OpGreaterOrEqual, days[0]).
		Where(types.FieldDate, types.OpLessOrEqual, days[len(days)-1])
	sub, err := b.store.Subscribe(types.CollectionMealPlan, q)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.sub = sub
	b.userID = userID
	b.days = days
	b.buckets = emptyBuckets(days)
	b.loading = true
	b.err = nil
	b.mu.Unlock()

	go b.consume(sub)
	return nil
}

// Stop cancels the subscription. Safe to call when not started.
func (b *PlanBoard) Stop() {
	b.mu.Lock()
	sub := b.sub
	b.sub = nil
	b.userID = ""
	b.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

func (b *PlanBoard) consume(sub types.Subscription) {
	for docs := range sub.Updates() {
		b.mu.Lock()
		if b.sub != sub {
			b.mu.Unlock()
			return
		}
		b.buckets = bucketize(b.days, docs)
		b.loading = false
		cb := b.onChange
		b.mu.Unlock()
		if cb != nil {
			cb()
		}
	}

	if err := sub.Err(); err != nil {
		b.mu.Lock()
		if b.sub == sub {
			b.err = err
			b.loading = false
		}
		cb := b.onChange
		b.mu.Unlock()
		b.logger.Error().Err(err).Msg("subscription failed")
		if cb != nil {
			cb()
		}
	}
}

func emptyBuckets(days []string) map[string][]types.Document {
	buckets := make(map[string][]types.Document, len(days))
	for _, day := range days {
		buckets[day] = []types.Document{}
	}
	return buckets
}

// bucketize groups a snapshot (already ordered by date then order) into
// per-day buckets, keeping an empty bucket for every day in the window.
func bucketize(days []string, docs []types.Document) map[string][]types.Document {
	buckets := emptyBuckets(days)
	for _, doc := range docs {
		day := doc.Fields.StringField(types.FieldDate)
		if _, ok := buckets[day]; !ok {
			continue // outside the window
		}
		buckets[day] = append(buckets[day], doc)
	}
	return buckets
}

// Days returns the window's day keys in order.
func (b *PlanBoard) Days() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.days...)
}

// Entries returns a copy of one day's bucket.
func (b *PlanBoard) Entries(day string) []types.Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.Document(nil), b.buckets[day]...)
}

// Loading reports whether the first snapshot is still pending.
func (b *PlanBoard) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// Err returns the error that stopped the subscription, if any.
func (b *PlanBoard) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Add creates a meal at the end of a day's bucket.
func (b *PlanBoard) Add(ctx context.Context, day, name, notes string) (string, error) {
	b.mu.Lock()
	userID := b.userID
	order := 0
	if bucket := b.buckets[day]; len(bucket) > 0 {
		order = bucket[len(bucket)-1].Fields.IntField(types.FieldOrder) + 1
	}
	b.mu.Unlock()
	if userID == "" {
		return "", types.ErrNoUser
	}

	entry := types.MealPlanEntry{Name: name, Notes: notes, Date: day, Order: order, UserID: userID}
	return b.store.Create(ctx, types.CollectionMealPlan, entry.ToFields())
}

// Remove deletes a meal and optimistically drops it from its bucket.
func (b *PlanBoard) Remove(ctx context.Context, id string) error {
	if err := b.store.Delete(ctx, types.CollectionMealPlan, id); err != nil {
		return err
	}

	b.mu.Lock()
	for day, bucket := range b.buckets {
		for i, doc := range bucket {
			if doc.ID == id {
				b.buckets[day] = append(bucket[:i], bucket[i+1:]...)
				break
			}
		}
	}
	cb := b.onChange
	b.mu.Unlock()
	if cb != nil {
		cb()
	}
	return nil
}

// MoveEntry moves a meal within a day or across days. Within a day it is the
// usual splice-and-renumber. Across days the entry leaves its source bucket
// (which keeps its relative order without rewrites), gets the destination
// date stamped, and the destination bucket is renumbered to zero-based
// positions. All changed documents are persisted concurrently and the whole
// board is restored on any failure.
func (b *PlanBoard) MoveEntry(ctx context.Context, id, fromDay, toDay string, to int) error {
	b.mu.Lock()
	source, ok := b.buckets[fromDay]
	if !ok {
		b.mu.Unlock()
		b.logger.Warn().Str("id", id).Str("day", fromDay).Msg("move source day not on board")
		return types.ErrItemNotFound
	}
	from := -1
	for i, doc := range source {
		if doc.ID == id {
			from = i
			break
		}
	}
	if from == -1 {
		b.mu.Unlock()
		b.logger.Warn().Str("id", id).Msg("move target not in projection")
		return types.ErrItemNotFound
	}

	snapshot := cloneBuckets(b.buckets)

	var changed []entryChange
	if fromDay == toDay {
		reordered, orderChanges := splice(source, from, to)
		b.buckets[fromDay] = reordered
		for _, c := range orderChanges {
			changed = append(changed, entryChange{id: c.id, fields: types.Fields{types.FieldOrder: c.order}})
		}
	} else {
		moved := types.Document{ID: source[from].ID, Fields: source[from].Fields.Clone()}
		b.buckets[fromDay] = append(cloneDocs(source[:from]), cloneDocs(source[from+1:])...)

		dest := cloneDocs(b.buckets[toDay])
		if to < 0 {
			to = 0
		}
		if to > len(dest) {
			to = len(dest)
		}
		dest = append(dest[:to], append([]types.Document{moved}, dest[to:]...)...)

		for i := range dest {
			doc := dest[i]
			fields := types.Fields{}
			if doc.ID == id {
				fields[types.FieldDate] = toDay
				doc.Fields[types.FieldDate] = toDay
			}
			if doc.Fields.IntField(types.FieldOrder) != i {
				fields[types.FieldOrder] = i
				doc.Fields[types.FieldOrder] = i
			}
			if len(fields) > 0 {
				changed = append(changed, entryChange{id: doc.ID, fields: fields})
			}
		}
		b.buckets[toDay] = dest
	}
	cb := b.onChange
	b.mu.Unlock()
	if cb != nil {
		cb()
	}
	if len(changed) == 0 {
		return nil
	}

	if err := b.persistChanges(ctx, changed); err != nil {
		b.mu.Lock()
		b.buckets = snapshot
		cb := b.onChange
		b.mu.Unlock()
		b.logger.Error().Err(err).Str("id", id).Msg("move failed, restored previous board")
		b.revertChanges(ctx, snapshot, changed)
		if cb != nil {
			cb()
		}
		return err
	}
	return nil
}

// revertChanges writes the pre-move date and order back for every entry the
// failed move may have touched. Best effort; failures are logged.
func (b *PlanBoard) revertChanges(ctx context.Context, snapshot map[string][]types.Document, changed []entryChange) {
	original := make(map[string]types.Fields, len(changed))
	for day, bucket := range snapshot {
		for _, doc := range bucket {
			original[doc.ID] = types.Fields{
				types.FieldDate:  day,
				types.FieldOrder: doc.Fields.IntField(types.FieldOrder),
			}
		}
	}

	var wg stdsync.WaitGroup
	for _, c := range changed {
		fields, ok := original[c.id]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(id string, fields types.Fields) {
			defer wg.Done()
			err := b.store.Update(ctx, types.CollectionMealPlan, id, fields)
			if err != nil {
				b.logger.Warn().Err(err).Str("id", id).Msg("revert write failed")
			}
		}(c.id, fields)
	}
	wg.Wait()
}

// entryChange is one pending meal-plan write.
type entryChange struct {
	id     string
	fields types.Fields
}

// persistChanges writes the changed entries concurrently. The first error
// wins.
func (b *PlanBoard) persistChanges(ctx context.Context, changed []entryChange) error {
	var wg stdsync.WaitGroup
	var mu stdsync.Mutex
	var firstErr error

	for _, c := range changed {
		wg.Add(1)
		go func(c entryChange) {
			defer wg.Done()
			err := b.store.Update(ctx, types.CollectionMealPlan, c.id, c.fields)
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

func cloneBuckets(buckets map[string][]types.Document) map[string][]types.Document {
	clone := make(map[string][]types.Document, len(buckets))
	for day, bucket := range buckets {
		clone[day] = cloneDocs(bucket)
	}
	return clone
}
