// Package sync keeps in-memory projections of the user's collections live
// against the document store. A Synchronizer mirrors one collection through
// a store subscription and layers optimistic reordering on top; a PlanBoard
// does the same for the meal plan's per-day buckets; a Session gates both on
// the signed-in user.
package sync
