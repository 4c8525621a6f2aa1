// Package types defines the document-store contract (Store, Query,
// Subscription, Batch), the household entity types, the configuration for
// backend selection, and the standard errors shared by every backend and
// client component.
package types
