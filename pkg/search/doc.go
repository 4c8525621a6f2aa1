// Package search finds documents by name prefix and recipes by ingredient
// overlap. Prefix search rides a live store subscription; overlap search is
// a one-shot fan-out over the ingredients collection.
package search
