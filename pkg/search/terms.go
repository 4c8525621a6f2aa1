package search

import (
	stdsync "sync"
)

// TermSet holds the confirmed ingredient search terms. Terms are normalized
// on entry and kept unique; order of confirmation is preserved so the UI can
// show removable chips.
type TermSet struct {
	mu    stdsync.Mutex
	terms []string
}

// Add normalizes and confirms a term. It reports whether the term was added;
// empty and duplicate terms are rejected.
func (t *TermSet) Add(term string) bool {
	norm := Normalize(term)
	if norm == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.terms {
		if existing == norm {
			return false
		}
	}
	t.terms = append(t.terms, norm)
	return true
}

// RemoveAt deletes the term at the given position. Out-of-range positions
// are ignored.
func (t *TermSet) RemoveAt(i int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.terms) {
		return
	}
	t.terms = append(t.terms[:i], t.terms[i+1:]...)
}

// Clear drops all terms.
func (t *TermSet) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.terms = nil
}

// Terms returns a copy of the confirmed terms in confirmation order.
func (t *TermSet) Terms() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.terms...)
}

// Len returns the number of confirmed terms.
func (t *TermSet) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.terms)
}
