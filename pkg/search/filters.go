package search

import (
	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// RecipeFilter narrows recipe results client-side after the store query.
// A recipe with no type tag or no recorded time always passes the
// corresponding check, so untagged recipes are never hidden by filtering.
type RecipeFilter struct {
	Types   []string // allowed type tags; empty disables the check
	MaxTime int      // preparation time ceiling in minutes; 0 disables
}

// Matches reports whether the recipe passes the filter.
func (f RecipeFilter) Matches(r types.Recipe) bool {
	if len(f.Types) > 0 && r.Type != "" {
		allowed := false
		for _, t := range f.Types {
			if t == r.Type {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}
	if f.MaxTime > 0 && r.Time > 0 && r.Time > f.MaxTime {
		return false
	}
	return true
}

// Apply filters ingredient-overlap matches, preserving rank order.
func (f RecipeFilter) Apply(matches []RecipeMatch) []RecipeMatch {
	kept := make([]RecipeMatch, 0, len(matches))
	for _, m := range matches {
		if f.Matches(m.Recipe) {
			kept = append(kept, m)
		}
	}
	return kept
}

// ApplyDocs filters prefix-search recipe documents, preserving order.
func (f RecipeFilter) ApplyDocs(docs []types.Document) []types.Document {
	kept := make([]types.Document, 0, len(docs))
	for _, doc := range docs {
		if f.Matches(types.RecipeFromDocument(doc)) {
			kept = append(kept, doc)
		}
	}
	return kept
}
