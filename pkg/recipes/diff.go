package recipes

import (
	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// IngredientDiff is the minimal set of writes that turns one ingredient list
// into another.
type IngredientDiff struct {
	Adds    []types.Ingredient
	Updates []types.Ingredient
	Deletes []string // document ids
}

// Empty reports whether the diff carries no writes.
func (d IngredientDiff) Empty() bool {
	return len(d.Adds) == 0 && len(d.Updates) == 0 && len(d.Deletes) == 0
}

// DiffIngredients compares the edited list against the loaded snapshot,
// keyed by the stable ingredient id. An ingredient counts as updated only
// when its name or quantity actually changed, so reordering an otherwise
// identical list produces an empty diff.
func DiffIngredients(before, after []types.Ingredient) IngredientDiff {
	prev := make(map[string]types.Ingredient, len(before))
	for _, ing := range before {
		prev[ing.ID] = ing
	}

	var diff IngredientDiff
	seen := make(map[string]bool, len(after))
	for _, ing := range after {
		old, ok := prev[ing.ID]
		if ing.ID == "" || !ok {
			diff.Adds = append(diff.Adds, ing)
			continue
		}
		seen[ing.ID] = true
		if ing.Name != old.Name || ing.Quantity != old.Quantity {
			ing.DocID = old.DocID
			diff.Updates = append(diff.Updates, ing)
		}
	}
	for _, ing := range before {
		if !seen[ing.ID] {
			diff.Deletes = append(diff.Deletes, ing.DocID)
		}
	}
	return diff
}
