package recipes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

func TestDiffIngredients(t *testing.T) {
	before := []types.Ingredient{
		{ID: "i1", DocID: "d1", Name: "Flour", Quantity: "200g"},
		{ID: "i2", DocID: "d2", Name: "Sugar", Quantity: "50g"},
		{ID: "i3", DocID: "d3", Name: "Salt", Quantity: "1tsp"},
	}
	after := []types.Ingredient{
		{ID: "i1", Name: "Flour", Quantity: "250g"}, // quantity changed
		{ID: "i3", Name: "Salt", Quantity: "1tsp"},  // untouched
		{ID: "i4", Name: "Butter", Quantity: "30g"}, // new
	}

	diff := DiffIngredients(before, after)

	require.Len(t, diff.Updates, 1)
	assert.Equal(t, "i1", diff.Updates[0].ID)
	assert.Equal(t, "d1", diff.Updates[0].DocID)
	assert.Equal(t, "250g", diff.Updates[0].Quantity)

	require.Len(t, diff.Adds, 1)
	assert.Equal(t, "Butter", diff.Adds[0].Name)

	assert.Equal(t, []string{"d2"}, diff.Deletes)
}

func TestDiffIngredientsReorderedIdenticalIsEmpty(t *testing.T) {
	before := []types.Ingredient{
		{ID: "i1", Name: "Flour", Quantity: "200g"},
		{ID: "i2", Name: "Sugar", Quantity: "50g"},
	}
	after := []types.Ingredient{
		{ID: "i2", Name: "Sugar", Quantity: "50g"},
		{ID: "i1", Name: "Flour", Quantity: "200g"},
	}

	assert.True(t, DiffIngredients(before, after).Empty())
}

func TestDiffIngredientsNameChangeIsUpdate(t *testing.T) {
	before := []types.Ingredient{{ID: "i1", Name: "Flour", Quantity: "200g"}}
	after := []types.Ingredient{{ID: "i1", Name: "Rye Flour", Quantity: "200g"}}

	diff := DiffIngredients(before, after)
	require.Len(t, diff.Updates, 1)
	assert.Empty(t, diff.Adds)
	assert.Empty(t, diff.Deletes)
}

func TestDiffIngredientsEmptySnapshot(t *testing.T) {
	after := []types.Ingredient{
		{ID: types.NewIngredientID(), Name: "Flour"},
		{ID: types.NewIngredientID(), Name: "Sugar"},
	}

	diff := DiffIngredients(nil, after)
	assert.Len(t, diff.Adds, 2)
	assert.Empty(t, diff.Updates)
	assert.Empty(t, diff.Deletes)
}
