package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkmoore/whats-for-dinner/internal/storetest"
	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

func seedRecipe(s *storetest.Store, id, name string, recipeType string, prepTime int) {
	s.Seed(types.CollectionRecipes, id, types.Recipe{
		Name: name, Type: recipeType, Time: prepTime, UserID: "u1",
	}.ToFields())
}

func seedIngredient(s *storetest.Store, id, recipeID, name string) {
	s.Seed(types.CollectionIngredients, id, types.Ingredient{
		ID: id, RecipeID: recipeID, Name: name, UserID: "u1",
	}.ToFields())
}

func TestChunkTerms(t *testing.T) {
	terms := make([]string, 61)
	for i := range terms {
		terms[i] = fmt.Sprintf("t%d", i)
	}

	chunks := chunkTerms(terms, types.MaxInValues)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 30)
	assert.Len(t, chunks[1], 30)
	assert.Len(t, chunks[2], 1)
}

func TestSearchByIngredientsRanksByCoverage(t *testing.T) {
	store := storetest.NewStore()
	seedRecipe(store, "r1", "Pancakes", "", 0)
	seedRecipe(store, "r2", "Bread", "", 0)
	seedIngredient(store, "g1", "r1", "Flour")
	seedIngredient(store, "g2", "r1", "Eggs")
	seedIngredient(store, "g3", "r2", "Flour")

	matches, err := SearchByIngredients(context.Background(), store, "u1",
		[]string{"flour", "eggs"}, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Pancakes covers both terms, Bread only one.
	assert.Equal(t, "Pancakes", matches[0].Recipe.Name)
	assert.InDelta(t, 1.0, matches[0].Weight, 1e-9)
	assert.Equal(t, "Bread", matches[1].Recipe.Name)
	assert.InDelta(t, 0.5, matches[1].Weight, 1e-9)
	assert.Equal(t, "Flour", matches[1].Subtext())
}

func TestSearchByIngredientsSubtext(t *testing.T) {
	store := storetest.NewStore()
	seedRecipe(store, "r1", "Pancakes", "", 0)
	seedIngredient(store, "g1", "r1", "Flour")
	seedIngredient(store, "g2", "r1", "Eggs")

	matches, err := SearchByIngredients(context.Background(), store, "u1",
		[]string{"flour", "eggs", "butter"}, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, matches, 1)

	assert.ElementsMatch(t, []string{"Flour", "Eggs"}, matches[0].Matched)
	assert.InDelta(t, 2.0/3.0, matches[0].Weight, 1e-9)
}

func TestSearchByIngredientsSkipsMissingRecipes(t *testing.T) {
	store := storetest.NewStore()
	seedRecipe(store, "r1", "Pancakes", "", 0)
	seedIngredient(store, "g1", "r1", "Flour")
	seedIngredient(store, "g2", "gone", "Flour") // orphaned ingredient

	matches, err := SearchByIngredients(context.Background(), store, "u1",
		[]string{"flour"}, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Pancakes", matches[0].Recipe.Name)
}

func TestSearchByIngredientsManyTerms(t *testing.T) {
	store := storetest.NewStore()
	seedRecipe(store, "r1", "Everything Stew", "", 0)
	// The matching term lands in the third chunk.
	seedIngredient(store, "g1", "r1", "T60")

	terms := make([]string, 61)
	for i := range terms {
		terms[i] = fmt.Sprintf("t%d", i)
	}

	matches, err := SearchByIngredients(context.Background(), store, "u1", terms, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0/61.0, matches[0].Weight, 1e-9)
}

func TestSearchByIngredientsEmptyTerms(t *testing.T) {
	matches, err := SearchByIngredients(context.Background(), storetest.NewStore(), "u1", nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestTermSet(t *testing.T) {
	var ts TermSet

	assert.True(t, ts.Add("  Flour "))
	assert.False(t, ts.Add("flour")) // duplicate after normalization
	assert.False(t, ts.Add("   "))
	assert.True(t, ts.Add("Eggs"))
	assert.Equal(t, []string{"flour", "eggs"}, ts.Terms())

	ts.RemoveAt(0)
	assert.Equal(t, []string{"eggs"}, ts.Terms())
	ts.RemoveAt(5) // out of range, ignored
	assert.Equal(t, 1, ts.Len())

	ts.Clear()
	assert.Empty(t, ts.Terms())
}

func TestRecipeFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter RecipeFilter
		recipe types.Recipe
		want   bool
	}{
		{
			name:   "empty filter passes everything",
			filter: RecipeFilter{},
			recipe: types.Recipe{Type: types.RecipeTypeMain, Time: 90},
			want:   true,
		},
		{
			name:   "type mismatch",
			filter: RecipeFilter{Types: []string{types.RecipeTypeDessert}},
			recipe: types.Recipe{Type: types.RecipeTypeMain},
			want:   false,
		},
		{
			name:   "untagged recipe passes type filter",
			filter: RecipeFilter{Types: []string{types.RecipeTypeDessert}},
			recipe: types.Recipe{Type: ""},
			want:   true,
		},
		{
			name:   "over the time ceiling",
			filter: RecipeFilter{MaxTime: 30},
			recipe: types.Recipe{Time: 45},
			want:   false,
		},
		{
			name:   "no recorded time passes time filter",
			filter: RecipeFilter{MaxTime: 30},
			recipe: types.Recipe{Time: 0},
			want:   true,
		},
		{
			name:   "within both filters",
			filter: RecipeFilter{Types: []string{types.RecipeTypeMain}, MaxTime: 60},
			recipe: types.Recipe{Type: types.RecipeTypeMain, Time: 45},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.recipe))
		})
	}
}

func TestRecipeFilterApplyPreservesRank(t *testing.T) {
	matches := []RecipeMatch{
		{Recipe: types.Recipe{Name: "A", Type: types.RecipeTypeMain}, Weight: 1.0},
		{Recipe: types.Recipe{Name: "B", Type: types.RecipeTypeDessert}, Weight: 0.7},
		{Recipe: types.Recipe{Name: "C"}, Weight: 0.3},
	}

	kept := RecipeFilter{Types: []string{types.RecipeTypeMain}}.Apply(matches)
	require.Len(t, kept, 2)
	assert.Equal(t, "A", kept[0].Recipe.Name)
	assert.Equal(t, "C", kept[1].Recipe.Name) // untagged passes
}
