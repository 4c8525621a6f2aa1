package recipes

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkmoore/whats-for-dinner/internal/storetest"
	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

func newEditor(store *storetest.Store) *Editor {
	return NewEditor(store, zerolog.Nop())
}

func TestEditorSaveDetailsCreatesThenUpdates(t *testing.T) {
	store := storetest.NewStore()
	e := newEditor(store)
	ctx := context.Background()

	id, err := e.SaveDetails(ctx, types.Recipe{Name: "Pancakes", Type: types.RecipeTypeMain, Time: 20, UserID: "u1"})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, e.Recipe().ID)

	doc, err := store.Get(ctx, types.CollectionRecipes, id)
	require.NoError(t, err)
	assert.Equal(t, "pancakes", doc.Fields.StringField(types.FieldLowercaseName))

	// Saving again with the id updates in place.
	_, err = e.SaveDetails(ctx, types.Recipe{ID: id, Name: "Buttermilk Pancakes", UserID: "u1"})
	require.NoError(t, err)
	doc, err = store.Get(ctx, types.CollectionRecipes, id)
	require.NoError(t, err)
	assert.Equal(t, "Buttermilk Pancakes", doc.Fields.StringField(types.FieldName))
}

func TestEditorSaveIngredientsCommitsDiffOnly(t *testing.T) {
	store := storetest.NewStore()
	e := newEditor(store)
	ctx := context.Background()

	id, err := e.SaveDetails(ctx, types.Recipe{Name: "Pancakes", UserID: "u1"})
	require.NoError(t, err)

	require.NoError(t, e.SaveIngredients(ctx, []types.Ingredient{
		{ID: types.NewIngredientID(), Name: "Flour", Quantity: "200g"},
		{ID: types.NewIngredientID(), Name: "Sugar", Quantity: "50g"},
		{ID: types.NewIngredientID(), Name: "Salt", Quantity: "1tsp"},
	}))

	loaded := e.Ingredients()
	require.Len(t, loaded, 3)
	for _, ing := range loaded {
		assert.Equal(t, id, ing.RecipeID)
		assert.Equal(t, "u1", ing.UserID)
	}

	// One update, one delete, one add.
	byName := make(map[string]types.Ingredient)
	for _, ing := range loaded {
		byName[ing.Name] = ing
	}
	edited := []types.Ingredient{
		{ID: byName["Flour"].ID, Name: "Flour", Quantity: "250g"},
		{ID: byName["Salt"].ID, Name: "Salt", Quantity: "1tsp"},
		{ID: types.NewIngredientID(), Name: "Butter", Quantity: "30g"},
	}
	store.ResetOps()
	require.NoError(t, e.SaveIngredients(ctx, edited))

	kinds := map[string]int{}
	for _, op := range store.Ops() {
		if op.Collection == types.CollectionIngredients {
			kinds[op.Kind]++
		}
	}
	assert.Equal(t, 1, kinds["create"])
	assert.Equal(t, 1, kinds["update"])
	assert.Equal(t, 1, kinds["delete"])

	docs, err := store.Query(ctx, types.CollectionIngredients,
		types.Query{}.Where(types.FieldRecipeID, types.OpEqual, id))
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestEditorSaveIngredientsReorderIsNoop(t *testing.T) {
	store := storetest.NewStore()
	e := newEditor(store)
	ctx := context.Background()

	_, err := e.SaveDetails(ctx, types.Recipe{Name: "Pancakes", UserID: "u1"})
	require.NoError(t, err)
	require.NoError(t, e.SaveIngredients(ctx, []types.Ingredient{
		{ID: types.NewIngredientID(), Name: "Flour", Quantity: "200g"},
		{ID: types.NewIngredientID(), Name: "Sugar", Quantity: "50g"},
	}))

	loaded := e.Ingredients()
	require.Len(t, loaded, 2)
	reversed := []types.Ingredient{loaded[1], loaded[0]}

	store.ResetOps()
	require.NoError(t, e.SaveIngredients(ctx, reversed))
	assert.Empty(t, store.Ops())
}

func TestEditorSaveIngredientsKeepsStableIDs(t *testing.T) {
	store := storetest.NewStore()
	e := newEditor(store)
	ctx := context.Background()

	_, err := e.SaveDetails(ctx, types.Recipe{Name: "Pancakes", UserID: "u1"})
	require.NoError(t, err)

	list := []types.Ingredient{{ID: types.NewIngredientID(), Name: "Flour", Quantity: "200g"}}
	require.NoError(t, e.SaveIngredients(ctx, list))

	// The caller's id survives the round trip through the store.
	require.Len(t, e.Ingredients(), 1)
	assert.Equal(t, list[0].ID, e.Ingredients()[0].ID)

	// Saving the same unchanged list again writes nothing.
	store.ResetOps()
	require.NoError(t, e.SaveIngredients(ctx, list))
	assert.Empty(t, store.Ops())
}

func TestEditorSaveIngredientsIsAtomic(t *testing.T) {
	store := storetest.NewStore()
	e := newEditor(store)
	ctx := context.Background()

	id, err := e.SaveDetails(ctx, types.Recipe{Name: "Pancakes", UserID: "u1"})
	require.NoError(t, err)
	require.NoError(t, e.SaveIngredients(ctx, []types.Ingredient{
		{ID: types.NewIngredientID(), Name: "Flour", Quantity: "200g"},
	}))
	flour := e.Ingredients()[0]

	boom := errors.New("write refused")
	store.FailUpdate(flour.DocID, boom)
	store.ResetOps()

	err = e.SaveIngredients(ctx, []types.Ingredient{
		{ID: flour.ID, Name: "Flour", Quantity: "999g"},
		{ID: types.NewIngredientID(), Name: "Butter", Quantity: "30g"},
	})
	require.ErrorIs(t, err, boom)

	// Nothing landed, not even the add queued alongside the failing update.
	assert.Empty(t, store.Ops())
	docs, err := store.Query(ctx, types.CollectionIngredients,
		types.Query{}.Where(types.FieldRecipeID, types.OpEqual, id))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "200g", docs[0].Fields.StringField(types.FieldQuantity))
}

func TestEditorSaveIngredientsWithoutRecipe(t *testing.T) {
	e := newEditor(storetest.NewStore())
	err := e.SaveIngredients(context.Background(), []types.Ingredient{{ID: "x", Name: "Flour"}})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestEditorLoad(t *testing.T) {
	store := storetest.NewStore()
	store.Seed(types.CollectionRecipes, "r1", types.Recipe{Name: "Pancakes", Time: 20, UserID: "u1"}.ToFields())
	store.Seed(types.CollectionIngredients, "g1", types.Ingredient{RecipeID: "r1", Name: "Flour", Quantity: "200g", UserID: "u1"}.ToFields())

	e := newEditor(store)
	require.NoError(t, e.Load(context.Background(), "r1"))

	assert.Equal(t, "Pancakes", e.Recipe().Name)
	assert.Equal(t, 20, e.Recipe().Time)
	require.Len(t, e.Ingredients(), 1)
	assert.Equal(t, "g1", e.Ingredients()[0].ID)
	assert.False(t, e.LoadingRecipe())
	assert.False(t, e.LoadingIngredients())
}

func TestEditorLoadMissingRecipe(t *testing.T) {
	e := newEditor(storetest.NewStore())
	err := e.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestEditorDeleteCascades(t *testing.T) {
	store := storetest.NewStore()
	e := newEditor(store)
	ctx := context.Background()

	id, err := e.SaveDetails(ctx, types.Recipe{Name: "Pancakes", UserID: "u1"})
	require.NoError(t, err)
	require.NoError(t, e.SaveIngredients(ctx, []types.Ingredient{
		{ID: types.NewIngredientID(), Name: "Flour"},
		{ID: types.NewIngredientID(), Name: "Sugar"},
	}))

	require.NoError(t, e.Delete(ctx))

	_, err = store.Get(ctx, types.CollectionRecipes, id)
	assert.ErrorIs(t, err, types.ErrNotFound)
	docs, err := store.Query(ctx, types.CollectionIngredients,
		types.Query{}.Where(types.FieldRecipeID, types.OpEqual, id))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestEditorDeleteCascadeIsBestEffort(t *testing.T) {
	store := storetest.NewStore()
	e := newEditor(store)
	ctx := context.Background()

	id, err := e.SaveDetails(ctx, types.Recipe{Name: "Pancakes", UserID: "u1"})
	require.NoError(t, err)
	require.NoError(t, e.SaveIngredients(ctx, []types.Ingredient{
		{ID: types.NewIngredientID(), Name: "Flour"},
	}))
	store.FailDelete(e.Ingredients()[0].DocID, errors.New("write refused"))

	// The recipe delete succeeds; the stuck ingredient is logged and left.
	require.NoError(t, e.Delete(ctx))
	_, err = store.Get(ctx, types.CollectionRecipes, id)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
