// Package recipes edits a single recipe and its ingredient list against the
// document store. Scalar fields save directly; the ingredient list is
// reconciled as a diff against the loaded snapshot and committed in one
// atomic batch.
package recipes

import (
	"context"
	"fmt"
	"strings"
	stdsync "sync"

	"github.com/rs/zerolog"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// Editor is an editing session for one recipe.
type Editor struct {
	store  types.Store
	logger zerolog.Logger

	mu                 stdsync.Mutex
	recipe             types.Recipe
	ingredients        []types.Ingredient // snapshot the next save diffs against
	loadingRecipe      bool
	loadingIngredients bool
	saving             bool
}

// NewEditor creates an editor bound to the store. Call Load for an existing
// recipe or SaveDetails with a zero ID to create a new one.
func NewEditor(store types.Store, logger zerolog.Logger) *Editor {
	return &Editor{store: store, logger: logger}
}

// Load fetches the recipe and its ingredients into the session.
func (e *Editor) Load(ctx context.Context, recipeID string) error {
	e.mu.Lock()
	e.loadingRecipe = true
	e.loadingIngredients = true
	e.mu.Unlock()

	doc, err := e.store.Get(ctx, types.CollectionRecipes, recipeID)
	e.mu.Lock()
	e.loadingRecipe = false
	e.mu.Unlock()
	if err != nil {
		e.mu.Lock()
		e.loadingIngredients = false
		e.mu.Unlock()
		return fmt.Errorf("loading recipe: %w", err)
	}
	recipe := types.RecipeFromDocument(doc)

	ingredients, err := e.fetchIngredients(ctx, recipeID)
	e.mu.Lock()
	e.loadingIngredients = false
	e.mu.Unlock()
	if err != nil {
		return fmt.Errorf("loading ingredients: %w", err)
	}

	e.mu.Lock()
	e.recipe = recipe
	e.ingredients = ingredients
	e.mu.Unlock()
	return nil
}

func (e *Editor) fetchIngredients(ctx context.Context, recipeID string) ([]types.Ingredient, error) {
	docs, err := e.store.Query(ctx, types.CollectionIngredients,
		types.Query{}.Where(types.FieldRecipeID, types.OpEqual, recipeID))
	if err != nil {
		return nil, err
	}
	ingredients := make([]types.Ingredient, len(docs))
	for i, doc := range docs {
		ingredients[i] = types.IngredientFromDocument(doc)
	}
	return ingredients, nil
}

// Recipe returns the loaded recipe.
func (e *Editor) Recipe() types.Recipe {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recipe
}

// Ingredients returns a copy of the loaded ingredient snapshot.
func (e *Editor) Ingredients() []types.Ingredient {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]types.Ingredient(nil), e.ingredients...)
}

// LoadingRecipe reports whether the recipe fetch is still in flight.
func (e *Editor) LoadingRecipe() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadingRecipe
}

// LoadingIngredients reports whether the ingredient fetch is still in flight.
func (e *Editor) LoadingIngredients() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadingIngredients
}

// Saving reports whether a save is in flight.
func (e *Editor) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}

func (e *Editor) setSaving(v bool) {
	e.mu.Lock()
	e.saving = v
	e.mu.Unlock()
}

// SaveDetails persists the recipe's scalar fields. A recipe with no id is
// created first and the new id is returned, so ingredient saves in the same
// session have a recipe to attach to.
func (e *Editor) SaveDetails(ctx context.Context, recipe types.Recipe) (string, error) {
	e.setSaving(true)
	defer e.setSaving(false)

	if recipe.ID == "" {
		id, err := e.store.Create(ctx, types.CollectionRecipes, recipe.ToFields())
		if err != nil {
			return "", fmt.Errorf("creating recipe: %w", err)
		}
		recipe.ID = id
		e.mu.Lock()
		e.recipe = recipe
		e.mu.Unlock()
		return id, nil
	}

	if err := e.store.Update(ctx, types.CollectionRecipes, recipe.ID, recipe.ToFields()); err != nil {
		return "", fmt.Errorf("updating recipe: %w", err)
	}
	e.mu.Lock()
	e.recipe = recipe
	e.mu.Unlock()
	return recipe.ID, nil
}

// SaveIngredients reconciles the edited list against the loaded snapshot and
// commits the difference in one atomic batch. An unchanged list (including a
// merely reordered one) writes nothing. Stable ingredient ids are persisted
// with the documents, so the caller's list keeps matching the stored
// snapshot on later saves.
func (e *Editor) SaveIngredients(ctx context.Context, current []types.Ingredient) error {
	e.mu.Lock()
	recipe := e.recipe
	before := e.ingredients
	e.mu.Unlock()
	if recipe.ID == "" {
		return types.ErrNotFound
	}

	diff := DiffIngredients(before, current)
	if diff.Empty() {
		return nil
	}

	e.setSaving(true)
	defer e.setSaving(false)

	b := e.store.Batch()
	for _, ing := range diff.Adds {
		if ing.ID == "" {
			ing.ID = types.NewIngredientID()
		}
		ing.RecipeID = recipe.ID
		ing.UserID = recipe.UserID
		b.Set(types.CollectionIngredients, ing.ToFields())
	}
	for _, ing := range diff.Updates {
		b.Update(types.CollectionIngredients, ing.DocID, types.Fields{
			types.FieldName:          ing.Name,
			types.FieldQuantity:      ing.Quantity,
			types.FieldLowercaseName: strings.ToLower(ing.Name),
		})
	}
	for _, id := range diff.Deletes {
		b.Delete(types.CollectionIngredients, id)
	}
	if err := b.Commit(ctx); err != nil {
		return fmt.Errorf("saving ingredients: %w", err)
	}

	// Refetch so the next save diffs against what actually landed.
	refreshed, err := e.fetchIngredients(ctx, recipe.ID)
	if err != nil {
		e.logger.Warn().Err(err).Str("recipe", recipe.ID).Msg("ingredient refresh failed")
		return nil
	}
	e.mu.Lock()
	e.ingredients = refreshed
	e.mu.Unlock()
	return nil
}

// Delete removes the recipe and then cascade-deletes its ingredients.
// The cascade is best effort: a failing ingredient delete is logged, not
// returned, since the recipe itself is already gone.
func (e *Editor) Delete(ctx context.Context) error {
	e.mu.Lock()
	recipe := e.recipe
	e.mu.Unlock()
	if recipe.ID == "" {
		return types.ErrNotFound
	}

	e.setSaving(true)
	defer e.setSaving(false)

	if err := e.store.Delete(ctx, types.CollectionRecipes, recipe.ID); err != nil {
		return fmt.Errorf("deleting recipe: %w", err)
	}

	docs, err := e.store.Query(ctx, types.CollectionIngredients,
		types.Query{}.Where(types.FieldRecipeID, types.OpEqual, recipe.ID))
	if err != nil {
		e.logger.Warn().Err(err).Str("recipe", recipe.ID).Msg("ingredient cascade query failed")
		return nil
	}
	for _, doc := range docs {
		if err := e.store.Delete(ctx, types.CollectionIngredients, doc.ID); err != nil {
			e.logger.Warn().Err(err).Str("ingredient", doc.ID).Msg("ingredient cascade delete failed")
		}
	}

	e.mu.Lock()
	e.recipe = types.Recipe{}
	e.ingredients = nil
	e.mu.Unlock()
	return nil
}
