package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

func TestBatchCommitAppliesAllOps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	existing := types.Ingredient{ID: types.NewIngredientID(), RecipeID: "r1", Name: "Salt", Quantity: "1tsp", UserID: "u1"}
	id, err := s.Create(ctx, types.CollectionIngredients, existing.ToFields())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	b := s.Batch()
	b.Set(types.CollectionIngredients, types.Ingredient{RecipeID: "r1", Name: "Basil", Quantity: "3 leaves", UserID: "u1"}.ToFields())
	b.Update(types.CollectionIngredients, id, types.Fields{types.FieldQuantity: "2tsp"})
	if err := b.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	docs, err := s.Query(ctx, types.CollectionIngredients,
		types.Query{}.Where(types.FieldRecipeID, types.OpEqual, "r1"))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 ingredients after batch, got %d", len(docs))
	}

	doc, err := s.Get(ctx, types.CollectionIngredients, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got := doc.Fields.StringField(types.FieldQuantity); got != "2tsp" {
		t.Errorf("expected quantity 2tsp, got %q", got)
	}
}

func TestBatchCommitIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := s.Batch()
	b.Set(types.CollectionIngredients, types.Ingredient{RecipeID: "r1", Name: "Basil", UserID: "u1"}.ToFields())
	b.Update(types.CollectionIngredients, "missing-id", types.Fields{types.FieldQuantity: "2tsp"})

	err := b.Commit(ctx)
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from failing update, got %v", err)
	}

	// The set queued before the failing update must not have applied.
	docs, err := s.Query(ctx, types.CollectionIngredients,
		types.Query{}.Where(types.FieldRecipeID, types.OpEqual, "r1"))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("batch was not atomic: %d documents persisted", len(docs))
	}
}

func TestBatchEmptyCommit(t *testing.T) {
	s := newTestStore(t)
	if err := s.Batch().Commit(context.Background()); err != nil {
		t.Fatalf("empty Commit failed: %v", err)
	}
}

func TestBatchDeleteMissingIsNoOp(t *testing.T) {
	s := newTestStore(t)

	b := s.Batch()
	b.Delete(types.CollectionIngredients, "missing-id")
	if err := b.Commit(context.Background()); err != nil {
		t.Fatalf("batch delete of missing doc failed: %v", err)
	}
}
