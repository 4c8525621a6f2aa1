// End-to-end tests over the sqlite store: the synchronizer, plan board,
// searchers, and recipe editor running against a real database file, with
// live subscriptions carrying every change back into the projections.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jkmoore/whats-for-dinner/internal/sqlite"
	"github.com/jkmoore/whats-for-dinner/pkg/recipes"
	"github.com/jkmoore/whats-for-dinner/pkg/search"
	appsync "github.com/jkmoore/whats-for-dinner/pkg/sync"
	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

func newSQLiteStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s := sqlite.NewStore()
	if err := s.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Detach(); err != nil {
			t.Errorf("Detach: %v", err)
		}
	})
	return s
}

// waitUntil polls cond until it returns true or the deadline passes.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestSynchronizerOverSQLite(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	s := appsync.NewSynchronizer(store, types.CollectionInventory, []string{types.FieldOrder}, zerolog.Nop())
	if err := s.Start("u1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()
	waitUntil(t, func() bool { return !s.Loading() })

	if _, err := s.Add(ctx, types.InventoryItem{Name: "Milk"}.ToFields()); err != nil {
		t.Fatalf("Add: %v", err)
	}
	idB, err := s.Add(ctx, types.InventoryItem{Name: "Eggs"}.ToFields())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	waitUntil(t, func() bool { return len(s.Items()) == 2 })

	if got := s.MaxOrder(); got != 2 {
		t.Errorf("expected maxOrder 2, got %d", got)
	}

	// Move the second item to the front and wait for the renumbered
	// snapshot to come back from the store.
	if err := s.MoveItem(ctx, idB, 0); err != nil {
		t.Fatalf("MoveItem: %v", err)
	}
	waitUntil(t, func() bool {
		items := s.Items()
		return len(items) == 2 &&
			items[0].ID == idB &&
			items[0].Fields.IntField(types.FieldOrder) == 0 &&
			items[1].Fields.IntField(types.FieldOrder) == 1
	})

	// A second user's synchronizer must not see any of it.
	other := appsync.NewSynchronizer(store, types.CollectionInventory, []string{types.FieldOrder}, zerolog.Nop())
	if err := other.Start("u2"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer other.Stop()
	waitUntil(t, func() bool { return !other.Loading() })
	if got := len(other.Items()); got != 0 {
		t.Errorf("expected other user to see 0 items, got %d", got)
	}
}

func TestPlanBoardOverSQLite(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	b := appsync.NewPlanBoard(store, zerolog.Nop())
	if err := b.Start("u1", from, 7); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop()
	waitUntil(t, func() bool { return !b.Loading() })

	id, err := b.Add(ctx, "2026-09-01", "Pancakes", "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := b.Add(ctx, "2026-09-01", "Soup", ""); err != nil {
		t.Fatalf("Add: %v", err)
	}
	waitUntil(t, func() bool { return len(b.Entries("2026-09-01")) == 2 })

	if err := b.MoveEntry(ctx, id, "2026-09-01", "2026-09-04", 0); err != nil {
		t.Fatalf("MoveEntry: %v", err)
	}
	waitUntil(t, func() bool {
		moved := b.Entries("2026-09-04")
		return len(moved) == 1 &&
			moved[0].Fields.StringField(types.FieldDate) == "2026-09-04" &&
			len(b.Entries("2026-09-01")) == 1
	})
}

func TestPrefixSearchOverSQLite(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	for _, name := range []string{"Milk", "Mild Cheddar", "Butter"} {
		item := types.InventoryItem{Name: name, Order: 1, UserID: "u1"}
		if _, err := store.Create(ctx, types.CollectionInventory, item.ToFields()); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	p := search.NewPrefixSearcher(store, types.CollectionInventory, types.FieldOrder, zerolog.Nop())
	if err := p.Start("u1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	if err := p.SetInput("  MIL "); err != nil {
		t.Fatalf("SetInput: %v", err)
	}
	waitUntil(t, func() bool { return len(p.Results()) == 2 })

	// The search is live: a new matching item shows up without re-running it.
	item := types.InventoryItem{Name: "Millet", Order: 4, UserID: "u1"}
	if _, err := store.Create(ctx, types.CollectionInventory, item.ToFields()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	waitUntil(t, func() bool { return len(p.Results()) == 3 })
}

func TestRecipeFlowOverSQLite(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	e := recipes.NewEditor(store, zerolog.Nop())
	id, err := e.SaveDetails(ctx, types.Recipe{Name: "Pancakes", Type: types.RecipeTypeMain, Time: 25, UserID: "u1"})
	if err != nil {
		t.Fatalf("SaveDetails: %v", err)
	}
	err = e.SaveIngredients(ctx, []types.Ingredient{
		{ID: types.NewIngredientID(), Name: "Flour", Quantity: "200g"},
		{ID: types.NewIngredientID(), Name: "Eggs", Quantity: "2"},
	})
	if err != nil {
		t.Fatalf("SaveIngredients: %v", err)
	}

	matches, err := search.SearchByIngredients(ctx, store, "u1", []string{"flour", "eggs", "butter"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("SearchByIngredients: %v", err)
	}
	if len(matches) != 1 || matches[0].Recipe.ID != id {
		t.Fatalf("unexpected matches: %+v", matches)
	}
	if w := matches[0].Weight; w < 0.66 || w > 0.67 {
		t.Errorf("expected weight 2/3, got %f", w)
	}

	// Reload in a fresh editor and delete; ingredients cascade.
	e2 := recipes.NewEditor(store, zerolog.Nop())
	if err := e2.Load(ctx, id); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(e2.Ingredients()) != 2 {
		t.Fatalf("expected 2 ingredients, got %d", len(e2.Ingredients()))
	}
	if err := e2.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	docs, err := store.Query(ctx, types.CollectionIngredients,
		types.Query{}.Where(types.FieldRecipeID, types.OpEqual, id))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected ingredient cascade to remove all, got %d", len(docs))
	}
}
