package search

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkmoore/whats-for-dinner/internal/storetest"
	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "milk", Normalize("  Milk "))
	assert.Equal(t, "", Normalize("   "))
}

func TestPrefixSearchMatchesPrefixOnly(t *testing.T) {
	store := storetest.NewStore()
	store.Seed(types.CollectionInventory, "i1", types.InventoryItem{Name: "Milk", Order: 2, UserID: "u1"}.ToFields())
	store.Seed(types.CollectionInventory, "i2", types.InventoryItem{Name: "Mild Cheese", Order: 0, UserID: "u1"}.ToFields())
	store.Seed(types.CollectionInventory, "i3", types.InventoryItem{Name: "Eggs", Order: 1, UserID: "u1"}.ToFields())
	store.Seed(types.CollectionInventory, "i4", types.InventoryItem{Name: "Milk", Order: 0, UserID: "u2"}.ToFields())

	p := NewPrefixSearcher(store, types.CollectionInventory, types.FieldOrder, zerolog.Nop())
	require.NoError(t, p.Start("u1"))
	defer p.Stop()

	require.NoError(t, p.SetInput(" Mil"))
	assert.True(t, p.Active())

	waitFor(t, func() bool { return len(p.Results()) == 2 })
	results := p.Results()
	// Sorted by order, not by name: Mild Cheese (0) before Milk (2).
	assert.Equal(t, "i2", results[0].ID)
	assert.Equal(t, "i1", results[1].ID)
}

func TestPrefixSearchEmptyInputDeactivates(t *testing.T) {
	store := storetest.NewStore()
	store.Seed(types.CollectionInventory, "i1", types.InventoryItem{Name: "Milk", Order: 0, UserID: "u1"}.ToFields())

	p := NewPrefixSearcher(store, types.CollectionInventory, types.FieldOrder, zerolog.Nop())
	require.NoError(t, p.Start("u1"))
	defer p.Stop()

	require.NoError(t, p.SetInput("mil"))
	waitFor(t, func() bool { return len(p.Results()) == 1 })

	require.NoError(t, p.SetInput("   "))
	assert.False(t, p.Active())
	assert.Empty(t, p.Results())
}

func TestPrefixSearchIsLive(t *testing.T) {
	store := storetest.NewStore()

	p := NewPrefixSearcher(store, types.CollectionInventory, types.FieldOrder, zerolog.Nop())
	require.NoError(t, p.Start("u1"))
	defer p.Stop()
	require.NoError(t, p.SetInput("mil"))

	store.Seed(types.CollectionInventory, "i9", types.InventoryItem{Name: "Millet", Order: 0, UserID: "u1"}.ToFields())
	// Seed bypasses notifications; a real write triggers one.
	_, err := store.Create(context.Background(), types.CollectionInventory, types.InventoryItem{Name: "Milk", Order: 1, UserID: "u1"}.ToFields())
	require.NoError(t, err)

	waitFor(t, func() bool { return len(p.Results()) == 2 })
}

func TestPrefixSearchRequiresUser(t *testing.T) {
	p := NewPrefixSearcher(storetest.NewStore(), types.CollectionInventory, types.FieldOrder, zerolog.Nop())
	assert.ErrorIs(t, p.SetInput("milk"), types.ErrNoUser)
	assert.ErrorIs(t, p.Start(""), types.ErrNoUser)
}

func TestRecipePrefixSortsCaseInsensitively(t *testing.T) {
	store := storetest.NewStore()
	store.Seed(types.CollectionRecipes, "r1", types.Recipe{Name: "Pumpkin Pie", UserID: "u1"}.ToFields())
	store.Seed(types.CollectionRecipes, "r2", types.Recipe{Name: "pumpkin Bread", UserID: "u1"}.ToFields())

	p := NewPrefixSearcher(store, types.CollectionRecipes, types.FieldLowercaseName, zerolog.Nop())
	require.NoError(t, p.Start("u1"))
	defer p.Stop()
	require.NoError(t, p.SetInput("pumpkin"))

	// "pumpkin Bread" sorts before "Pumpkin Pie" despite its lowercase
	// first letter, since results order by the lowercase projection.
	waitFor(t, func() bool { return len(p.Results()) == 2 })
	results := p.Results()
	assert.Equal(t, "pumpkin Bread", results[0].Fields.StringField(types.FieldName))
	assert.Equal(t, "Pumpkin Pie", results[1].Fields.StringField(types.FieldName))
}
