package types

// Standard collection names.
const (
	CollectionInventory    = "inventory"
	CollectionShoppingList = "shoppingList"
	CollectionMealPlan     = "mealPlan"
	CollectionRecipes      = "recipes"
	CollectionIngredients  = "ingredients"
)

// Standard field keys. Every collection carries FieldUserID; list collections
// carry FieldOrder; searchable collections carry FieldLowercaseName as the
// always-in-sync lowercase projection of FieldName.
const (
	FieldName          = "name"
	FieldLowercaseName = "lowercaseName"
	FieldOrder         = "order"
	FieldUserID        = "userId"
	FieldExpiration    = "expiration"
	FieldDate          = "date"
	FieldNotes         = "notes"
	FieldType          = "type"
	FieldTime          = "time"
	FieldRecipeID      = "recipeId"
	FieldQuantity      = "quantity"
	FieldIngredientID  = "id"
)

// knownCollections lists the collections the backends accept.
var knownCollections = map[string]bool{
	CollectionInventory:    true,
	CollectionShoppingList: true,
	CollectionMealPlan:     true,
	CollectionRecipes:      true,
	CollectionIngredients:  true,
}

// IsKnownCollection reports whether name is a standard collection.
func IsKnownCollection(name string) bool {
	return knownCollections[name]
}

// Collections returns the standard collection names.
func Collections() []string {
	return []string{
		CollectionInventory,
		CollectionShoppingList,
		CollectionMealPlan,
		CollectionRecipes,
		CollectionIngredients,
	}
}
