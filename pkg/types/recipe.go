package types

import "strings"

// Recipe type tags. An empty Type means the recipe is untagged.
const (
	RecipeTypeMain     = "main"
	RecipeTypeSide     = "side"
	RecipeTypeDessert  = "dessert"
	RecipeTypeBeverage = "beverage"
)

// validRecipeTypes is the set of recognized recipe type values.
var validRecipeTypes = map[string]bool{
	RecipeTypeMain:     true,
	RecipeTypeSide:     true,
	RecipeTypeDessert:  true,
	RecipeTypeBeverage: true,
}

// IsValidRecipeType reports whether t is a recognized recipe type.
// The empty string is not a type; it clears the tag.
func IsValidRecipeType(t string) bool {
	return validRecipeTypes[t]
}

// Recipe is a user's saved recipe. Type == "" means untagged and Time == 0
// means no preparation time recorded; both always pass the search
// post-filters.
type Recipe struct {
	ID            string
	Name          string
	LowercaseName string
	Notes         string
	Type          string
	Time          int // preparation time in minutes
	UserID        string
}

// ToFields projects the recipe's scalar fields into store fields,
// recomputing LowercaseName from Name. Ingredients are stored separately.
func (r Recipe) ToFields() Fields {
	f := Fields{
		FieldName:          r.Name,
		FieldLowercaseName: strings.ToLower(r.Name),
		FieldNotes:         r.Notes,
		FieldUserID:        r.UserID,
	}
	if r.Type == "" {
		f[FieldType] = nil
	} else {
		f[FieldType] = r.Type
	}
	if r.Time == 0 {
		f[FieldTime] = nil
	} else {
		f[FieldTime] = r.Time
	}
	return f
}

// RecipeFromDocument decodes a stored recipe document.
func RecipeFromDocument(doc Document) Recipe {
	return Recipe{
		ID:            doc.ID,
		Name:          doc.Fields.StringField(FieldName),
		LowercaseName: doc.Fields.StringField(FieldLowercaseName),
		Notes:         doc.Fields.StringField(FieldNotes),
		Type:          doc.Fields.StringField(FieldType),
		Time:          doc.Fields.IntField(FieldTime),
		UserID:        doc.Fields.StringField(FieldUserID),
	}
}
