package types

import (
	"strings"

	"github.com/google/uuid"
)

// Ingredient belongs to exactly one recipe. ID is a client-generated stable
// id assigned when the ingredient first appears in an editing session; it is
// persisted with the document, stays fixed across saves, and is the
// reconciliation key when the recipe's ingredient set is saved. DocID is the
// store document id and is what updates and deletes address.
type Ingredient struct {
	ID            string
	DocID         string
	RecipeID      string
	Name          string
	Quantity      string
	LowercaseName string
	UserID        string
}

// NewIngredientID generates a stable client-side ingredient id (UUID v7,
// falling back to v4 if v7 generation fails).
func NewIngredientID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// ToFields projects the ingredient into store fields, recomputing
// LowercaseName from Name.
func (i Ingredient) ToFields() Fields {
	return Fields{
		FieldIngredientID:  i.ID,
		FieldName:          i.Name,
		FieldQuantity:      i.Quantity,
		FieldLowercaseName: strings.ToLower(i.Name),
		FieldRecipeID:      i.RecipeID,
		FieldUserID:        i.UserID,
	}
}

// IngredientFromDocument decodes a stored ingredient document. Documents
// written without a stable id fall back to the document id.
func IngredientFromDocument(doc Document) Ingredient {
	id := doc.Fields.StringField(FieldIngredientID)
	if id == "" {
		id = doc.ID
	}
	return Ingredient{
		ID:            id,
		DocID:         doc.ID,
		RecipeID:      doc.Fields.StringField(FieldRecipeID),
		Name:          doc.Fields.StringField(FieldName),
		Quantity:      doc.Fields.StringField(FieldQuantity),
		LowercaseName: doc.Fields.StringField(FieldLowercaseName),
		UserID:        doc.Fields.StringField(FieldUserID),
	}
}
