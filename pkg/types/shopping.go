package types

import "strings"

// ShoppingListItem is an entry on a user's shopping list.
type ShoppingListItem struct {
	ID            string
	Name          string
	Order         int
	LowercaseName string
	UserID        string
}

// ToFields projects the item into store fields, recomputing LowercaseName
// from Name.
func (s ShoppingListItem) ToFields() Fields {
	return Fields{
		FieldName:          s.Name,
		FieldLowercaseName: strings.ToLower(s.Name),
		FieldOrder:         s.Order,
		FieldUserID:        s.UserID,
	}
}

// ShoppingListItemFromDocument decodes a stored shopping list document.
func ShoppingListItemFromDocument(doc Document) ShoppingListItem {
	return ShoppingListItem{
		ID:            doc.ID,
		Name:          doc.Fields.StringField(FieldName),
		Order:         doc.Fields.IntField(FieldOrder),
		LowercaseName: doc.Fields.StringField(FieldLowercaseName),
		UserID:        doc.Fields.StringField(FieldUserID),
	}
}
