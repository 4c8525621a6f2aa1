package types

import (
	"strings"
	"time"
)

// InventoryItem is a food item in a user's inventory. Order defines the
// item's position in the per-user list; LowercaseName is derived from Name
// on every write because the store's range queries are case-sensitive.
type InventoryItem struct {
	ID            string
	Name          string
	Expiration    time.Time // zero when the item has no expiration date
	Order         int
	LowercaseName string
	UserID        string
}

// ToFields projects the item into store fields, recomputing LowercaseName
// from Name.
func (i InventoryItem) ToFields() Fields {
	f := Fields{
		FieldName:          i.Name,
		FieldLowercaseName: strings.ToLower(i.Name),
		FieldOrder:         i.Order,
		FieldUserID:        i.UserID,
	}
	if i.Expiration.IsZero() {
		f[FieldExpiration] = nil
	} else {
		f[FieldExpiration] = i.Expiration.Format(time.RFC3339)
	}
	return f
}

// InventoryItemFromDocument decodes a stored inventory document.
func InventoryItemFromDocument(doc Document) InventoryItem {
	return InventoryItem{
		ID:            doc.ID,
		Name:          doc.Fields.StringField(FieldName),
		Expiration:    doc.Fields.TimeField(FieldExpiration),
		Order:         doc.Fields.IntField(FieldOrder),
		LowercaseName: doc.Fields.StringField(FieldLowercaseName),
		UserID:        doc.Fields.StringField(FieldUserID),
	}
}
