package types

// MealPlanEntry is a planned meal on a calendar day. Order is scoped per
// Date, not per user list: moving an entry across days reassigns both.
type MealPlanEntry struct {
	ID     string
	Name   string
	Notes  string
	Date   string // calendar-day key, see DateKey
	Order  int
	UserID string
}

// ToFields projects the entry into store fields.
func (m MealPlanEntry) ToFields() Fields {
	return Fields{
		FieldName:   m.Name,
		FieldNotes:  m.Notes,
		FieldDate:   m.Date,
		FieldOrder:  m.Order,
		FieldUserID: m.UserID,
	}
}

// MealPlanEntryFromDocument decodes a stored meal plan document.
func MealPlanEntryFromDocument(doc Document) MealPlanEntry {
	return MealPlanEntry{
		ID:     doc.ID,
		Name:   doc.Fields.StringField(FieldName),
		Notes:  doc.Fields.StringField(FieldNotes),
		Date:   doc.Fields.StringField(FieldDate),
		Order:  doc.Fields.IntField(FieldOrder),
		UserID: doc.Fields.StringField(FieldUserID),
	}
}
