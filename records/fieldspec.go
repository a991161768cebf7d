package records

// FieldKind classifies a field for input parsing in the edit flow.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldDate
	FieldDateTime
	FieldMoney
	FieldCount
)

type fieldSpec struct {
	name string
	kind FieldKind
}

// Reminder date-times are deliberately not editable: changing one would
// orphan its scheduled delivery. Users delete and recreate instead.
var editableFields = map[string][]fieldSpec{
	CategoryFollowups: {
		{"cliente", FieldText},
		{"data_follow", FieldDate},
		{"descricao", FieldText},
		{"status", FieldText},
	},
	CategoryVisits: {
		{"empresa", FieldText},
		{"data_visita", FieldDate},
		{"motivo", FieldText},
	},
	CategoryInteractions: {
		{"cliente", FieldText},
		{"tipo", FieldText},
		{"descricao", FieldText},
	},
	CategoryContracts: {
		{"cliente", FieldText},
		{"valor", FieldMoney},
		{"meses", FieldCount},
		{"data_inicio", FieldDate},
		{"status", FieldText},
	},
	CategoryReminders: {
		{"texto", FieldText},
	},
}

// dateFields names the field each category is filtered and reported by.
// Interactions carry no business date; callers fall back to CreatedAt.
var dateFields = map[string]string{
	CategoryFollowups: "data_follow",
	CategoryVisits:    "data_visita",
	CategoryContracts: "data_inicio",
	CategoryReminders: "data_hora",
}

// EditableFields lists the fields the edit flow may change for a category.
func EditableFields(category string) []string {
	specs := editableFields[category]
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.name
	}
	return names
}

// EditableField reports whether field may be edited on category.
func EditableField(category, field string) bool {
	for _, s := range editableFields[category] {
		if s.name == field {
			return true
		}
	}
	return false
}

// KindOf returns the parsing kind of an editable field, FieldText when the
// field is unknown.
func KindOf(category, field string) FieldKind {
	for _, s := range editableFields[category] {
		if s.name == field {
			return s.kind
		}
	}
	return FieldText
}

// DateField returns the storage field holding a category's business date,
// or "" when the category has none.
func DateField(category string) string {
	return dateFields[category]
}
