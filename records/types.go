// Package records holds the persisted business entities of the sales
// assistant (follow-ups, visits, interactions, contracts, reminders) and the
// narrow document-store interface the conversation flows consume.
package records

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Record categories. A record belongs to exactly one chat and one category.
const (
	CategoryFollowups    = "followups"
	CategoryVisits       = "visitas"
	CategoryInteractions = "interacoes"
	CategoryContracts    = "contratos"
	CategoryReminders    = "lembretes"
)

// Categories lists every category in menu order.
var Categories = []string{
	CategoryFollowups,
	CategoryVisits,
	CategoryInteractions,
	CategoryContracts,
	CategoryReminders,
}

var categoryLabels = map[string]string{
	CategoryFollowups:    "Follow-ups",
	CategoryVisits:       "Visitas",
	CategoryInteractions: "Interações",
	CategoryContracts:    "Contratos",
	CategoryReminders:    "Lembretes",
}

// ValidCategory reports whether name is a known record category.
func ValidCategory(name string) bool {
	_, ok := categoryLabels[name]
	return ok
}

// CategoryLabel returns the user-facing label for a category.
func CategoryLabel(name string) string {
	if label, ok := categoryLabels[name]; ok {
		return label
	}
	return name
}

// Follow-up and contract status values.
const (
	StatusPending   = "pendente"
	StatusDone      = "realizado"
	StatusConcluded = "concluido"
)

// Fields is the schemaless document body of a record, stored as JSONB.
type Fields map[string]any

// Value implements driver.Valuer for JSONB storage.
func (f Fields) Value() (driver.Value, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (f *Fields) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	case nil:
		*f = Fields{}
		return nil
	}
	return fmt.Errorf("records: cannot scan %T into Fields", src)
}

// String returns the field as a string, or "" when absent or of another type.
func (f Fields) String(key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}

// Float returns the field as float64. JSON numbers decode as float64.
func (f Fields) Float(key string) float64 {
	switch v := f[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Bool returns the field as bool, defaulting to false.
func (f Fields) Bool(key string) bool {
	if v, ok := f[key].(bool); ok {
		return v
	}
	return false
}

// Clone returns a shallow copy of the fields.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Record is a persisted business entity owned by a single chat.
type Record struct {
	ID        string    `db:"id"`
	ChatID    int64     `db:"chat_id"`
	Category  string    `db:"category"`
	Fields    Fields    `db:"fields"`
	CreatedAt time.Time `db:"created_at"`
}
