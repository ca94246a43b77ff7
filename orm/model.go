package orm

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Column describes one table column.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
}

// Table describes the shape of a model's table. PrimaryKey and Unique
// columns together form the conflict target of the upsert operations.
type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey []string
	Unique     []string
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// ConflictColumns returns the primary key and unique columns, deduplicated
// in declaration order.
func (t Table) ConflictColumns() []string {
	seen := make(map[string]struct{}, len(t.PrimaryKey)+len(t.Unique))
	var out []string
	for _, col := range append(append([]string{}, t.PrimaryKey...), t.Unique...) {
		if _, ok := seen[col]; ok {
			continue
		}
		seen[col] = struct{}{}
		out = append(out, col)
	}
	return out
}

// Schema binds a model type to its table: Fields returns pointers to the
// struct fields in column order for scanning, Values the corresponding
// values for inserts.
type Schema[T any] struct {
	Table  Table
	Fields func(m *T) []any
	Values func(m *T) []any
}

// Base holds the columns shared by most models.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewID returns a fresh identifier for a model row.
func NewID() string {
	return uuid.NewString()
}

// TableName derives a table name from the type of v, converting the
// CamelCase type name to snake_case.
func TableName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return toSnakeCase(t.Name())
}

func toSnakeCase(name string) string {
	var sb strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			// Break before an upper-case rune unless it continues an
			// acronym run like "ID" or "HTTPServer".
			if i > 0 && (!unicode.IsUpper(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
