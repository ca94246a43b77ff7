// Package statement renders SQL statements from per-verb option structs,
// with placeholders and upsert forms that match the target dialect.
package statement

// Dialect identifies the SQL flavor a statement is rendered for.
type Dialect string

const (
	Postgres  Dialect = "postgres"
	SQLServer Dialect = "sqlserver"
	SQLite    Dialect = "sqlite"
	// Memory is the ramsql-backed in-memory engine used by tests. It
	// speaks the postgres placeholder style but has no upsert support.
	Memory Dialect = "memory"
)

// Op is a comparison operator usable in a filter.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "<>"
	OpGt Op = ">"
	OpGe Op = ">="
	OpLt Op = "<"
	OpLe Op = "<="
	OpIn Op = "IN"
)

// Filter is a single WHERE condition. Filters combine with AND.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Filter { return Filter{Column: column, Op: OpEq, Value: value} }
func Ne(column string, value any) Filter { return Filter{Column: column, Op: OpNe, Value: value} }
func Gt(column string, value any) Filter { return Filter{Column: column, Op: OpGt, Value: value} }
func Ge(column string, value any) Filter { return Filter{Column: column, Op: OpGe, Value: value} }
func Lt(column string, value any) Filter { return Filter{Column: column, Op: OpLt, Value: value} }
func Le(column string, value any) Filter { return Filter{Column: column, Op: OpLe, Value: value} }

func In(column string, values ...any) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

// Direction is a sort direction for an ORDER BY clause.
type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// OrderBy names a column and the direction to sort it by.
type OrderBy struct {
	Column    string
	Direction Direction
}

func Asc(column string) OrderBy  { return OrderBy{Column: column, Direction: DirectionAsc} }
func Desc(column string) OrderBy { return OrderBy{Column: column, Direction: DirectionDesc} }

// SelectOptions describes a SELECT statement.
type SelectOptions struct {
	Table   string
	Columns []string
	Filters []Filter
	OrderBy []OrderBy
}

// UpdateOptions describes an UPDATE statement. Values are rendered in
// sorted column order so the generated SQL is deterministic.
type UpdateOptions struct {
	Table   string
	Filters []Filter
	Values  map[string]any
}

// DeleteOptions describes a DELETE statement.
type DeleteOptions struct {
	Table   string
	Filters []Filter
}

// InsertMode selects the conflict behavior of an INSERT.
type InsertMode string

const (
	// InsertPlain is a regular INSERT with no conflict clause.
	InsertPlain InsertMode = "insert"
	// InsertOrIgnore drops the row when it conflicts with an existing one.
	InsertOrIgnore InsertMode = "insert_or_ignore"
	// InsertOrUpdate updates the conflicting row with the new values.
	InsertOrUpdate InsertMode = "insert_or_update"
)

// InsertOptions describes an INSERT statement. Rows hold values in
// Columns order. Conflict names the columns that identify a duplicate;
// it is required for the upsert modes, which accept a single row. An
// empty Mode defaults to InsertOrIgnore when Conflict is set and to
// InsertPlain otherwise.
type InsertOptions struct {
	Table    string
	Columns  []string
	Rows     [][]any
	Mode     InsertMode
	Conflict []string
}

// ExceptOptions describes a key-difference query: values of Key present
// in Table but absent from OtherKey of OtherTable.
type ExceptOptions struct {
	Table      string
	Key        string
	OtherTable string
	OtherKey   string
}
