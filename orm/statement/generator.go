package statement

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrUnsupportedOptions = errors.New("statement: unsupported options type")
	ErrEmptyValues        = errors.New("statement: no values given")
	ErrNoConflictTarget   = errors.New("statement: upsert requires conflict columns")
	ErrUpsertRowCount     = errors.New("statement: upsert accepts exactly one row")
	ErrUpsertUnsupported  = errors.New("statement: dialect does not support upserts")
)

// Generator renders SQL for a single dialect.
type Generator struct {
	dialect Dialect
}

func NewGenerator(dialect Dialect) *Generator {
	return &Generator{dialect: dialect}
}

func (g *Generator) Dialect() Dialect {
	return g.dialect
}

// Generate renders the statement described by opts. It accepts
// SelectOptions, InsertOptions, UpdateOptions, DeleteOptions and
// ExceptOptions.
func (g *Generator) Generate(opts any) (string, []any, error) {
	switch o := opts.(type) {
	case SelectOptions:
		return g.Select(o)
	case InsertOptions:
		return g.Insert(o)
	case UpdateOptions:
		return g.Update(o)
	case DeleteOptions:
		return g.Delete(o)
	case ExceptOptions:
		sql, err := g.Except(o)
		return sql, nil, err
	default:
		return "", nil, fmt.Errorf("%w: %T", ErrUnsupportedOptions, opts)
	}
}

// placeholder renders the n-th (1-based) bind parameter for the dialect.
func (g *Generator) placeholder(n int) string {
	switch g.dialect {
	case SQLServer:
		return "@p" + strconv.Itoa(n)
	case SQLite:
		return "?"
	default:
		return "$" + strconv.Itoa(n)
	}
}

// Select renders a SELECT statement.
func (g *Generator) Select(opts SelectOptions) (string, []any, error) {
	columns := "*"
	if len(opts.Columns) > 0 {
		columns = strings.Join(opts.Columns, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(columns)
	sb.WriteString(" FROM ")
	sb.WriteString(opts.Table)

	args, err := g.writeWhere(&sb, opts.Filters, 0)
	if err != nil {
		return "", nil, err
	}

	if len(opts.OrderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, ob := range opts.OrderBy {
			if i > 0 {
				sb.WriteString(", ")
			}
			switch ob.Direction {
			case DirectionAsc, "":
				sb.WriteString(ob.Column)
				sb.WriteString(" ASC")
			case DirectionDesc:
				sb.WriteString(ob.Column)
				sb.WriteString(" DESC")
			default:
				return "", nil, fmt.Errorf("statement: unknown sort direction %q", ob.Direction)
			}
		}
	}

	return sb.String(), args, nil
}

// Update renders an UPDATE statement. SET columns appear in sorted order.
func (g *Generator) Update(opts UpdateOptions) (string, []any, error) {
	if len(opts.Values) == 0 {
		return "", nil, ErrEmptyValues
	}

	columns := sortedKeys(opts.Values)

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(opts.Table)
	sb.WriteString(" SET ")

	args := make([]any, 0, len(columns)+len(opts.Filters))
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		args = append(args, opts.Values[col])
		sb.WriteString(col)
		sb.WriteString(" = ")
		sb.WriteString(g.placeholder(len(args)))
	}

	whereArgs, err := g.writeWhere(&sb, opts.Filters, len(args))
	if err != nil {
		return "", nil, err
	}

	return sb.String(), append(args, whereArgs...), nil
}

// Delete renders a DELETE statement.
func (g *Generator) Delete(opts DeleteOptions) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(opts.Table)

	args, err := g.writeWhere(&sb, opts.Filters, 0)
	if err != nil {
		return "", nil, err
	}

	return sb.String(), args, nil
}

// Insert renders an INSERT statement, optionally with the dialect's
// conflict handling for the upsert modes.
func (g *Generator) Insert(opts InsertOptions) (string, []any, error) {
	if len(opts.Rows) == 0 || len(opts.Columns) == 0 {
		return "", nil, ErrEmptyValues
	}

	mode := opts.Mode
	if mode == "" {
		// Inserts with a conflict target ignore duplicates unless a mode
		// says otherwise.
		mode = InsertPlain
		if len(opts.Conflict) > 0 {
			mode = InsertOrIgnore
		}
	}

	if mode == InsertPlain {
		return g.plainInsert(opts)
	}

	if len(opts.Conflict) == 0 {
		return "", nil, ErrNoConflictTarget
	}
	if len(opts.Rows) != 1 {
		return "", nil, ErrUpsertRowCount
	}

	switch g.dialect {
	case Postgres, SQLite:
		return g.onConflictInsert(opts, mode)
	case SQLServer:
		return g.sqlServerUpsert(opts, mode)
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUpsertUnsupported, g.dialect)
	}
}

func (g *Generator) plainInsert(opts InsertOptions) (string, []any, error) {
	var sb strings.Builder
	args := g.writeInsertInto(&sb, opts, 0)
	return sb.String(), args, nil
}

// onConflictInsert renders the postgres/sqlite ON CONFLICT forms.
func (g *Generator) onConflictInsert(opts InsertOptions, mode InsertMode) (string, []any, error) {
	var sb strings.Builder
	args := g.writeInsertInto(&sb, opts, 0)

	sb.WriteString(" ON CONFLICT (")
	sb.WriteString(strings.Join(opts.Conflict, ", "))
	sb.WriteString(")")

	if mode == InsertOrIgnore {
		sb.WriteString(" DO NOTHING")
		return sb.String(), args, nil
	}

	updatable := excludeColumns(opts.Columns, opts.Conflict)
	if len(updatable) == 0 {
		// Every column is part of the conflict target, nothing to update.
		sb.WriteString(" DO NOTHING")
		return sb.String(), args, nil
	}

	sb.WriteString(" DO UPDATE SET ")
	for i, col := range updatable {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col)
		sb.WriteString(" = EXCLUDED.")
		sb.WriteString(col)
	}

	return sb.String(), args, nil
}

// sqlServerUpsert renders IF [NOT] EXISTS guarded forms, since SQL Server
// has no ON CONFLICT clause.
func (g *Generator) sqlServerUpsert(opts InsertOptions, mode InsertMode) (string, []any, error) {
	row := opts.Rows[0]
	if len(row) != len(opts.Columns) {
		return "", nil, fmt.Errorf("statement: row has %d values for %d columns", len(row), len(opts.Columns))
	}

	values := make(map[string]any, len(opts.Columns))
	for i, col := range opts.Columns {
		values[col] = row[i]
	}

	if mode == InsertOrUpdate && len(excludeColumns(opts.Columns, opts.Conflict)) == 0 {
		// Every column is part of the conflict target, nothing to update.
		mode = InsertOrIgnore
	}

	var args []any
	var sb strings.Builder

	writeGuard := func(keyword string) error {
		sb.WriteString("IF ")
		sb.WriteString(keyword)
		sb.WriteString(" (SELECT 1 FROM ")
		sb.WriteString(opts.Table)
		sb.WriteString(" WHERE ")
		for i, col := range opts.Conflict {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			v, ok := values[col]
			if !ok {
				return fmt.Errorf("statement: conflict column %s not in insert columns", col)
			}
			args = append(args, v)
			sb.WriteString(col)
			sb.WriteString(" = ")
			sb.WriteString(g.placeholder(len(args)))
		}
		sb.WriteString(") ")
		return nil
	}

	switch mode {
	case InsertOrIgnore:
		if err := writeGuard("NOT EXISTS"); err != nil {
			return "", nil, err
		}
		args = append(args, g.writeInsertInto(&sb, opts, len(args))...)
		return sb.String(), args, nil

	case InsertOrUpdate:
		if err := writeGuard("EXISTS"); err != nil {
			return "", nil, err
		}

		updatable := excludeColumns(opts.Columns, opts.Conflict)
		sb.WriteString("UPDATE ")
		sb.WriteString(opts.Table)
		sb.WriteString(" SET ")
		for i, col := range updatable {
			if i > 0 {
				sb.WriteString(", ")
			}
			args = append(args, values[col])
			sb.WriteString(col)
			sb.WriteString(" = ")
			sb.WriteString(g.placeholder(len(args)))
		}
		sb.WriteString(" WHERE ")
		for i, col := range opts.Conflict {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			args = append(args, values[col])
			sb.WriteString(col)
			sb.WriteString(" = ")
			sb.WriteString(g.placeholder(len(args)))
		}
		sb.WriteString(" ELSE ")
		args = append(args, g.writeInsertInto(&sb, opts, len(args))...)
		return sb.String(), args, nil

	default:
		return "", nil, fmt.Errorf("statement: unknown insert mode %q", mode)
	}
}

// writeInsertInto appends "INSERT INTO t (cols) VALUES (...)" to sb and
// returns the row arguments. offset is the number of placeholders already
// emitted in the surrounding statement.
func (g *Generator) writeInsertInto(sb *strings.Builder, opts InsertOptions, offset int) []any {
	sb.WriteString("INSERT INTO ")
	sb.WriteString(opts.Table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(opts.Columns, ", "))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(opts.Rows)*len(opts.Columns))
	for i, row := range opts.Rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j, v := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			args = append(args, v)
			sb.WriteString(g.placeholder(offset + len(args)))
		}
		sb.WriteString(")")
	}

	return args
}

// Except renders the key-difference query used by Repository.Except.
func (g *Generator) Except(opts ExceptOptions) (string, error) {
	if opts.Table == "" || opts.OtherTable == "" || opts.Key == "" || opts.OtherKey == "" {
		return "", errors.New("statement: except requires both tables and keys")
	}

	return fmt.Sprintf("SELECT %s FROM %s EXCEPT SELECT %s FROM %s",
		opts.Key, opts.Table, opts.OtherKey, opts.OtherTable), nil
}

// writeWhere appends a WHERE clause for the filters and returns their
// arguments. offset is the number of placeholders already emitted.
func (g *Generator) writeWhere(sb *strings.Builder, filters []Filter, offset int) ([]any, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	sb.WriteString(" WHERE ")

	var args []any
	for i, f := range filters {
		if i > 0 {
			sb.WriteString(" AND ")
		}

		switch f.Op {
		case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
			args = append(args, f.Value)
			sb.WriteString(f.Column)
			sb.WriteString(" ")
			sb.WriteString(string(f.Op))
			sb.WriteString(" ")
			sb.WriteString(g.placeholder(offset + len(args)))

		case OpIn:
			values, ok := f.Value.([]any)
			if !ok || len(values) == 0 {
				return nil, fmt.Errorf("statement: IN filter on %s needs a non-empty value list", f.Column)
			}
			sb.WriteString(f.Column)
			sb.WriteString(" IN (")
			for j, v := range values {
				if j > 0 {
					sb.WriteString(", ")
				}
				args = append(args, v)
				sb.WriteString(g.placeholder(offset + len(args)))
			}
			sb.WriteString(")")

		default:
			return nil, fmt.Errorf("statement: unknown operator %q", f.Op)
		}
	}

	return args, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func excludeColumns(columns, exclude []string) []string {
	var out []string
	for _, col := range columns {
		if !slices.Contains(exclude, col) {
			out = append(out, col)
		}
	}
	return out
}
