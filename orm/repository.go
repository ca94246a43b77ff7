package orm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fizzify/fizzify/orm/statement"
)

var (
	ErrQueryFailed = errors.New("orm: query failed")
	ErrNilModel    = errors.New("orm: nil model")
)

// Repository provides CRUD operations for one model type. All statements
// are rendered for the manager's dialect and execute through the context
// transaction when one is present.
type Repository[T any] struct {
	manager *Manager
	schema  Schema[T]
	gen     *statement.Generator
}

func NewRepository[T any](m *Manager, schema Schema[T]) *Repository[T] {
	return &Repository[T]{
		manager: m,
		schema:  schema,
		gen:     statement.NewGenerator(m.Dialect()),
	}
}

// Table returns the table the repository operates on.
func (r *Repository[T]) Table() Table {
	return r.schema.Table
}

// CreateTable creates the model's table if it does not exist yet.
func (r *Repository[T]) CreateTable(ctx context.Context) error {
	query := r.createTableSQL()
	if err := r.exec(ctx, query, nil); err != nil {
		return fmt.Errorf("%w: create table %s: %v", ErrQueryFailed, r.schema.Table.Name, err)
	}
	return nil
}

// DropTable removes the model's table.
func (r *Repository[T]) DropTable(ctx context.Context) error {
	if err := r.exec(ctx, "DROP TABLE "+r.schema.Table.Name, nil); err != nil {
		return fmt.Errorf("%w: drop table %s: %v", ErrQueryFailed, r.schema.Table.Name, err)
	}
	return nil
}

// FindOne returns the first row matching the filters, or nil when none
// matches.
func (r *Repository[T]) FindOne(ctx context.Context, filters ...statement.Filter) (*T, error) {
	results, err := r.FindAll(ctx, filters...)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// FindAll returns all rows matching the filters.
func (r *Repository[T]) FindAll(ctx context.Context, filters ...statement.Filter) ([]T, error) {
	return r.find(ctx, nil, filters)
}

// FindAllSorted returns all rows matching the filters in the given order.
func (r *Repository[T]) FindAllSorted(ctx context.Context, orderBy []statement.OrderBy, filters ...statement.Filter) ([]T, error) {
	return r.find(ctx, orderBy, filters)
}

func (r *Repository[T]) find(ctx context.Context, orderBy []statement.OrderBy, filters []statement.Filter) ([]T, error) {
	query, args, err := r.gen.Select(statement.SelectOptions{
		Table:   r.schema.Table.Name,
		Columns: r.schema.Table.ColumnNames(),
		Filters: filters,
		OrderBy: orderBy,
	})
	if err != nil {
		return nil, err
	}

	r.manager.echoStatement(query, args)
	exec := ExecutorFromContext(ctx, r.manager.DB())
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: find %s: %v", ErrQueryFailed, r.schema.Table.Name, err)
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		var m T
		if err := rows.Scan(r.schema.Fields(&m)...); err != nil {
			return nil, fmt.Errorf("orm: scan %s row: %w", r.schema.Table.Name, err)
		}
		results = append(results, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orm: iterate over %s rows: %w", r.schema.Table.Name, err)
	}

	return results, nil
}

// Save inserts the model as a new row.
func (r *Repository[T]) Save(ctx context.Context, m *T) error {
	return r.insert(ctx, statement.InsertPlain, m)
}

// InsertOrIgnore inserts the model, dropping it silently when it
// conflicts with an existing row on the table's conflict columns.
func (r *Repository[T]) InsertOrIgnore(ctx context.Context, m *T) error {
	return r.insert(ctx, statement.InsertOrIgnore, m)
}

// InsertOrUpdate inserts the model, updating the existing row when it
// conflicts on the table's conflict columns.
func (r *Repository[T]) InsertOrUpdate(ctx context.Context, m *T) error {
	return r.insert(ctx, statement.InsertOrUpdate, m)
}

func (r *Repository[T]) insert(ctx context.Context, mode statement.InsertMode, m *T) error {
	if m == nil {
		return ErrNilModel
	}

	query, args, err := r.gen.Insert(statement.InsertOptions{
		Table:    r.schema.Table.Name,
		Columns:  r.schema.Table.ColumnNames(),
		Rows:     [][]any{r.schema.Values(m)},
		Mode:     mode,
		Conflict: r.schema.Table.ConflictColumns(),
	})
	if err != nil {
		return err
	}

	if err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("%w: insert into %s: %v", ErrQueryFailed, r.schema.Table.Name, err)
	}
	return nil
}

// InsertMany inserts all models with a single multi-row INSERT.
func (r *Repository[T]) InsertMany(ctx context.Context, models []T) error {
	if len(models) == 0 {
		return nil
	}

	rows := make([][]any, len(models))
	for i := range models {
		rows[i] = r.schema.Values(&models[i])
	}

	query, args, err := r.gen.Insert(statement.InsertOptions{
		Table:   r.schema.Table.Name,
		Columns: r.schema.Table.ColumnNames(),
		Rows:    rows,
	})
	if err != nil {
		return err
	}

	if err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("%w: insert many into %s: %v", ErrQueryFailed, r.schema.Table.Name, err)
	}
	return nil
}

// Update sets the given column values on every row matching the filters.
func (r *Repository[T]) Update(ctx context.Context, values map[string]any, filters ...statement.Filter) error {
	query, args, err := r.gen.Update(statement.UpdateOptions{
		Table:   r.schema.Table.Name,
		Filters: filters,
		Values:  values,
	})
	if err != nil {
		return err
	}

	if err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("%w: update %s: %v", ErrQueryFailed, r.schema.Table.Name, err)
	}
	return nil
}

// DeleteOne removes the rows matching the filters.
func (r *Repository[T]) DeleteOne(ctx context.Context, filters ...statement.Filter) error {
	query, args, err := r.gen.Delete(statement.DeleteOptions{
		Table:   r.schema.Table.Name,
		Filters: filters,
	})
	if err != nil {
		return err
	}

	if err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("%w: delete from %s: %v", ErrQueryFailed, r.schema.Table.Name, err)
	}
	return nil
}

// Except returns the values of key present in this repository's table but
// absent from otherKey of the other table.
func (r *Repository[T]) Except(ctx context.Context, key string, other Table, otherKey string) ([]string, error) {
	query, err := r.gen.Except(statement.ExceptOptions{
		Table:      r.schema.Table.Name,
		Key:        key,
		OtherTable: other.Name,
		OtherKey:   otherKey,
	})
	if err != nil {
		return nil, err
	}

	r.manager.echoStatement(query, nil)
	exec := ExecutorFromContext(ctx, r.manager.DB())
	rows, err := exec.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: except %s: %v", ErrQueryFailed, r.schema.Table.Name, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("orm: scan %s key: %w", r.schema.Table.Name, err)
		}
		values = append(values, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orm: iterate over %s keys: %w", r.schema.Table.Name, err)
	}

	return values, nil
}

func (r *Repository[T]) exec(ctx context.Context, query string, args []any) error {
	r.manager.echoStatement(query, args)
	exec := ExecutorFromContext(ctx, r.manager.DB())
	_, err := exec.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository[T]) createTableSQL() string {
	t := r.schema.Table

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if r.gen.Dialect() != statement.SQLServer {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(t.Name)
	sb.WriteString(" (")

	// Single-column keys render inline so simpler engines accept them;
	// composite keys fall back to table-level constraints.
	inlinePK := len(t.PrimaryKey) == 1
	inlineUnique := len(t.Unique) == 1

	for i, col := range t.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col.Name)
		sb.WriteString(" ")
		sb.WriteString(col.Type)

		isPK := isPrimaryKey(t, col.Name)
		if !col.Nullable && !isPK {
			sb.WriteString(" NOT NULL")
		}
		if col.Default != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(col.Default)
		}
		if inlinePK && isPK {
			sb.WriteString(" PRIMARY KEY")
		}
		if inlineUnique && col.Name == t.Unique[0] {
			sb.WriteString(" UNIQUE")
		}
	}

	if !inlinePK && len(t.PrimaryKey) > 0 {
		sb.WriteString(", PRIMARY KEY (")
		sb.WriteString(strings.Join(t.PrimaryKey, ", "))
		sb.WriteString(")")
	}
	if !inlineUnique && len(t.Unique) > 0 {
		sb.WriteString(", UNIQUE (")
		sb.WriteString(strings.Join(t.Unique, ", "))
		sb.WriteString(")")
	}

	sb.WriteString(")")
	return sb.String()
}

func isPrimaryKey(t Table, column string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == column {
			return true
		}
	}
	return false
}
