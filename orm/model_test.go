package orm_test

import (
	"testing"

	"github.com/fizzify/fizzify/orm"
)

type FromSqliteUser struct{}

type user struct{}

func TestTableName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    any
		want string
	}{
		{name: "camel case", v: FromSqliteUser{}, want: "from_sqlite_user"},
		{name: "pointer", v: &FromSqliteUser{}, want: "from_sqlite_user"},
		{name: "single word", v: user{}, want: "user"},
		{name: "anonymous struct has no name", v: struct{ UserID string }{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := orm.TableName(tt.v); got != tt.want {
				t.Errorf("TableName(%T) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

func TestTable_ConflictColumns(t *testing.T) {
	t.Parallel()

	table := orm.Table{
		Name:       "users",
		PrimaryKey: []string{"id"},
		Unique:     []string{"name", "id"},
	}

	got := table.ConflictColumns()
	want := []string{"id", "name"}

	if len(got) != len(want) {
		t.Fatalf("ConflictColumns() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ConflictColumns()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewID(t *testing.T) {
	t.Parallel()

	a, b := orm.NewID(), orm.NewID()
	if a == "" || a == b {
		t.Errorf("NewID() should return unique non-empty values, got %q and %q", a, b)
	}
}
