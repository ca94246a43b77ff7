package orm

// Driver registrations for the dialects the configs in this package
// render DSNs for.
import (
	_ "github.com/jackc/pgx/v5/stdlib"    // postgres
	_ "github.com/microsoft/go-mssqldb"   // sqlserver
	_ "github.com/proullon/ramsql/driver" // memory
	_ "modernc.org/sqlite"                // sqlite
)
