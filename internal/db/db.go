package db

import "database/sql"

// DB wraps the shared sql handle so stores depend on this package
// instead of a bare *sql.DB.
type DB struct {
	*sql.DB
}
