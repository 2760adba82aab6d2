package internal

import (
	// Blank imports register the database/sql drivers used by the sql and
	// riverqueue transport drivers.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)
