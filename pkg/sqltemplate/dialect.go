package sqltemplate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ekaya-inc/ekaya-mapper/pkg/apperrors"
)

// Dialect selects the positional placeholder style of the prepared output.
// The zero Dialect disables prepared output.
type Dialect string

const (
	DialectNone      Dialect = ""
	DialectPostgres  Dialect = "postgres"
	DialectMySQL     Dialect = "mysql"
	DialectSQLite    Dialect = "sqlite"
	DialectSQLServer Dialect = "sqlserver"
)

// ParseDialect accepts a dialect name case-insensitively. "postgresql" and
// "mssql" are accepted as aliases. An empty name yields DialectNone.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return DialectNone, nil
	case "postgres", "postgresql":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	case "sqlite":
		return DialectSQLite, nil
	case "sqlserver", "mssql":
		return DialectSQLServer, nil
	}
	return DialectNone, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedDialect, name)
}

// Valid reports whether d is one of the known dialects or DialectNone.
func (d Dialect) Valid() bool {
	switch d {
	case DialectNone, DialectPostgres, DialectMySQL, DialectSQLite, DialectSQLServer:
		return true
	}
	return false
}

// Placeholder returns the parameter placeholder for the given 1-based index.
// Postgres uses $1, SQL Server uses @p1, MySQL and SQLite use ?.
func (d Dialect) Placeholder(index int) string {
	switch d {
	case DialectPostgres:
		return "$" + strconv.Itoa(index)
	case DialectSQLServer:
		return "@p" + strconv.Itoa(index)
	}
	return "?"
}
