package database

import (
	"fmt"
	"regexp"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var placeholder = regexp.MustCompile(`\$\d+`)

type Dialect struct {
	name string
}

func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
		return Dialect{name: driver}, nil
	}
	return Dialect{}, fmt.Errorf("database: unsupported driver %q", driver)
}

func (d Dialect) Name() string { return d.name }

// Rebind rewrites $n placeholders for the target driver. Statements must use
// each placeholder once, in ascending order.
func (d Dialect) Rebind(stmt string) string {
	if d.name != DriverSQLite {
		return stmt
	}
	return placeholder.ReplaceAllString(stmt, "?")
}

// ClearStatements removes every account and role row.
func (d Dialect) ClearStatements() []string {
	if d.name == DriverSQLite {
		return []string{
			"DELETE FROM students",
			"DELETE FROM teachers",
			"DELETE FROM users",
		}
	}
	return []string{"TRUNCATE users, students, teachers"}
}
