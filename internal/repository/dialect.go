package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

const (
	mysqlDuplicateEntry     = 1062
	postgresUniqueViolation = "23505"
)

// Dialect holds the statements that differ between the supported engines.
type Dialect struct {
	Name string

	insert       string
	insertWithID string
	selectByID   string
	deleteByID   string

	// returning is true when inserts report the new id through RETURNING
	// instead of LastInsertId.
	returning bool

	isUniqueViolation func(error) bool
}

var mysqlDialect = Dialect{
	Name:              DriverMySQL,
	insert:            "INSERT INTO advertisement (title, description) VALUES (?, ?)",
	insertWithID:      "INSERT INTO advertisement (id, title, description) VALUES (?, ?, ?)",
	selectByID:        "SELECT id, title, description FROM advertisement WHERE id = ?",
	deleteByID:        "DELETE FROM advertisement WHERE id = ?",
	isUniqueViolation: isMySQLDuplicate,
}

var postgresDialect = Dialect{
	Name:              DriverPostgres,
	insert:            "INSERT INTO advertisement (title, description) VALUES ($1, $2) RETURNING id",
	insertWithID:      "INSERT INTO advertisement (id, title, description) VALUES ($1, $2, $3) RETURNING id",
	selectByID:        "SELECT id, title, description FROM advertisement WHERE id = $1",
	deleteByID:        "DELETE FROM advertisement WHERE id = $1",
	returning:         true,
	isUniqueViolation: isPostgresUniqueViolation,
}

// DialectFor returns the dialect for a configured driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverMySQL:
		return mysqlDialect, nil
	case DriverPostgres:
		return postgresDialect, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func isMySQLDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

func isPostgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == postgresUniqueViolation
}
