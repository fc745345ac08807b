package database

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestEnsureSchema_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS advertisement")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE UNIQUE INDEX IF NOT EXISTS app_advs_id ON advertisement (id)")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := EnsureSchema(context.Background(), db, "postgres"); err != nil {
		t.Fatalf("EnsureSchema returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestEnsureSchema_MySQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UNIQUE KEY app_advs_id (id)")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := EnsureSchema(context.Background(), db, "mysql"); err != nil {
		t.Fatalf("EnsureSchema returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestEnsureSchema_UnknownDriver(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	if err := EnsureSchema(context.Background(), db, "oracle"); err == nil {
		t.Error("Expected error for unknown driver")
	}
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (id INT);\n\n CREATE INDEX i ON a (id);\n")
	if len(stmts) != 2 {
		t.Fatalf("Expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[1] != "CREATE INDEX i ON a (id)" {
		t.Errorf("Unexpected statement: %q", stmts[1])
	}
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	if _, err := NewDatabase("oracle", "dsn", PoolOptions{}); err == nil {
		t.Error("Expected error for unknown driver")
	}
}
