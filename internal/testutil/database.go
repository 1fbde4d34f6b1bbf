package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB configura una base de datos de prueba
// Espera que exista una BD MySQL en localhost:3306 llamada 'autoshop_test'
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := "root:@tcp(localhost:3306)/autoshop_test?parseTime=true"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Verify connection
	err = db.Ping()
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB limpia la BD de prueba
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{"ClientStorage"}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables crea las tablas necesarias para los tests
func SetupTestTables(t *testing.T, db *sql.DB) {
	createClientStorageTable := `
	CREATE TABLE IF NOT EXISTS ClientStorage (
		clientId VARCHAR(64) NOT NULL,
		storageKey VARCHAR(64) NOT NULL,
		value TEXT NOT NULL,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (clientId, storageKey)
	)`

	tables := []struct {
		name  string
		query string
	}{
		{"ClientStorage", createClientStorageTable},
	}

	for _, tbl := range tables {
		_, err := db.Exec(tbl.query)
		if err != nil {
			t.Logf("failed to create table %s: %v", tbl.name, err)
		}
	}
}
