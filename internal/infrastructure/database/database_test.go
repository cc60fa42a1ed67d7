package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// openTestDB opens a fresh database under a per-test temp directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "points.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesFileAndDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state", "points.db")

	db, err := Open(Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file missing after Open(): %v", err)
	}
	if db.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	db.DB = nil
	if err := db.Close(); err != nil {
		t.Errorf("Close() with nil handle error = %v", err)
	}
}

func TestExecAndQuery(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		"CREATE TABLE readings (name TEXT PRIMARY KEY, value REAL NOT NULL)")
	if err != nil {
		t.Fatalf("ExecContext() CREATE error = %v", err)
	}

	if _, err := db.ExecContext(ctx,
		"INSERT INTO readings (name, value) VALUES (?, ?)", "SpaceTemperature", 22.5); err != nil {
		t.Fatalf("ExecContext() INSERT error = %v", err)
	}

	var value float64
	err = db.QueryRowContext(ctx,
		"SELECT value FROM readings WHERE name = ?", "SpaceTemperature").Scan(&value)
	if err != nil {
		t.Fatalf("QueryRowContext() error = %v", err)
	}
	if value != 22.5 {
		t.Errorf("value = %v, want 22.5", value)
	}
}

func TestTransactionCommitAndRollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx,
		"CREATE TABLE readings (name TEXT PRIMARY KEY, value REAL NOT NULL)"); err != nil {
		t.Fatalf("CREATE TABLE error = %v", err)
	}

	// Committed rows survive.
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx() error = %v", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO readings (name, value) VALUES (?, ?)", "Damper", 35); err != nil {
		t.Fatalf("INSERT error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	// Rolled-back rows do not.
	tx, err = db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("second BeginTx() error = %v", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO readings (name, value) VALUES (?, ?)", "Airflow", 120); err != nil {
		t.Fatalf("INSERT error = %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM readings").Scan(&count); err != nil {
		t.Fatalf("COUNT error = %v", err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1 (committed only)", count)
	}
}

func TestStatsSingleWriter(t *testing.T) {
	db := openTestDB(t)

	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}
}
