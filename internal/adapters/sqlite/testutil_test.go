// Package sqlite_test contains integration tests for SQLite repositories.
//
// This file is the SINGLE POINT where the database schema is loaded for
// tests. All test setup uses db.GetSchemaSQL() so tests run against the
// authoritative schema; hardcoded CREATE TABLE statements would drift.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/flowtrack/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedFlow inserts a test flow and returns its ID.
func seedFlow(t *testing.T, db *sql.DB, id, title string) string {
	t.Helper()
	if id == "" {
		id = "FLOW-001"
	}
	if title == "" {
		title = "Test Flow"
	}
	_, err := db.Exec("INSERT INTO flows (id, title, rule_kind) VALUES (?, ?, 'every_day')", id, title)
	if err != nil {
		t.Fatalf("failed to seed flow: %v", err)
	}
	return id
}

// seedMutation inserts a test queue row and returns its ID.
func seedMutation(t *testing.T, db *sql.DB, id, entityID, operation string) string {
	t.Helper()
	if id == "" {
		id = "MUT-001"
	}
	if entityID == "" {
		entityID = "FLOW-001"
	}
	if operation == "" {
		operation = "create"
	}
	_, err := db.Exec(
		"INSERT INTO sync_queue (id, entity_type, entity_id, operation, payload, idempotency_key) VALUES (?, 'flow', ?, ?, '{}', ?)",
		id, entityID, operation, "key-"+id,
	)
	if err != nil {
		t.Fatalf("failed to seed mutation: %v", err)
	}
	return id
}
