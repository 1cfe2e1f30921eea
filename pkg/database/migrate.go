package database

import (
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the embedded schema. Every statement is IF NOT EXISTS, so
// re-running against an existing database is a no-op.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// EnsureFTS creates the FTS5 virtual tables. FTS5 may not be compiled into
// the sqlite build; callers treat a false return as "run without the
// accelerator", never as a failure.
func EnsureFTS(db *sql.DB) bool {
	stmts := []string{
		`CREATE VIRTUAL TABLE IF NOT EXISTS talk_sentence_fts USING fts5(speaker, text);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS mission_fts USING fts5(name, mission_type UNINDEXED);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS avatar_fts USING fts5(name, full_name, damage_type UNINDEXED, base_type UNINDEXED);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS item_fts USING fts5(name, description);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return false
		}
	}
	return true
}
