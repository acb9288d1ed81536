package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means a fresh database.
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates the analysis history tables.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			taken_at            TEXT NOT NULL,
			list_name           TEXT NOT NULL,
			command             TEXT NOT NULL,
			version             TEXT NOT NULL,
			source              TEXT NOT NULL,
			total_stores        INTEGER NOT NULL,
			total_items         INTEGER NOT NULL,
			total_value         REAL NOT NULL,
			efficiency_score    REAL NOT NULL,
			promotion_savings   REAL NOT NULL,
			estimated_minutes   INTEGER NOT NULL,
			estimated_fuel_cost REAL NOT NULL,
			suggestion_count    INTEGER NOT NULL,
			potential_savings   REAL NOT NULL,
			skipped_items       INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS run_suggestions (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			suggestion_id TEXT NOT NULL,
			kind          TEXT NOT NULL,
			item          TEXT NOT NULL,
			impact        INTEGER NOT NULL,
			savings       REAL NOT NULL,
			description   TEXT,
			status        TEXT NOT NULL DEFAULT 'open',
			UNIQUE (run_id, suggestion_id)
		)`,

		`CREATE TABLE IF NOT EXISTS applied_events (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			suggestion_id TEXT NOT NULL,
			action        TEXT NOT NULL,
			savings       REAL NOT NULL,
			occurred_at   TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_list ON runs(list_name)`,
		`CREATE INDEX IF NOT EXISTS idx_run_suggestions_run ON run_suggestions(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_applied_events_run ON applied_events(run_id)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
