package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/romuloroldao/precivox/internal/suggest"
)

const runColumns = `id, taken_at, list_name, command, version, source, total_stores, total_items,
	total_value, efficiency_score, promotion_savings, estimated_minutes, estimated_fuel_cost,
	suggestion_count, potential_savings, skipped_items`

// RecordRun stores an analysis result and its suggestions and returns the
// new run id.
func (db *DB) RecordRun(listName, command, version string, res suggest.Result) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var potential float64
	for _, s := range res.Suggestions {
		potential += s.Savings
	}

	a := res.Analytics
	result, err := tx.Exec(
		`INSERT INTO runs
		(taken_at, list_name, command, version, source, total_stores, total_items, total_value,
		 efficiency_score, promotion_savings, estimated_minutes, estimated_fuel_cost,
		 suggestion_count, potential_savings, skipped_items)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), listName, command, version, res.Source,
		a.TotalStores, a.TotalItems, a.TotalValue, a.EfficiencyScore, a.PromotionSavings,
		a.EstimatedMinutes, a.EstimatedFuelCost, len(res.Suggestions), potential, len(res.Skipped),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, s := range res.Suggestions {
		status := StatusOpen
		if s.Applied {
			status = StatusApplied
		}
		if _, err := tx.Exec(
			`INSERT INTO run_suggestions
			(run_id, suggestion_id, kind, item, impact, savings, description, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, s.ID, string(s.Kind), s.Item, s.Impact, s.Savings, s.Description, status,
		); err != nil {
			return 0, fmt.Errorf("inserting suggestion %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// GetRun returns a run by id, or nil if it does not exist.
func (db *DB) GetRun(id int64) (*Run, error) {
	row := db.conn.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	return scanRun(row)
}

// GetRunN returns the Nth most recent run of a list (1 = latest), or nil.
func (db *DB) GetRunN(listName string, n int) (*Run, error) {
	row := db.conn.QueryRow(
		"SELECT "+runColumns+" FROM runs WHERE list_name = ? ORDER BY id DESC LIMIT 1 OFFSET ?",
		listName, n-1,
	)
	return scanRun(row)
}

// GetRecentRuns returns up to n runs of a list, newest first. An empty list
// name returns runs of every list.
func (db *DB) GetRecentRuns(listName string, n int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs"
	var args []any
	if listName != "" {
		query += " WHERE list_name = ?"
		args = append(args, listName)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, n)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var takenAt string
	err := row.Scan(
		&r.ID, &takenAt, &r.ListName, &r.Command, &r.Version, &r.Source,
		&r.TotalStores, &r.TotalItems, &r.TotalValue, &r.EfficiencyScore, &r.PromotionSavings,
		&r.EstimatedMinutes, &r.EstimatedFuelCost, &r.SuggestionCount, &r.PotentialSavings,
		&r.SkippedItems,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.TakenAt, _ = time.Parse(time.RFC3339Nano, takenAt)
	return &r, nil
}

// GetRunSuggestions returns the suggestions recorded with a run in their
// ranked order.
func (db *DB) GetRunSuggestions(runID int64) ([]SuggestionRow, error) {
	rows, err := db.conn.Query(
		`SELECT id, run_id, suggestion_id, kind, item, impact, savings, description, status
		 FROM run_suggestions WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []SuggestionRow
	for rows.Next() {
		var s SuggestionRow
		var desc sql.NullString
		if err := rows.Scan(&s.ID, &s.RunID, &s.SuggestionID, &s.Kind, &s.Item,
			&s.Impact, &s.Savings, &desc, &s.Status); err != nil {
			return nil, err
		}
		s.Description = desc.String
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecordEvent stores an apply or revert event and updates the suggestion's
// status for the run.
func (db *DB) RecordEvent(runID int64, suggestionID, action string, savings float64) error {
	status := StatusOpen
	switch action {
	case ActionApply:
		status = StatusApplied
	case ActionRevert:
	default:
		return fmt.Errorf("unknown event action %q", action)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO applied_events (run_id, suggestion_id, action, savings, occurred_at)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, suggestionID, action, savings, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	if _, err := tx.Exec(
		"UPDATE run_suggestions SET status = ? WHERE run_id = ? AND suggestion_id = ?",
		status, runID, suggestionID,
	); err != nil {
		return fmt.Errorf("updating suggestion status: %w", err)
	}
	return tx.Commit()
}

// GetEvents returns the events of a run in the order they happened.
func (db *DB) GetEvents(runID int64) ([]Event, error) {
	rows, err := db.conn.Query(
		`SELECT id, run_id, suggestion_id, action, savings, occurred_at
		 FROM applied_events WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var e Event
		var at string
		if err := rows.Scan(&e.ID, &e.RunID, &e.SuggestionID, &e.Action, &e.Savings, &at); err != nil {
			return nil, err
		}
		e.OccurredAt, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// AppliedSavings returns the savings of the suggestions currently marked
// applied for a run.
func (db *DB) AppliedSavings(runID int64) (float64, error) {
	var total sql.NullFloat64
	err := db.conn.QueryRow(
		"SELECT SUM(savings) FROM run_suggestions WHERE run_id = ? AND status = ?",
		runID, StatusApplied,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}
