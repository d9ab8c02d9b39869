// Package ledger records generation runs and per-callable outcomes in SQLite.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nodegen/internal/logging"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one generation run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress
	DryRun     bool
	Accepted   int
	Rejected   int
	Skipped    int
}

// Outcome is the terminal state of one callable in a run.
type Outcome struct {
	RunID     string
	Library   string
	Submodule string
	Callable  string
	State     string
	Reason    string
	Detail    string
}

// Store manages the ledger database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the ledger at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; workers record outcomes concurrently.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, dbPath: path}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		dry_run INTEGER NOT NULL DEFAULT 0,
		accepted INTEGER NOT NULL DEFAULT 0,
		rejected INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		library TEXT NOT NULL,
		submodule TEXT NOT NULL,
		callable TEXT NOT NULL,
		state TEXT NOT NULL,
		reason TEXT,
		detail TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_callable ON outcomes(callable);
	`
	_, err := s.db.Exec(schema)
	return err
}

// BeginRun inserts a run row.
func (s *Store) BeginRun(ctx context.Context, id string, dryRun bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, dry_run) VALUES (?, ?, ?)`,
		id, time.Now().UTC().Format(timeLayout), boolToInt(dryRun))
	if err != nil {
		return fmt.Errorf("failed to begin run: %w", err)
	}
	logging.Ledger("run %s started", id)
	return nil
}

// RecordOutcome appends one callable outcome to a run.
func (s *Store) RecordOutcome(ctx context.Context, o Outcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, library, submodule, callable, state, reason, detail) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.RunID, o.Library, o.Submodule, o.Callable, o.State, o.Reason, o.Detail)
	if err != nil {
		return fmt.Errorf("failed to record outcome for %s: %w", o.Callable, err)
	}
	return nil
}

// FinishRun stamps the run with its totals.
func (s *Store) FinishRun(ctx context.Context, id string, accepted, rejected, skipped int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, accepted = ?, rejected = ?, skipped = ? WHERE id = ?`,
		time.Now().UTC().Format(timeLayout), accepted, rejected, skipped, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	logging.Ledger("run %s finished: %d accepted, %d rejected, %d skipped", id, accepted, rejected, skipped)
	return nil
}

// Runs returns the most recent runs first. limit <= 0 returns all of them.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, finished_at, dry_run, accepted, rejected, skipped FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished sql.NullString
			dryRun   int
		)
		if err := rows.Scan(&r.ID, &started, &finished, &dryRun, &r.Accepted, &r.Rejected, &r.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.DryRun = dryRun != 0
		r.StartedAt = parseTime(started)
		if finished.Valid {
			r.FinishedAt = parseTime(finished.String)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outcomes returns the outcomes of a run in recording order.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, library, submodule, callable, state, COALESCE(reason, ''), COALESCE(detail, '') FROM outcomes WHERE run_id = ? ORDER BY id`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.RunID, &o.Library, &o.Submodule, &o.Callable, &o.State, &o.Reason, &o.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		logging.LedgerWarn("bad timestamp %q: %v", s, err)
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
