// Package store keeps a history of PageRank runs in a local SQLite database:
// the run summary, its perplexity trace, and the top of its rank list.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/linkrank/internal/pagerank"
	"github.com/papapumpkin/linkrank/internal/report"
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("run not found")

// schema contains the DDL executed on open. Using IF NOT EXISTS makes it
// safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    input         TEXT NOT NULL,
    created_at    TEXT NOT NULL,
    nodes         INTEGER NOT NULL,
    sinks         INTEGER NOT NULL,
    no_inlinks    INTEGER NOT NULL,
    below_initial INTEGER NOT NULL,
    iterations    INTEGER NOT NULL,
    perplexity    REAL NOT NULL,
    converged     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS perplexity (
    run_id     INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    iteration  INTEGER NOT NULL,
    perplexity REAL NOT NULL,
    sink_mass  REAL NOT NULL,
    PRIMARY KEY (run_id, iteration)
);

CREATE TABLE IF NOT EXISTS ranks (
    run_id   INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    page_id  TEXT NOT NULL,
    rank     REAL NOT NULL,
    PRIMARY KEY (run_id, position)
);
`

// Run is one stored computation.
type Run struct {
	ID           int64
	Input        string
	CreatedAt    time.Time
	Nodes        int
	Sinks        int
	NoInlinks    int
	BelowInitial int
	Iterations   int
	Perplexity   float64
	Converged    bool

	Trace []pagerank.Progress
	Top   []report.RankEntry
}

// FromReport builds a Run from a finished report and its perplexity trace.
func FromReport(r report.Report, trace []pagerank.Progress) Run {
	return Run{
		Input:        r.Input,
		CreatedAt:    r.GeneratedAt,
		Nodes:        r.Nodes,
		Sinks:        r.Sinks,
		NoInlinks:    r.NoInlinks,
		BelowInitial: r.BelowInitial,
		Iterations:   r.Iterations,
		Perplexity:   r.Perplexity,
		Converged:    r.Converged,
		Trace:        trace,
		Top:          r.TopRank,
	}
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path, enables WAL mode and a busy
// timeout, and creates the schema if needed.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// SQLite has a single writer; one connection keeps PRAGMAs consistent.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun inserts the run with its trace and top ranks in one transaction
// and returns the new run ID.
func (s *Store) SaveRun(ctx context.Context, r Run) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (input, created_at, nodes, sinks, no_inlinks, below_initial, iterations, perplexity, converged)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Input, created.UTC().Format(time.RFC3339Nano), r.Nodes, r.Sinks, r.NoInlinks,
		r.BelowInitial, r.Iterations, r.Perplexity, r.Converged)
	if err != nil {
		return 0, fmt.Errorf("store: insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: run id: %w", err)
	}

	if len(r.Trace) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO perplexity (run_id, iteration, perplexity, sink_mass) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("store: prepare trace: %w", err)
		}
		defer stmt.Close()
		for _, p := range r.Trace {
			if _, err := stmt.ExecContext(ctx, id, p.Iteration, p.Perplexity, p.SinkMass); err != nil {
				return 0, fmt.Errorf("store: insert trace %d: %w", p.Iteration, err)
			}
		}
	}

	if len(r.Top) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO ranks (run_id, position, page_id, rank) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("store: prepare ranks: %w", err)
		}
		defer stmt.Close()
		for i, e := range r.Top {
			if _, err := stmt.ExecContext(ctx, id, i+1, e.ID, e.Rank); err != nil {
				return 0, fmt.Errorf("store: insert rank %s: %w", e.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return id, nil
}

const runColumns = `id, input, created_at, nodes, sinks, no_inlinks, below_initial, iterations, perplexity, converged`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r       Run
		created string
	)
	if err := row.Scan(&r.ID, &r.Input, &created, &r.Nodes, &r.Sinks, &r.NoInlinks,
		&r.BelowInitial, &r.Iterations, &r.Perplexity, &r.Converged); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("store: parse created_at %q: %w", created, err)
	}
	r.CreatedAt = t
	return r, nil
}

// ListRuns returns the most recent runs, newest first, without traces or
// rank lists. A limit of zero or less returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run with the given ID, including its trace and ranks.
func (s *Store) GetRun(ctx context.Context, id int64) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("store: get run %d: %w", id, err)
	}
	if r.Trace, err = s.Trace(ctx, id); err != nil {
		return Run{}, err
	}
	if r.Top, err = s.TopRanks(ctx, id, 0); err != nil {
		return Run{}, err
	}
	return r, nil
}

// Trace returns the perplexity trace of a run in iteration order.
func (s *Store) Trace(ctx context.Context, runID int64) ([]pagerank.Progress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT iteration, perplexity, sink_mass FROM perplexity WHERE run_id = ? ORDER BY iteration`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: trace %d: %w", runID, err)
	}
	defer rows.Close()

	var trace []pagerank.Progress
	for rows.Next() {
		var p pagerank.Progress
		if err := rows.Scan(&p.Iteration, &p.Perplexity, &p.SinkMass); err != nil {
			return nil, fmt.Errorf("store: scan trace: %w", err)
		}
		trace = append(trace, p)
	}
	return trace, rows.Err()
}

// TopRanks returns up to k stored rank entries of a run, best first. k of
// zero or less returns all stored entries.
func (s *Store) TopRanks(ctx context.Context, runID int64, k int) ([]report.RankEntry, error) {
	q := `SELECT page_id, rank FROM ranks WHERE run_id = ? ORDER BY position`
	args := []any{runID}
	if k > 0 {
		q += ` LIMIT ?`
		args = append(args, k)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: ranks %d: %w", runID, err)
	}
	defer rows.Close()

	var entries []report.RankEntry
	for rows.Next() {
		var e report.RankEntry
		if err := rows.Scan(&e.ID, &e.Rank); err != nil {
			return nil, fmt.Errorf("store: scan rank: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
