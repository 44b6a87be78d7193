// Package store persists completed runs in a sqlite catalog: one row
// of metadata per run plus the full per-step record table, and exports
// of a run's records to CSV, JSON and Parquet.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/plantsim/plantsim/internal/config"
	"github.com/plantsim/plantsim/internal/model"
	"github.com/plantsim/plantsim/internal/process"
	"github.com/plantsim/plantsim/internal/sim"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at TEXT NOT NULL,
    start_h    REAL NOT NULL,
    end_h      REAL NOT NULL,
    dt_h       REAL NOT NULL,
    solver     TEXT NOT NULL,
    steps      INTEGER NOT NULL,
    aborted    INTEGER NOT NULL DEFAULT 0,
    fault      TEXT,
    kpis       TEXT
);

CREATE TABLE IF NOT EXISTS records (
    run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    step        INTEGER NOT NULL,
    time_h      REAL NOT NULL,
    node        TEXT NOT NULL,
    flowrate    REAL NOT NULL,
    temperature REAL NOT NULL,
    composition TEXT NOT NULL,
    snapshot    TEXT,
    detention_h REAL NOT NULL DEFAULT 0,
    clamps      INTEGER NOT NULL DEFAULT 0,
    degenerate  INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, step, node)
);
CREATE INDEX IF NOT EXISTS idx_records_run_node ON records(run_id, node);
`

// RunMeta is the catalog entry for one stored run.
type RunMeta struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	CreatedAt time.Time          `json:"created_at"`
	Start     float64            `json:"start_h"`
	End       float64            `json:"end_h"`
	Dt        float64            `json:"dt_h"`
	Solver    string             `json:"solver"`
	Steps     int                `json:"steps"`
	Aborted   bool               `json:"aborted"`
	Fault     string             `json:"fault,omitempty"`
	KPIs      map[string]float64 `json:"kpis,omitempty"`
}

// Store is a sqlite-backed run catalog rooted at one directory.
type Store struct {
	db *sql.DB
}

// Open creates the data directory if needed and opens the catalog at
// <dir>/plantsim.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: create data directory: %w", err)
	}
	dbPath := filepath.Join(dir, "plantsim.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// sqlite works best with a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// snapshotJSON mirrors model.Snapshot for the snapshot column.
type snapshotJSON struct {
	Kind   string    `json:"kind"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// SaveRun writes one run and its records, returning the run id. A
// non-nil runErr marks the run aborted; the partial history is stored
// the same way a completed one is.
func (s *Store) SaveRun(ctx context.Context, cfg *config.Config, res *sim.Result, runErr error) (string, error) {
	runID := fmt.Sprintf("%s_%d", cfg.Name, time.Now().Unix())

	kpis, err := json.Marshal(res.KPIs)
	if err != nil {
		return "", fmt.Errorf("store: encode kpis: %w", err)
	}
	fault := ""
	if runErr != nil {
		fault = runErr.Error()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, name, created_at, start_h, end_h, dt_h, solver, steps, aborted, fault, kpis)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, cfg.Name, time.Now().UTC().Format(time.RFC3339),
		cfg.Time.Start, cfg.Time.End, cfg.Time.Dt, cfg.Solver.Method,
		res.Steps, boolInt(runErr != nil), fault, string(kpis))
	if err != nil {
		return "", fmt.Errorf("store: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (run_id, step, time_h, node, flowrate, temperature, composition, snapshot, detention_h, clamps, degenerate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("store: prepare record insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range res.History.Records() {
		comp, err := json.Marshal(r.Flow.Composition)
		if err != nil {
			return "", fmt.Errorf("store: encode composition: %w", err)
		}
		snap, err := json.Marshal(snapshotJSON{
			Kind:   string(r.Snapshot.Kind),
			Labels: r.Snapshot.Labels,
			Values: r.Snapshot.Values,
		})
		if err != nil {
			return "", fmt.Errorf("store: encode snapshot: %w", err)
		}
		_, err = stmt.ExecContext(ctx, runID, r.Step, r.Time, r.Node,
			r.Flow.Flowrate, r.Flow.Temperature, string(comp), string(snap),
			r.Diag.DetentionTime, len(r.Diag.Clamps), boolInt(r.Diag.Degenerate))
		if err != nil {
			return "", fmt.Errorf("store: insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: commit: %w", err)
	}
	return runID, nil
}

// List returns every stored run, newest first.
func (s *Store) List(ctx context.Context) ([]RunMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, start_h, end_h, dt_h, solver, steps, aborted, fault, kpis
		FROM runs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunMeta
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

// LoadRun returns one run's catalog entry.
func (s *Store) LoadRun(ctx context.Context, runID string) (RunMeta, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, start_h, end_h, dt_h, solver, steps, aborted, fault, kpis
		FROM runs WHERE id = ?`, runID)
	meta, err := scanRun(row)
	if err == sql.ErrNoRows {
		return RunMeta{}, fmt.Errorf("store: unknown run: %s", runID)
	}
	return meta, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunMeta, error) {
	var meta RunMeta
	var created, kpis string
	var aborted int
	err := row.Scan(&meta.ID, &meta.Name, &created, &meta.Start, &meta.End,
		&meta.Dt, &meta.Solver, &meta.Steps, &aborted, &meta.Fault, &kpis)
	if err != nil {
		return RunMeta{}, err
	}
	meta.Aborted = aborted != 0
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		meta.CreatedAt = t
	}
	if kpis != "" {
		if err := json.Unmarshal([]byte(kpis), &meta.KPIs); err != nil {
			return RunMeta{}, fmt.Errorf("store: decode kpis for %s: %w", meta.ID, err)
		}
	}
	return meta, nil
}

// LoadRecords returns a run's records in step order. An empty node id
// matches every node.
func (s *Store) LoadRecords(ctx context.Context, runID, node string) ([]sim.Record, error) {
	query := `
		SELECT step, time_h, node, flowrate, temperature, composition, snapshot, detention_h, degenerate
		FROM records WHERE run_id = ?`
	args := []any{runID}
	if node != "" {
		query += ` AND node = ?`
		args = append(args, node)
	}
	query += ` ORDER BY step, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: load records: %w", err)
	}
	defer rows.Close()

	var recs []sim.Record
	for rows.Next() {
		var r sim.Record
		var comp, snap string
		var detention float64
		var degenerate int
		err := rows.Scan(&r.Step, &r.Time, &r.Node, &r.Flow.Flowrate,
			&r.Flow.Temperature, &comp, &snap, &detention, &degenerate)
		if err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(comp), &r.Flow.Composition); err != nil {
			return nil, fmt.Errorf("store: decode composition: %w", err)
		}
		if snap != "" {
			var sj snapshotJSON
			if err := json.Unmarshal([]byte(snap), &sj); err != nil {
				return nil, fmt.Errorf("store: decode snapshot: %w", err)
			}
			r.Snapshot = model.Snapshot{Kind: model.SnapshotKind(sj.Kind), Labels: sj.Labels, Values: sj.Values}
		}
		r.Diag = process.Diagnostics{DetentionTime: detention, Degenerate: degenerate != 0}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// Nodes returns the node ids a run recorded, in first-seen order.
func (s *Store) Nodes(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT node FROM records WHERE run_id = ? GROUP BY node ORDER BY MIN(rowid)`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: load nodes: %w", err)
	}
	defer rows.Close()

	var nodes []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// Delete removes a run and its records.
func (s *Store) Delete(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("store: delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: unknown run: %s", runID)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
