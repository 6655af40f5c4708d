// Package archive persists benchmark runs to an embedded SQLite database.
//
// Each run stores the environment record, the engine flags and summary
// figures, and the full sample table, so results survive the process and
// can be compared across machines and revisions later. The database is
// opened in WAL mode for concurrent readers (e.g. `nb archive`) while a
// benchmark is writing.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/steveyegge/nanobench/internal/engine"
	"github.com/steveyegge/nanobench/internal/envinfo"
	"github.com/steveyegge/nanobench/internal/store"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Archive wraps the SQLite connection holding archived runs.
type Archive struct {
	conn *sql.DB
	path string
}

// Open creates or opens the archive database at path. The caller must
// Close it when done.
func Open(path string) (*Archive, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping archive: %w", err)
	}

	a := &Archive{conn: conn, path: path}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := a.conn.Exec(pragma); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if err := a.initSchema(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// Path returns the database file location.
func (a *Archive) Path() string {
	return a.path
}

// Close checkpoints the WAL and closes the connection.
func (a *Archive) Close() error {
	if a.conn == nil {
		return nil
	}
	if _, err := a.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	err := a.conn.Close()
	a.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	return nil
}

// initSchema creates the runs and samples tables. Idempotent.
func (a *Archive) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	os               TEXT NOT NULL,
	arch             TEXT NOT NULL,
	cpu_cores        INTEGER NOT NULL,
	machine          TEXT,
	runtime_sha1     TEXT,
	package_sha1     TEXT,
	word_size        INTEGER NOT NULL,
	precompiled      INTEGER NOT NULL,
	multiple_samples INTEGER NOT NULL,
	search_performed INTEGER NOT NULL,
	time_used_ns     INTEGER NOT NULL,
	n_samples        INTEGER NOT NULL,
	n_evaluations    REAL NOT NULL,
	elapsed_center   REAL NOT NULL,
	elapsed_lower    REAL,
	elapsed_upper    REAL,
	gc_percent       REAL NOT NULL,
	bytes_per_eval   INTEGER NOT NULL,
	allocs_per_eval  INTEGER NOT NULL,
	r_squared        REAL
);

CREATE TABLE IF NOT EXISTS samples (
	run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	idx             INTEGER NOT NULL,
	evaluations     REAL NOT NULL,
	elapsed_time    REAL NOT NULL,
	gc_time         REAL NOT NULL,
	bytes_allocated INTEGER NOT NULL,
	allocations     INTEGER NOT NULL,
	PRIMARY KEY (run_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_runs_name ON runs(name, created_at);
`
	if _, err := a.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize archive schema: %w", err)
	}
	return nil
}

// InsertRun stores one finished benchmark run with its samples in a single
// transaction and returns the run id (the environment record's UUID).
func (a *Archive) InsertRun(ctx context.Context, name string, env envinfo.Record, res *engine.Results, sum *engine.Summary) (string, error) {
	tx, err := a.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO runs (
	id, name, created_at, os, arch, cpu_cores, machine, runtime_sha1,
	package_sha1, word_size, precompiled, multiple_samples,
	search_performed, time_used_ns, n_samples, n_evaluations,
	elapsed_center, elapsed_lower, elapsed_upper, gc_percent,
	bytes_per_eval, allocs_per_eval, r_squared
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		env.UUID, name, env.Timestamp.Format(time.RFC3339Nano),
		env.OS, env.Arch, env.CPUCores, env.Machine,
		env.RuntimeRevision, env.PackageRevision, env.WordSize,
		res.Precompiled, res.MultipleSamples, res.SearchPerformed,
		res.TimeUsed.Nanoseconds(), sum.N, sum.Evaluations,
		sum.Elapsed, nullable(sum.ElapsedLower), nullable(sum.ElapsedUpper),
		sum.GCPercent, sum.BytesPerEval, sum.AllocsPerEval, nullable(sum.R2),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO samples (run_id, idx, evaluations, elapsed_time, gc_time, bytes_allocated, allocations)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	s := res.Samples
	for i := 0; i < s.Len(); i++ {
		_, err := stmt.ExecContext(ctx, env.UUID, i,
			s.Evaluations()[i], s.ElapsedTime()[i], s.GCTime()[i],
			s.BytesAllocated()[i], s.Allocations()[i])
		if err != nil {
			return "", fmt.Errorf("failed to insert sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return env.UUID, nil
}

// RunInfo summarizes one archived run for listings.
type RunInfo struct {
	ID            string
	Name          string
	CreatedAt     time.Time
	OS            string
	Arch          string
	NSamples      int
	Elapsed       float64
	GCPercent     float64
	BytesPerEval  uint64
	AllocsPerEval uint64
	RSquared      *float64
}

// ListRuns returns archived runs, most recent first.
func (a *Archive) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.conn.QueryContext(ctx, `
SELECT id, name, created_at, os, arch, n_samples, elapsed_center,
       gc_percent, bytes_per_eval, allocs_per_eval, r_squared
FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		var created string
		var r2 sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.Name, &created, &r.OS, &r.Arch,
			&r.NSamples, &r.Elapsed, &r.GCPercent,
			&r.BytesPerEval, &r.AllocsPerEval, &r2); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = t
		}
		if r2.Valid {
			v := r2.Float64
			r.RSquared = &v
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadSamples reconstructs the sample store for an archived run.
func (a *Archive) LoadSamples(ctx context.Context, runID string) (*store.Samples, error) {
	rows, err := a.conn.QueryContext(ctx, `
SELECT evaluations, elapsed_time, gc_time, bytes_allocated, allocations
FROM samples WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	s := store.New()
	for rows.Next() {
		var evals, elapsed, gc float64
		var bytes, allocs uint64
		if err := rows.Scan(&evals, &elapsed, &gc, &bytes, &allocs); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		if err := s.Append(evals, elapsed, gc, bytes, allocs); err != nil {
			return nil, err
		}
	}
	return s, rows.Err()
}

// nullable converts an optional float into a driver-level NULL.
func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
