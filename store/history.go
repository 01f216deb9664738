// Package store keeps a history of delta runs in SQLite so lap times can be compared across sessions.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var log = logrus.WithField("component", "store")

// History is a SQLite-backed run log.
type History struct {
	db *sql.DB
}

// Run is one delta computation over a session.
type Run struct {
	ID              string
	CreatedAt       time.Time
	SessionDir      string
	ReferenceLap    int
	ReferencePath   string
	ReferenceTimeMs int64
	GridPoints      int
	Pairing         string
	Laps            []LapResult
}

// LapResult is one lap's outcome within a run. Laps are keyed by file path within a run,
// since two files of a session may carry the same lap index.
type LapResult struct {
	LapIndex     int
	Path         string
	LapTimeMs    int64
	IsReference  bool
	FinalDeltaMs int64
	MaxGainMs    int64
	MaxLossMs    int64
	SectorTimes  []float64
}

// Open opens (or creates) the history database at path and applies pending migrations.
// ":memory:" gives a throwaway database.
func Open(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open history db")
	}
	// one connection keeps :memory: databases alive and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable foreign keys")
	}

	h := &History{db: db}
	if err := h.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func (h *History) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "load migrations")
	}
	driver, err := sqlite.WithInstance(h.db, &sqlite.Config{})
	if err != nil {
		return errors.Wrap(err, "create sqlite migrate driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return errors.Wrap(err, "create migrate instance")
	}
	m.Log = migrateLogger{}
	// m is not closed: closing it would close the shared *sql.DB.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migration up failed")
	}
	return nil
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	log.Debugf("[migrate] "+format, v...)
}

func (migrateLogger) Verbose() bool { return false }

// Close releases the database.
func (h *History) Close() error {
	return h.db.Close()
}

// RecordRun stores a run and its lap results in one transaction. An empty ID is filled with
// a new UUID; the stored ID is returned.
func (h *History) RecordRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(run_id, created_unix_ns, session_dir, reference_lap, reference_path, reference_time_ms, grid_points, pairing)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixNano(), run.SessionDir, run.ReferenceLap, run.ReferencePath, run.ReferenceTimeMs, run.GridPoints, run.Pairing)
	if err != nil {
		return "", errors.Wrap(err, "insert run")
	}

	for _, lap := range run.Laps {
		sectors := lap.SectorTimes
		if sectors == nil {
			sectors = []float64{}
		}
		sectorJSON, err := json.Marshal(sectors)
		if err != nil {
			return "", errors.Wrapf(err, "encode sectors of lap %d", lap.LapIndex)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO lap_results
			(run_id, lap_index, lap_path, lap_time_ms, is_reference, final_delta_ms, max_gain_ms, max_loss_ms, sector_times)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, lap.LapIndex, lap.Path, lap.LapTimeMs, lap.IsReference, lap.FinalDeltaMs, lap.MaxGainMs, lap.MaxLossMs, string(sectorJSON))
		if err != nil {
			return "", errors.Wrapf(err, "insert lap %d (%s)", lap.LapIndex, lap.Path)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "commit")
	}
	return run.ID, nil
}

// Runs returns the most recent runs, newest first, with their lap results.
func (h *History) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, `SELECT run_id, created_unix_ns, session_dir, reference_lap,
			reference_path, reference_time_ms, grid_points, pairing
		FROM runs ORDER BY created_unix_ns DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			created int64
		)
		if err := rows.Scan(&r.ID, &created, &r.SessionDir, &r.ReferenceLap, &r.ReferencePath, &r.ReferenceTimeMs, &r.GridPoints, &r.Pairing); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan run")
		}
		r.CreatedAt = time.Unix(0, created)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range runs {
		laps, err := h.lapResults(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Laps = laps
	}
	return runs, nil
}

func (h *History) lapResults(ctx context.Context, runID string) ([]LapResult, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT lap_index, lap_path, lap_time_ms, is_reference, final_delta_ms,
			max_gain_ms, max_loss_ms, sector_times
		FROM lap_results WHERE run_id = ? ORDER BY lap_index, lap_path`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "query laps of run %s", runID)
	}
	defer rows.Close()

	var out []LapResult
	for rows.Next() {
		var (
			l          LapResult
			sectorJSON string
		)
		if err := rows.Scan(&l.LapIndex, &l.Path, &l.LapTimeMs, &l.IsReference, &l.FinalDeltaMs, &l.MaxGainMs, &l.MaxLossMs, &sectorJSON); err != nil {
			return nil, errors.Wrap(err, "scan lap result")
		}
		if err := json.Unmarshal([]byte(sectorJSON), &l.SectorTimes); err != nil {
			return nil, errors.Wrapf(err, "decode sectors of lap %d", l.LapIndex)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// BestLapTime returns the fastest reference lap recorded for a session directory.
func (h *History) BestLapTime(ctx context.Context, sessionDir string) (int64, bool, error) {
	var best sql.NullInt64
	err := h.db.QueryRowContext(ctx,
		`SELECT MIN(reference_time_ms) FROM runs WHERE session_dir = ?`, sessionDir).Scan(&best)
	if err != nil {
		return 0, false, errors.Wrap(err, "query best lap")
	}
	return best.Int64, best.Valid, nil
}
