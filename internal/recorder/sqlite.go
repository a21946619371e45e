package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/guregu/null/v6"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Recorder = (*SQLiteRecorder)(nil)

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			horizon     INTEGER,
			seed        INTEGER,
			r2          REAL,
			mae         REAL,
			train_size  INTEGER,
			test_size   INTEGER,
			last_close  REAL,
			next_close  REAL,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_forecast_ts ON forecast_runs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_forecast_symbol ON forecast_runs(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS fetch_failures (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			provider  TEXT,
			op        TEXT,
			symbol    TEXT,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_ts ON fetch_failures(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func stamp(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Unix()
}

func (r *SQLiteRecorder) RecordForecast(ctx context.Context, run *ForecastRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `INSERT INTO forecast_runs
		(timestamp, symbol, horizon, seed, r2, mae, train_size, test_size, last_close, next_close, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		stamp(run.At), run.Symbol, run.Horizon, int64(run.Seed), run.R2, run.MAE,
		run.TrainSize, run.TestSize, run.LastClose, run.NextClose, run.Duration.Milliseconds(),
	)
	if err != nil {
		return err
	}
	run.ID, _ = res.LastInsertId()
	return nil
}

func (r *SQLiteRecorder) RecordFetchFailure(ctx context.Context, f *FetchFailure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO fetch_failures
		(timestamp, provider, op, symbol, error)
		VALUES (?,?,?,?,?)`,
		stamp(f.At), f.Provider, f.Op, f.Symbol, f.Error,
	)
	return err
}

// RecentForecasts returns the latest runs for symbol, newest first. An empty
// symbol matches every run.
func (r *SQLiteRecorder) RecentForecasts(ctx context.Context, symbol string, limit int) ([]ForecastRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, timestamp, symbol, horizon, seed, r2, mae,
			train_size, test_size, last_close, next_close, duration_ms
		FROM forecast_runs
		WHERE ? = '' OR symbol = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query forecasts: %w", err)
	}
	defer rows.Close()

	var out []ForecastRun
	for rows.Next() {
		var (
			run    ForecastRun
			ts, ms int64
			seed   int64
			r2     null.Float
		)
		if err := rows.Scan(&run.ID, &ts, &run.Symbol, &run.Horizon, &seed, &r2, &run.MAE,
			&run.TrainSize, &run.TestSize, &run.LastClose, &run.NextClose, &ms); err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		run.At = time.Unix(ts, 0).UTC()
		run.Seed = uint64(seed)
		run.R2 = r2
		run.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Stats(ctx context.Context, since time.Time) (Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM forecast_runs WHERE timestamp >= ?),
		(SELECT COUNT(*) FROM fetch_failures WHERE timestamp >= ?)`,
		since.Unix(), since.Unix()).Scan(&s.ForecastRuns, &s.FetchFailures)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return s, nil
}

// Prune deletes history older than before and reports the rows removed.
func (r *SQLiteRecorder) Prune(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total int64
	for _, table := range []string{"forecast_runs", "fetch_failures"} {
		res, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE timestamp < ?", before.Unix())
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
