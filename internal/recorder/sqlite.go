package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	_ "modernc.org/sqlite"

	"EventStudy/internal/model"
)

// SQLiteRecorder persists the study log to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the service writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS studies (
			id               TEXT PRIMARY KEY,
			timestamp        INTEGER NOT NULL,
			symbol           TEXT,
			origin           TEXT,
			source           TEXT,
			date_of_interest TEXT,
			upper_window     INTEGER,
			lower_window     INTEGER,
			metrics          TEXT,
			input_rows       INTEGER,
			output_rows      INTEGER,
			duration_ms      REAL,
			error            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_studies_ts ON studies(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_studies_symbol ON studies(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordStudy inserts rec, filling in ID and Timestamp when they are unset.
func (r *SQLiteRecorder) RecordStudy(ctx context.Context, rec *StudyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	metrics := make([]string, len(rec.Metrics))
	for i, m := range rec.Metrics {
		metrics[i] = string(m)
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO studies
		(id, timestamp, symbol, origin, source, date_of_interest,
		 upper_window, lower_window, metrics, input_rows, output_rows,
		 duration_ms, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.Timestamp.Unix(), rec.Symbol, rec.Origin, rec.Source,
		rec.DateOfInterest.Format(model.DateLayout),
		rec.UpperWindow, rec.LowerWindow, strings.Join(metrics, ","),
		rec.InputRows, rec.OutputRows,
		float64(rec.Duration)/float64(time.Millisecond), rec.Error,
	)
	if err != nil {
		return fmt.Errorf("insert study: %w", err)
	}
	return nil
}

// Recent returns up to limit studies, newest first.
func (r *SQLiteRecorder) Recent(ctx context.Context, limit int) ([]StudyRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, timestamp, symbol, origin, source, date_of_interest,
		upper_window, lower_window, metrics, input_rows, output_rows,
		duration_ms, error
		FROM studies ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query studies: %w", err)
	}
	defer rows.Close()

	out := []StudyRecord{}
	for rows.Next() {
		var (
			rec        StudyRecord
			ts         int64
			doi        string
			metrics    string
			durationMS float64
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Symbol, &rec.Origin, &rec.Source, &doi,
			&rec.UpperWindow, &rec.LowerWindow, &metrics, &rec.InputRows, &rec.OutputRows,
			&durationMS, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan study: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0)
		if t, err := time.Parse(model.DateLayout, doi); err == nil {
			rec.DateOfInterest = t
		}
		if metrics != "" {
			for _, m := range strings.Split(metrics, ",") {
				rec.Metrics = append(rec.Metrics, model.Metric(m))
			}
		}
		rec.Duration = time.Duration(durationMS * float64(time.Millisecond))
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PruneBefore deletes studies recorded before cutoff.
func (r *SQLiteRecorder) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM studies WHERE timestamp < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune studies: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
