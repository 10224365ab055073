package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/eksirss/eksi/internal/fetch"
)

// FetchRecord is one row of the fetch log.
type FetchRecord struct {
	ID         int64
	URL        string
	Status     int
	Bytes      int
	DurationMs int64
	Err        string
	CreatedAt  time.Time
}

// FetchLog records every origin fetch in SQLite. It implements
// fetch.Recorder; logging failures are reported via slog, never propagated,
// because observability must not break feed assembly.
type FetchLog struct {
	db     *sql.DB
	logger *slog.Logger
}

const fetchLogSchema = `
CREATE TABLE IF NOT EXISTS fetch_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	url         TEXT NOT NULL,
	status      INTEGER NOT NULL DEFAULT 0,
	bytes       INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fetch_log_created ON fetch_log(created_at);
`

// NewFetchLog creates a FetchLog on an open database.
func NewFetchLog(db *sql.DB, logger *slog.Logger) *FetchLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchLog{db: db, logger: logger}
}

// Init creates the fetch_log table. Idempotent.
func (l *FetchLog) Init() error {
	if _, err := l.db.Exec(fetchLogSchema); err != nil {
		return fmt.Errorf("store: fetch log schema: %w", err)
	}
	return nil
}

// Record implements fetch.Recorder.
func (l *FetchLog) Record(ctx context.Context, rec fetch.Record) {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO fetch_log (url, status, bytes, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.URL, rec.Status, rec.Bytes, rec.Duration.Milliseconds(), rec.Err,
		time.Now().UnixMilli())
	if err != nil {
		l.logger.Warn("fetch log insert failed", "url", rec.URL, "error", err)
	}
}

// Recent returns the newest records, most recent first.
func (l *FetchLog) Recent(ctx context.Context, limit int) ([]FetchRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, url, status, bytes, duration_ms, error, created_at
		FROM fetch_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: fetch log query: %w", err)
	}
	defer rows.Close()

	var recs []FetchRecord
	for rows.Next() {
		var r FetchRecord
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.URL, &r.Status, &r.Bytes, &r.DurationMs, &r.Err, &createdAt); err != nil {
			return nil, fmt.Errorf("store: fetch log scan: %w", err)
		}
		r.CreatedAt = time.UnixMilli(createdAt)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
