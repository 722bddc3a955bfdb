// Package history keeps a SQLite log of finished translation pipelines.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/latextocalc/latextocalc/pkg/models"
	"github.com/latextocalc/latextocalc/pkg/sqlitedb"
)

// Recorder records and queries finished pipelines.
type Recorder interface {
	// Record stores one finished pipeline.
	Record(ctx context.Context, rec models.HistoryRecord) error
	// Recent returns the newest records first.
	Recent(ctx context.Context, limit int) ([]models.HistoryRecord, error)
	// Summary aggregates records by status and endpoint.
	Summary(ctx context.Context) ([]models.HistorySummary, error)
	// Cleanup deletes records older than the retention period.
	Cleanup(ctx context.Context) (int64, error)
	// Close releases resources.
	Close() error
}

// SQLiteRecorder implements Recorder with a SQLite database.
type SQLiteRecorder struct {
	db            *sql.DB
	retentionDays int
	done          chan struct{}
	wg            sync.WaitGroup
	closeOnce     sync.Once
}

const createTable = `
CREATE TABLE IF NOT EXISTS history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL,
	input TEXT NOT NULL,
	output TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	endpoint TEXT NOT NULL DEFAULT '',
	cached INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT '',
	total_ms REAL NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at);
`

// New opens the history database, runs auto-migration and, when
// retentionDays is positive, starts an hourly cleanup loop.
func New(dbPath string, retentionDays int) (*SQLiteRecorder, error) {
	db, err := sqlitedb.Open(dbPath, createTable)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	r := &SQLiteRecorder{
		db:            db,
		retentionDays: retentionDays,
		done:          make(chan struct{}),
	}

	if retentionDays > 0 {
		r.wg.Add(1)
		go r.retentionLoop()
	}

	return r, nil
}

// Record stores a finished pipeline.
func (r *SQLiteRecorder) Record(ctx context.Context, rec models.HistoryRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO history (request_id, input, output, status, endpoint, cached, error, total_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.Input, rec.Output, string(rec.Status), rec.Endpoint,
		boolToInt(rec.Cached), rec.Error, rec.TotalMs, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. A non-positive limit
// defaults to 20.
func (r *SQLiteRecorder) Recent(ctx context.Context, limit int) ([]models.HistoryRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, request_id, input, output, status, endpoint, cached, error, total_ms, created_at
		 FROM history ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []models.HistoryRecord
	for rows.Next() {
		var rec models.HistoryRecord
		var status string
		var cached int
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.Input, &rec.Output, &status,
			&rec.Endpoint, &cached, &rec.Error, &rec.TotalMs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.Status = models.OutcomeStatus(status)
		rec.Cached = cached != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Summary returns counts and average latency grouped by status and endpoint.
func (r *SQLiteRecorder) Summary(ctx context.Context) ([]models.HistorySummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, endpoint, COUNT(*), COALESCE(SUM(cached), 0), COALESCE(AVG(total_ms), 0)
		 FROM history GROUP BY status, endpoint ORDER BY status, endpoint`)
	if err != nil {
		return nil, fmt.Errorf("history summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.HistorySummary
	for rows.Next() {
		var s models.HistorySummary
		var status string
		if err := rows.Scan(&status, &s.Endpoint, &s.RequestCount, &s.CachedCount, &s.AvgTotalMs); err != nil {
			return nil, fmt.Errorf("scan history summary: %w", err)
		}
		s.Status = models.OutcomeStatus(status)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Cleanup deletes records older than the retention period. With no
// retention configured it deletes nothing.
func (r *SQLiteRecorder) Cleanup(ctx context.Context) (int64, error) {
	if r.retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -r.retentionDays)
	res, err := r.db.ExecContext(ctx, `DELETE FROM history WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("history cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the retention goroutine and closes the database.
func (r *SQLiteRecorder) Close() error {
	r.closeOnce.Do(func() { close(r.done) })
	r.wg.Wait()
	return r.db.Close()
}

func (r *SQLiteRecorder) retentionLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			_, _ = r.Cleanup(context.Background())
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
