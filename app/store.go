package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fileindex/models"

	_ "modernc.org/sqlite"
)

// Sink is the persistence boundary of the pipeline. WriteBatch applies one
// batch as a single atomic unit: either every record of the batch becomes
// visible or none does.
type Sink interface {
	EnsureSchema(ctx context.Context) error
	WriteBatch(ctx context.Context, records []models.FileRecord) (int64, error)
	Close() error
}

// SQLiteSink persists FileRecords into a SQLite database, one upsert
// statement per record inside a per-batch transaction.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (creating if necessary) the database at path.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteSink{db: db}, nil
}

// OpenDatabase opens a SQLite database with the pragmas the pipeline and
// the reporting side both depend on.
func OpenDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database %s: %v", ErrConnectivity, path, err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: set journal_mode: %v", ErrConnectivity, err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: set busy_timeout: %v", ErrConnectivity, err)
	}
	return db, nil
}

// DB exposes the underlying handle for the reporting queries.
func (s *SQLiteSink) DB() *sql.DB {
	return s.db
}

// EnsureSchema idempotently creates the target table and its indexes.
func (s *SQLiteSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return classifyDBError(err)
	}
	return nil
}

// WriteBatch upserts all records in one transaction, keyed by path, and
// returns the number of rows affected. The transaction rolls back on the
// first failing record, so no partial batch is ever visible to readers.
func (s *SQLiteSink) WriteBatch(ctx context.Context, records []models.FileRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, classifyDBError(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return 0, classifyDBError(err)
	}
	defer stmt.Close()

	var affected int64
	for _, rec := range records {
		res, err := stmt.ExecContext(ctx,
			rec.Path, rec.Name, rec.Dir, rec.Ext, rec.Size,
			unixSeconds(rec.ModTime), unixSeconds(rec.ChangeTime), unixSeconds(rec.AccessTime),
			formatTime(rec.ModTime), formatTime(rec.ChangeTime), formatTime(rec.AccessTime),
			boolToInt(rec.IsReadOnly), boolToInt(rec.IsHidden), boolToInt(rec.IsSystem), boolToInt(rec.IsArchive),
			rec.Attributes,
			nullIfEmpty(rec.SHA256), nullIfEmpty(rec.MD5),
			rec.PathLength, rec.PathDepth,
			nullIfEmpty(rec.Owner), nullIfEmpty(rec.FileVersion),
			unixSeconds(rec.ScannedAt), formatTime(rec.ScannedAt),
		)
		if err != nil {
			return 0, classifyDBError(err)
		}
		if n, err := res.RowsAffected(); err == nil {
			affected += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, classifyDBError(err)
	}
	committed = true
	return affected, nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// SetMetadata records a key/value pair, replacing any previous value.
func (s *SQLiteSink) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO metadata(key, value) VALUES (?, ?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value
    `, key, value)
	if err != nil {
		return classifyDBError(err)
	}
	return nil
}

// RecordRun appends the run outcome to the scan history.
func (s *SQLiteSink) RecordRun(ctx context.Context, runID string, finished time.Time, statsJSON string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO scan_history(run_id, scan_time, stats_json) VALUES (?, ?, ?)
    `, runID, finished.Unix(), statsJSON)
	if err != nil {
		return classifyDBError(err)
	}
	return nil
}

// classifyDBError splits driver failures into the retryable connectivity
// class and the fatal schema class, so the caller can decide whether a
// retry makes sense.
func classifyDBError(err error) error {
	msg := strings.ToLower(err.Error())
	for _, schema := range []string{
		"no such table",
		"no such column",
		"syntax error",
		"readonly database",
		"attempt to write a readonly database",
		"not a database",
		"constraint failed",
	} {
		if strings.Contains(msg, schema) {
			return fmt.Errorf("%w: %v", ErrSchema, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrConnectivity, err)
}

// Both time representations derive from the same captured instant and agree
// to the millisecond.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
