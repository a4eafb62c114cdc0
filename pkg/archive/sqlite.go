package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_info (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS reviews (
	id             TEXT PRIMARY KEY,
	part_id        TEXT NOT NULL,
	bundle_version TEXT NOT NULL,
	analysis_mode  TEXT NOT NULL,
	finding_count  INTEGER NOT NULL,
	created_at     TIMESTAMP NOT NULL,
	report         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reviews_part_id ON reviews(part_id);
CREATE INDEX IF NOT EXISTS idx_reviews_created_at ON reviews(created_at);
`

// SQLiteConfig configures the SQLite archive backend.
type SQLiteConfig struct {
	Path string

	// MaxOpenConns bounds the connection pool. Default 10.
	MaxOpenConns int

	// BusyTimeout is how long to wait on a locked database. Default 5s.
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "./vulcan-archive.db",
		MaxOpenConns: 10,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore is a durable Store on a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens the database at cfg.Path and ensures the schema.
func NewSQLiteStore(cfg *SQLiteConfig) (*SQLiteStore, error) {
	if cfg == nil {
		cfg = DefaultSQLiteConfig()
	}
	logger := slog.Default().With("component", "archive.sqlite")

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, newStorageError("sqlite", "open", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.initialize(cfg); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("archive storage initialized", "path", cfg.Path)
	return s, nil
}

func (s *SQLiteStore) initialize(cfg *SQLiteConfig) error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return newStorageError("sqlite", "enable_wal", err)
	}
	if cfg.BusyTimeout > 0 {
		stmt := fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeout.Milliseconds())
		if _, err := s.db.Exec(stmt); err != nil {
			return newStorageError("sqlite", "set_busy_timeout", err)
		}
	}
	if _, err := s.db.Exec(schema); err != nil {
		return newStorageError("sqlite", "create_schema", err)
	}

	var version int
	err := s.db.QueryRow("SELECT version FROM schema_info LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec("INSERT INTO schema_info (version) VALUES (?)", schemaVersion); err != nil {
			return newStorageError("sqlite", "write_schema_version", err)
		}
	case err != nil:
		return newStorageError("sqlite", "read_schema_version", err)
	case version != schemaVersion:
		return newStorageError("sqlite", "check_schema_version",
			fmt.Errorf("database schema version %d, expected %d", version, schemaVersion))
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, record *Record) error {
	report, err := json.Marshal(record.Report)
	if err != nil {
		return newStorageError("sqlite", "marshal_report", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reviews
			(id, part_id, bundle_version, analysis_mode, finding_count, created_at, report)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.PartID, record.BundleVersion, record.AnalysisMode,
		record.FindingCount, record.CreatedAt, string(report))
	if err != nil {
		return newStorageError("sqlite", "save", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, part_id, bundle_version, analysis_mode, finding_count, created_at, report
		FROM reviews WHERE id = ?`, id)

	record, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, newStorageError("sqlite", "get", err)
	}
	return record, nil
}

func (s *SQLiteStore) List(ctx context.Context, query *Query) ([]*Record, error) {
	if query == nil {
		query = &Query{}
	}

	where := "1=1"
	var args []any
	if query.PartID != "" {
		where += " AND part_id = ?"
		args = append(args, query.PartID)
	}
	if query.AnalysisMode != "" {
		where += " AND analysis_mode = ?"
		args = append(args, query.AnalysisMode)
	}
	if !query.Before.IsZero() {
		where += " AND created_at < ?"
		args = append(args, query.Before)
	}
	if !query.After.IsZero() {
		where += " AND created_at > ?"
		args = append(args, query.After)
	}

	q := `SELECT id, part_id, bundle_version, analysis_mode, finding_count, created_at, report
		FROM reviews WHERE ` + where + " ORDER BY created_at DESC"
	if query.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, newStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, newStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("sqlite", "list", err)
	}
	return records, nil
}

func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM reviews WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, newStorageError("sqlite", "delete", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, newStorageError("sqlite", "rows_affected", err)
	}
	return deleted, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRecord(scan func(...any) error) (*Record, error) {
	var (
		record Record
		report string
	)
	err := scan(&record.ID, &record.PartID, &record.BundleVersion,
		&record.AnalysisMode, &record.FindingCount, &record.CreatedAt, &report)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(report), &record.Report); err != nil {
		return nil, fmt.Errorf("decoding archived report: %w", err)
	}
	return &record, nil
}
