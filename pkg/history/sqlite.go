package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverCGO  = "sqlite3"
	DriverPure = "sqlite"
)

// SQLiteConfig contains configuration for the history store.
type SQLiteConfig struct {
	// Driver is DriverCGO or DriverPure.
	// Default: "sqlite3"
	Driver string

	// Path is the database file path.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteStore persists job records in SQLite. It is safe for concurrent use.
type SQLiteStore struct {
	db     *sql.DB
	config SQLiteConfig
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the history database.
func OpenSQLite(cfg SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverCGO
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "history.sqlite")

	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStorageError(cfg.Driver, "mkdir", err)
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, NewStorageError(cfg.Driver, "open", err)
	}
	// A single connection keeps PRAGMAs in effect and serializes writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, config: cfg, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("history store opened", "path", cfg.Path, "driver", cfg.Driver)
	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return NewStorageError(s.config.Driver, "enable_wal", err)
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return NewStorageError(s.config.Driver, "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError(s.config.Driver, "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion, time.Now().UnixNano()); err != nil {
		return NewStorageError(s.config.Driver, "insert_schema_version", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return NewStorageError(s.config.Driver, "get_schema_version", err)
	}
	if version.Int64 != SchemaVersion {
		return NewStorageError(s.config.Driver, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}

	return nil
}

// Store persists a job record. A record with an existing ID replaces it.
func (s *SQLiteStore) Store(ctx context.Context, r *Record) error {
	models, err := json.Marshal(r.Models)
	if err != nil {
		return NewStorageError(s.config.Driver, "store", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO jobs (
			id, manifest_path, input_path, output_path,
			status, error_kind, error,
			started_at, duration_ns, rows_in, rows_out, models
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ManifestPath, nullString(r.InputPath), nullString(r.OutputPath),
		r.Status, nullString(r.ErrorKind), nullString(r.Error),
		r.StartedAt.UnixNano(), int64(r.Duration), r.RowsIn, r.RowsOut, string(models),
	)
	if err != nil {
		return NewStorageError(s.config.Driver, "store", err)
	}
	return nil
}

// Get returns the record with the given ID, or nil if there is none.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE id = ?", id)
	if err != nil {
		return nil, NewStorageError(s.config.Driver, "get", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	r, err := scanRecord(rows)
	if err != nil {
		return nil, NewStorageError(s.config.Driver, "scan", err)
	}
	return r, nil
}

const selectColumns = `SELECT id, manifest_path, input_path, output_path, status, error_kind, error,
	started_at, duration_ns, rows_in, rows_out, models FROM jobs`

// Query returns records matching q, newest first.
func (s *SQLiteStore) Query(ctx context.Context, q *Query) ([]*Record, error) {
	where, args := buildWhereClause(q)

	query := selectColumns
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY started_at DESC"

	limit := 100
	if q != nil && q.Limit > 0 {
		limit = q.Limit
	}
	query += fmt.Sprintf(" LIMIT %d", limit)
	if q != nil && q.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewStorageError(s.config.Driver, "query", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, NewStorageError(s.config.Driver, "scan", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(s.config.Driver, "query", err)
	}
	return records, nil
}

// Count returns the number of records matching q.
func (s *SQLiteStore) Count(ctx context.Context, q *Query) (int64, error) {
	where, args := buildWhereClause(q)
	query := "SELECT COUNT(*) FROM jobs"
	if where != "" {
		query += " WHERE " + where
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, NewStorageError(s.config.Driver, "count", err)
	}
	return count, nil
}

// DeleteBefore removes records started before cutoff and returns how many
// were deleted.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE started_at < ?", cutoff.UnixNano())
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "delete", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "delete", err)
	}
	return n, nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError(s.config.Driver, "close", err)
	}
	return nil
}

func buildWhereClause(q *Query) (string, []any) {
	if q == nil {
		return "", nil
	}

	var conds []string
	var args []any
	if q.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, q.Status)
	}
	if q.Since != nil {
		conds = append(conds, "started_at >= ?")
		args = append(args, q.Since.UnixNano())
	}
	if q.Before != nil {
		conds = append(conds, "started_at < ?")
		args = append(args, q.Before.UnixNano())
	}
	return strings.Join(conds, " AND "), args
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var (
		r                            Record
		input, output, kind, errText sql.NullString
		models                       sql.NullString
		startedAt, duration          int64
	)
	err := rows.Scan(&r.ID, &r.ManifestPath, &input, &output, &r.Status, &kind, &errText,
		&startedAt, &duration, &r.RowsIn, &r.RowsOut, &models)
	if err != nil {
		return nil, err
	}

	r.InputPath = input.String
	r.OutputPath = output.String
	r.ErrorKind = kind.String
	r.Error = errText.String
	r.StartedAt = time.Unix(0, startedAt)
	r.Duration = time.Duration(duration)
	if models.Valid && models.String != "" && models.String != "null" {
		if err := json.Unmarshal([]byte(models.String), &r.Models); err != nil {
			return nil, fmt.Errorf("decode models: %w", err)
		}
	}
	return &r, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
