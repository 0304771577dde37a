package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	// Database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
)

// SQLStore persists job status in PostgreSQL, MySQL or SQLite via
// database/sql, so job outcomes survive a process restart.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

const createJobsTableSQL = `
CREATE TABLE IF NOT EXISTS jobs (
    id VARCHAR(64) PRIMARY KEY,
    kind VARCHAR(50) NOT NULL,
    payload TEXT,
    status VARCHAR(20) NOT NULL,
    retries INTEGER NOT NULL DEFAULT 0,
    last_error TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_kind ON jobs(kind);
`

// NewSQLStore creates a SQL-backed job store over an open connection.
func NewSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	switch dialect {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported dialect: %s (supported: postgres, mysql, sqlite)", dialect)
	}

	s := &SQLStore{db: db, dialect: dialect}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// NewSQLStoreFromConfig opens the configured database and builds a store.
func NewSQLStoreFromConfig(cfg *config.JobStoreConfig) (*SQLStore, error) {
	if cfg == nil || !cfg.IsSQL() {
		return nil, fmt.Errorf("sql job store requires backend: sql")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job store configuration: %w", err)
	}

	// Config says "sqlite" but the go-sqlite3 driver registers as "sqlite3".
	driverName := cfg.Driver
	if driverName == "sqlite" {
		driverName = "sqlite3"
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdle)

	return NewSQLStore(db, cfg.Driver)
}

func (s *SQLStore) initSchema() error {
	for _, stmt := range strings.Split(createJobsTableSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind converts ? placeholders to $N for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s *SQLStore) Save(ctx context.Context, job *Job) error {
	payloadJSON, err := json.Marshal(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	var query string
	switch s.dialect {
	case "mysql":
		query = `INSERT INTO jobs (id, kind, payload, status, retries, last_error, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE status=VALUES(status), retries=VALUES(retries), last_error=VALUES(last_error), updated_at=VALUES(updated_at)`
	default:
		query = `INSERT INTO jobs (id, kind, payload, status, retries, last_error, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET status=excluded.status, retries=excluded.retries, last_error=excluded.last_error, updated_at=excluded.updated_at`
	}

	_, err = s.db.ExecContext(ctx, s.rebind(query),
		job.ID, string(job.Kind), string(payloadJSON), string(job.Status),
		job.Retries, job.LastError, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, kind, payload, status, retries, last_error, created_at, updated_at FROM jobs WHERE id = ?`), id)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	return job, nil
}

func (s *SQLStore) ListByStatus(ctx context.Context, status Status) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, kind, payload, status, retries, last_error, created_at, updated_at FROM jobs WHERE status = ? ORDER BY created_at`), string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var result []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*Job, error) {
	var job Job
	var kind, status, payloadJSON string

	err := row.Scan(&job.ID, &kind, &payloadJSON, &status,
		&job.Retries, &job.LastError, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	job.Kind = Kind(kind)
	job.Status = Status(status)
	if payloadJSON != "" {
		if err := json.Unmarshal([]byte(payloadJSON), &job.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}
	return &job, nil
}

var _ Store = (*SQLStore)(nil)
