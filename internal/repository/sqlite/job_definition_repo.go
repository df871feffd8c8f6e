package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"encore/internal/domain"
	"encore/internal/logger"
	"encore/internal/repository"
	repositoryIface "encore/internal/repository/iface"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

const selectColumns = `SELECT id, name, schedule, is_active, description, last_run_at, last_status, last_error FROM job_definitions`

// Store is the SQLite-backed job definition repository
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

var _ repositoryIface.JobDefinitionRepository = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies migrations
func Open(ctx context.Context, path string, log logger.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// one connection: writers serialize and :memory: stays a single database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{
		db:     db,
		logger: log.With(logger.String("component", "sqlite_job_repository")),
	}

	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}

	store.logger.Info("sqlite job store ready", logger.String("path", path))

	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) List(ctx context.Context) ([]*domain.JobDefinition, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list job definitions: %w", err)
	}
	defer rows.Close()

	defs := make([]*domain.JobDefinition, 0)
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list job definitions: %w", err)
	}

	return defs, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.JobDefinition, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	def, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return def, nil
}

func (s *Store) CreateIfAbsent(ctx context.Context, def *domain.JobDefinition) (bool, error) {
	status := def.LastStatus
	if status == "" {
		status = domain.JobStatusNever
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO job_definitions(id, name, schedule, is_active, description, last_status)
		 VALUES(?,?,?,?,?,?)
		 ON CONFLICT(id) DO NOTHING`,
		def.ID, def.Name, def.Schedule, def.IsActive, def.Description, string(status),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create job definition: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to create job definition: %w", err)
	}
	return n == 1, nil
}

func (s *Store) MarkRunning(ctx context.Context, id string, at time.Time) error {
	return s.exec(ctx, id,
		`UPDATE job_definitions SET last_run_at = ?, last_status = ? WHERE id = ?`,
		at.UnixMilli(), string(domain.JobStatusRunning), id)
}

func (s *Store) MarkSucceeded(ctx context.Context, id string) error {
	return s.exec(ctx, id,
		`UPDATE job_definitions SET last_status = ?, last_error = NULL WHERE id = ?`,
		string(domain.JobStatusSuccess), id)
}

func (s *Store) MarkFailed(ctx context.Context, id string, message string) error {
	return s.exec(ctx, id,
		`UPDATE job_definitions SET last_status = ?, last_error = ? WHERE id = ?`,
		string(domain.JobStatusError), message, id)
}

func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	return s.exec(ctx, id, `UPDATE job_definitions SET is_active = ? WHERE id = ?`, active, id)
}

func (s *Store) SetSchedule(ctx context.Context, id string, schedule string) error {
	return s.exec(ctx, id, `UPDATE job_definitions SET schedule = ? WHERE id = ?`, schedule, id)
}

func (s *Store) exec(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to update job definition",
			logger.String("job_id", id),
			logger.Error(err))
		return fmt.Errorf("failed to update job definition %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update job definition %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row scanner) (*domain.JobDefinition, error) {
	var (
		def       domain.JobDefinition
		status    string
		lastRunAt sql.NullInt64
		lastError sql.NullString
	)

	err := row.Scan(&def.ID, &def.Name, &def.Schedule, &def.IsActive, &def.Description, &lastRunAt, &status, &lastError)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan job definition: %w", err)
	}

	def.LastStatus = domain.JobStatus(status)
	if lastRunAt.Valid {
		at := time.UnixMilli(lastRunAt.Int64)
		def.LastRunAt = &at
	}
	if lastError.Valid {
		msg := lastError.String
		def.LastError = &msg
	}

	return &def, nil
}
