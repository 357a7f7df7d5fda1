package store

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/missionctl/taskrelay/internal/domain"
)

// taskColumns is the shared list of columns for task queries.
var taskColumns = []string{
	"id", "handler_tag", "request", "status", "created_at",
	"response_content", "completed_at",
}

// PostgresStore is the Postgres-backed Store. A committed Put is visible to
// the next Get, which satisfies the read-after-write contract.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// scanTask scans a single row into a Task struct.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task        domain.Task
		content     *string
		completedAt *int64
	)
	err := row.Scan(
		&task.ID,
		&task.HandlerTag,
		&task.Request,
		&task.Status,
		&task.CreatedAt,
		&content,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	if !task.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, task.Status)
	}
	if content != nil {
		task.Response = &domain.TaskResponse{Content: *content}
		if completedAt != nil {
			task.Response.CompletedAt = *completedAt
		}
	}
	return &task, nil
}

// Put writes the record for the task's id, overwriting any prior record.
func (s *PostgresStore) Put(ctx context.Context, task *domain.Task) error {
	var (
		content     *string
		completedAt *int64
	)
	if task.Response != nil {
		content = &task.Response.Content
		completedAt = &task.Response.CompletedAt
	}

	query, args, err := psql.
		Insert("tasks").
		Columns(taskColumns...).
		Values(
			task.ID,
			task.HandlerTag,
			task.Request,
			task.Status,
			task.CreatedAt,
			content,
			completedAt,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			handler_tag = EXCLUDED.handler_tag,
			request = EXCLUDED.request,
			status = EXCLUDED.status,
			created_at = EXCLUDED.created_at,
			response_content = EXCLUDED.response_content,
			completed_at = EXCLUDED.completed_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Put query for task %s: %w", task.ID, err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("put task %s: %w", task.ID, err)
	}
	return nil
}

// Get retrieves the record for id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Get query for task %s: %w", id, err)
	}

	return scanTask(s.pool.QueryRow(ctx, query, args...))
}

// Ping checks database reachability.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
