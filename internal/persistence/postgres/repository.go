// Package postgres implements the task repository directly over a Postgres
// connection (for example the connection string of a Supabase project).
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/example/task-tracker/domain/task"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	title      varchar(255) NOT NULL,
	due_date   date,
	completed  boolean NOT NULL DEFAULT false,
	is_deleted boolean NOT NULL DEFAULT false,
	created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS tasks_active_due_idx ON tasks (due_date) WHERE NOT is_deleted;
`

const (
	columns = `id, title, due_date, completed, is_deleted`

	insertTask = `INSERT INTO tasks (title, due_date) VALUES ($1, $2) RETURNING ` + columns

	listActiveTasks = `SELECT ` + columns + ` FROM tasks
WHERE is_deleted = false
ORDER BY due_date ASC NULLS LAST, created_at ASC`

	setCompleted = `UPDATE tasks SET completed = $2 WHERE id = $1 RETURNING ` + columns

	setDeleted = `UPDATE tasks SET is_deleted = true WHERE id = $1 RETURNING ` + columns
)

// Repository provides access to the tasks table using pgx.
type Repository struct {
	db DBTX

	mu       sync.Mutex
	migrated bool
}

var _ task.Repository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository)

// WithLazyMigrate makes every call create the schema first until that
// succeeds once. Used when the database was unreachable at startup.
func WithLazyMigrate() Option {
	return func(r *Repository) { r.migrated = false }
}

// NewRepository creates a new task repository over an already migrated schema.
func NewRepository(db DBTX, opts ...Option) *Repository {
	r := &Repository{db: db, migrated: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) ensureSchema(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.migrated {
		return nil
	}
	if err := Migrate(ctx, r.db); err != nil {
		return err
	}
	r.migrated = true
	return nil
}

// Migrate creates the tasks table when it does not exist.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate tasks table: %w", err)
	}
	return nil
}

func (r *Repository) Insert(ctx context.Context, nt task.NewTask) (*task.Task, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	t, err := scanTask(r.db.QueryRow(ctx, insertTask, nt.Title, toPgDate(nt.DueDate)))
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return t, nil
}

func (r *Repository) ListActive(ctx context.Context) ([]task.Task, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, listActiveTasks)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (task.Task, error) {
		t, err := scanTask(row)
		if err != nil {
			return task.Task{}, err
		}
		return *t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan tasks: %w", err)
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

func (r *Repository) SetCompleted(ctx context.Context, id string, completed bool) (*task.Task, error) {
	return r.updateByID(ctx, setCompleted, id, completed)
}

func (r *Repository) SetDeleted(ctx context.Context, id string) (*task.Task, error) {
	return r.updateByID(ctx, setDeleted, id)
}

func (r *Repository) updateByID(ctx context.Context, query, id string, args ...any) (*task.Task, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		// Not a valid key, so no row can match it.
		return nil, task.ErrNotFound
	}
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}

	t, err := scanTask(r.db.QueryRow(ctx, query, append([]any{pgtype.UUID{Bytes: key, Valid: true}}, args...)...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, task.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task %s: %w", id, err)
	}
	return t, nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	var (
		id  pgtype.UUID
		due pgtype.Date
		t   task.Task
	)
	if err := row.Scan(&id, &t.Title, &due, &t.Completed, &t.Deleted); err != nil {
		return nil, err
	}

	t.ID = uuid.UUID(id.Bytes).String()
	if due.Valid {
		d := task.DateOf(due.Time)
		t.DueDate = &d
	}
	return &t, nil
}

func toPgDate(d *task.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}
