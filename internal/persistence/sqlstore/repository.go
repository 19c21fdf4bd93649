// Package sqlstore is the gorm-backed task repository used for local and
// embedded deployments.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/task-tracker/domain/task"
)

// Repository stores tasks in a relational database through gorm.
type Repository struct {
	db *gorm.DB
}

var _ task.Repository = (*Repository)(nil)

// NewRepository creates a repository over an open, migrated connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Open connects to the SQLite database at path and migrates the schema.
func Open(path string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tasks table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&taskRow{}); err != nil {
		return fmt.Errorf("failed to migrate tasks table: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}

func (r *Repository) Insert(ctx context.Context, nt task.NewTask) (*task.Task, error) {
	row := taskRow{
		ID:      uuid.New().String(),
		Title:   nt.Title,
		DueDate: dueTime(nt.DueDate),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	t := row.toDomain()
	return &t, nil
}

func (r *Repository) ListActive(ctx context.Context) ([]task.Task, error) {
	var rows []taskRow
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("due_date IS NULL, due_date ASC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toDomain())
	}
	return tasks, nil
}

func (r *Repository) SetCompleted(ctx context.Context, id string, completed bool) (*task.Task, error) {
	return r.update(ctx, id, map[string]any{"completed": completed})
}

// SetDeleted flags the row as deleted. The row itself is kept.
func (r *Repository) SetDeleted(ctx context.Context, id string) (*task.Task, error) {
	return r.update(ctx, id, map[string]any{"is_deleted": true})
}

func (r *Repository) update(ctx context.Context, id string, fields map[string]any) (*task.Task, error) {
	var row taskRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&taskRow{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return fmt.Errorf("failed to update task %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return task.ErrNotFound
		}
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return task.ErrNotFound
			}
			return fmt.Errorf("failed to reload task %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	t := row.toDomain()
	return &t, nil
}
