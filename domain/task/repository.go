package task

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no task matches the given id.
	ErrNotFound = errors.New("task not found")

	// ErrDisconnected is returned by every operation of a store that has no
	// usable connection configuration.
	ErrDisconnected = errors.New("task store is disconnected")
)

// Repository is the port to the remote task table.
// Implementations never remove rows; soft deletion only flips is_deleted.
type Repository interface {
	// Insert creates a task with completed=false and is_deleted=false.
	Insert(ctx context.Context, t NewTask) (*Task, error)

	// ListActive returns every task with is_deleted=false ordered by due date
	// ascending, tasks without a due date last.
	ListActive(ctx context.Context) ([]Task, error)

	// SetCompleted updates the completed flag of a task.
	SetCompleted(ctx context.Context, id string, completed bool) (*Task, error)

	// SetDeleted marks a task as deleted. Marking an already deleted task
	// succeeds and returns it unchanged.
	SetDeleted(ctx context.Context, id string) (*Task, error)
}

// Disconnected is a Repository used when the store could not be configured.
// Every call fails immediately with ErrDisconnected.
type Disconnected struct {
	Reason error
}

var _ Repository = Disconnected{}

// Err returns the error reported by every operation.
func (d Disconnected) Err() error {
	if d.Reason == nil {
		return ErrDisconnected
	}
	return fmt.Errorf("%w: %w", ErrDisconnected, d.Reason)
}

func (d Disconnected) Insert(context.Context, NewTask) (*Task, error) {
	return nil, d.Err()
}

func (d Disconnected) ListActive(context.Context) ([]Task, error) {
	return nil, d.Err()
}

func (d Disconnected) SetCompleted(context.Context, string, bool) (*Task, error) {
	return nil, d.Err()
}

func (d Disconnected) SetDeleted(context.Context, string) (*Task, error) {
	return nil, d.Err()
}
