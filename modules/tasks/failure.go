package tasks

import (
	"errors"
	"fmt"

	"github.com/example/task-tracker/domain/task"
)

// FailureKind classifies why a store operation did not complete.
type FailureKind string

const (
	// KindConfiguration: the store is disconnected; nothing was sent.
	KindConfiguration FailureKind = "configuration"
	// KindTransport: the persistence service was unreachable or refused the call.
	KindTransport FailureKind = "transport"
	// KindNotFound: the target id does not exist.
	KindNotFound FailureKind = "not_found"
	// KindValidation: the input was rejected before any remote call.
	KindValidation FailureKind = "validation"
)

// Operation names, shared by services, metrics and events.
const (
	OpList          = "list"
	OpAdd           = "add"
	OpSetCompletion = "set-completion"
	OpSoftDelete    = "soft-delete"
	OpSummary       = "summary"
)

// Failure is the only error type returned by Store operations.
type Failure struct {
	Kind   FailureKind
	Op     string
	TaskID string
	Title  string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Message()
	}
	return f.Message() + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Message is the short human-readable description of the failed action.
func (f *Failure) Message() string {
	switch f.Op {
	case OpList, OpSummary:
		return "failed to load tasks"
	case OpAdd:
		return "failed to add task"
	case OpSetCompletion:
		if f.Title != "" {
			return fmt.Sprintf("failed to update task '%s'", f.Title)
		}
		return "failed to update task"
	case OpSoftDelete:
		if f.Title != "" {
			return fmt.Sprintf("failed to move task '%s' to the trash", f.Title)
		}
		return "failed to move task to the trash"
	default:
		return fmt.Sprintf("task operation %s failed", f.Op)
	}
}

// Classify maps a repository or validation error to its failure kind.
func Classify(err error) FailureKind {
	switch {
	case errors.Is(err, task.ErrDisconnected):
		return KindConfiguration
	case errors.Is(err, task.ErrNotFound):
		return KindNotFound
	case errors.Is(err, task.ErrInvalid):
		return KindValidation
	default:
		return KindTransport
	}
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsKind reports whether err is a Failure of the given kind.
func IsKind(err error, kind FailureKind) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == kind
}
