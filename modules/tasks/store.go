// Package tasks is the task store: it mediates every read and write of task
// records, keeps the listing cache coherent and reports failures.
package tasks

import (
	"context"
	"time"

	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/internal/metrics"
	"github.com/example/task-tracker/modules/cache"
)

// Notifier is told about every change and every failure of the store.
type Notifier interface {
	TaskCreated(ctx context.Context, t task.Task)
	CompletionChanged(ctx context.Context, t task.Task)
	SoftDeleted(ctx context.Context, t task.Task)
	OperationFailed(ctx context.Context, f *Failure)
}

type nopNotifier struct{}

func (nopNotifier) TaskCreated(context.Context, task.Task)       {}
func (nopNotifier) CompletionChanged(context.Context, task.Task) {}
func (nopNotifier) SoftDeleted(context.Context, task.Task)       {}
func (nopNotifier) OperationFailed(context.Context, *Failure)    {}

// Store is safe for concurrent use.
type Store struct {
	repo     task.Repository
	cache    cache.ListCache
	logger   types.Logger
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets the change and failure observer.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithMetrics records operation counts and latencies.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithClock replaces time.Now; it decides what "today" is for due dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store over repo. A nil cache gets an in-memory one
// with the default TTL.
func NewStore(repo task.Repository, listCache cache.ListCache, logger types.Logger, opts ...Option) *Store {
	s := &Store{
		repo:     repo,
		cache:    listCache,
		logger:   logger,
		notifier: nopNotifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewMemory(cache.DefaultTTL, cache.WithMetrics(s.metrics))
	}
	return s
}

// ListActiveTasks returns the non-deleted tasks, incomplete first, then by
// due date. On failure the slice is empty (never nil) and err is a *Failure.
func (s *Store) ListActiveTasks(ctx context.Context) ([]task.Task, error) {
	return s.listActive(ctx, OpList)
}

func (s *Store) listActive(ctx context.Context, op string) ([]task.Task, error) {
	started := s.now()

	tasks, hit, err := s.cache.GetOrFetch(ctx, s.fetchActive)
	if err != nil {
		return []task.Task{}, s.fail(ctx, started, &Failure{Op: op, Err: err})
	}

	s.metrics.ObserveOperation(op, "", started)
	s.logger.Debug("Listed tasks", "count", len(tasks), "cache_hit", hit)
	return tasks, nil
}

func (s *Store) fetchActive(ctx context.Context) ([]task.Task, error) {
	tasks, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	tasks = task.Active(tasks)
	task.Sort(tasks)
	return tasks, nil
}

// AddTask validates and inserts a task, returning the stored record.
func (s *Store) AddTask(ctx context.Context, title string, due *task.Date) (task.Task, error) {
	started := s.now()

	normalized, err := task.NormalizeTitle(title)
	if err != nil {
		return task.Task{}, s.fail(ctx, started, &Failure{Op: OpAdd, Err: err})
	}
	if err := task.ValidateDueDate(due, task.DateOf(started)); err != nil {
		return task.Task{}, s.fail(ctx, started, &Failure{Op: OpAdd, Title: normalized, Err: err})
	}

	created, err := s.repo.Insert(ctx, task.NewTask{Title: normalized, DueDate: due})
	if err != nil {
		return task.Task{}, s.fail(ctx, started, &Failure{Op: OpAdd, Title: normalized, Err: err})
	}

	s.invalidate(ctx)
	s.metrics.ObserveOperation(OpAdd, "", started)
	s.logger.Info("Task added", "task_id", created.ID, "title", created.Title)
	s.notifier.TaskCreated(ctx, *created)
	return *created, nil
}

// SetCompletion sets the completed flag of a task, returning the updated record.
func (s *Store) SetCompletion(ctx context.Context, id string, completed bool) (task.Task, error) {
	started := s.now()

	updated, err := s.repo.SetCompleted(ctx, id, completed)
	if err != nil {
		return task.Task{}, s.fail(ctx, started, &Failure{Op: OpSetCompletion, TaskID: id, Title: s.knownTitle(ctx, id), Err: err})
	}

	s.invalidate(ctx)
	s.metrics.ObserveOperation(OpSetCompletion, "", started)
	s.logger.Info("Task completion changed", "task_id", id, "completed", completed)
	s.notifier.CompletionChanged(ctx, *updated)
	return *updated, nil
}

// SoftDelete hides a task from listings without removing it. Deleting an
// already-deleted task succeeds.
func (s *Store) SoftDelete(ctx context.Context, id string) (task.Task, error) {
	started := s.now()

	deleted, err := s.repo.SetDeleted(ctx, id)
	if err != nil {
		return task.Task{}, s.fail(ctx, started, &Failure{Op: OpSoftDelete, TaskID: id, Title: s.knownTitle(ctx, id), Err: err})
	}

	s.invalidate(ctx)
	s.metrics.ObserveOperation(OpSoftDelete, "", started)
	s.logger.Info("Task moved to trash", "task_id", id, "title", deleted.Title)
	s.notifier.SoftDeleted(ctx, *deleted)
	return *deleted, nil
}

// Summary counts pending and completed active tasks.
func (s *Store) Summary(ctx context.Context) (task.Summary, error) {
	tasks, err := s.listActive(ctx, OpSummary)
	if err != nil {
		return task.Summary{}, err
	}
	return task.Summarize(tasks), nil
}

// CacheStats exposes the listing cache counters.
func (s *Store) CacheStats() cache.StatsSnapshot {
	return s.cache.Stats()
}

func (s *Store) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate task listing cache")
	}
}

// knownTitle looks the task up in the cached listing only; it never calls
// the persistence service.
func (s *Store) knownTitle(ctx context.Context, id string) string {
	tasks, ok := s.cache.Peek(ctx)
	if !ok {
		return ""
	}
	for _, t := range tasks {
		if t.ID == id {
			return t.Title
		}
	}
	return ""
}

func (s *Store) fail(ctx context.Context, started time.Time, f *Failure) *Failure {
	f.Kind = Classify(f.Err)
	s.metrics.ObserveOperation(f.Op, string(f.Kind), started)

	log := s.logger.WithError(f.Err).With("operation", f.Op, "kind", string(f.Kind))
	if f.TaskID != "" {
		log = log.With("task_id", f.TaskID)
	}
	switch f.Kind {
	case KindValidation, KindNotFound:
		log.Warn(f.Message())
	default:
		log.Error(f.Message())
	}

	s.notifier.OperationFailed(ctx, f)
	return f
}
