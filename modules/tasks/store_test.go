package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/cache"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

// mockRepository is an in-memory task.Repository.
type mockRepository struct {
	mu     sync.Mutex
	tasks  []task.Task
	nextID int
	err    error
	calls  map[string]int
}

func newMockRepository(seed ...task.Task) *mockRepository {
	return &mockRepository{tasks: task.CloneAll(seed), calls: map[string]int{}}
}

func (r *mockRepository) called(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *mockRepository) Insert(_ context.Context, nt task.NewTask) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["insert"]++
	if r.err != nil {
		return nil, r.err
	}
	r.nextID++
	t := task.Task{ID: fmt.Sprintf("id-%d", r.nextID), Title: nt.Title, DueDate: nt.DueDate}
	r.tasks = append(r.tasks, t)
	return &t, nil
}

func (r *mockRepository) ListActive(_ context.Context) ([]task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["list"]++
	if r.err != nil {
		return nil, r.err
	}
	return task.Active(r.tasks), nil
}

func (r *mockRepository) SetCompleted(_ context.Context, id string, completed bool) (*task.Task, error) {
	return r.update("set-completed", id, func(t *task.Task) { t.Completed = completed })
}

func (r *mockRepository) SetDeleted(_ context.Context, id string) (*task.Task, error) {
	return r.update("set-deleted", id, func(t *task.Task) { t.Deleted = true })
}

func (r *mockRepository) update(op, id string, fn func(*task.Task)) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[op]++
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			fn(&r.tasks[i])
			t := r.tasks[i].Clone()
			return &t, nil
		}
	}
	return nil, task.ErrNotFound
}

// recordingNotifier collects notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	created  []task.Task
	changed  []task.Task
	deleted  []task.Task
	failures []*Failure
	ops      []string
}

func (n *recordingNotifier) TaskCreated(_ context.Context, t task.Task) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, t)
}

func (n *recordingNotifier) CompletionChanged(_ context.Context, t task.Task) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, t)
}

func (n *recordingNotifier) SoftDeleted(_ context.Context, t task.Task) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, t)
}

func (n *recordingNotifier) OperationFailed(_ context.Context, f *Failure) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, f)
	n.ops = append(n.ops, f.Op)
}

var fixedNow = time.Date(2024, 1, 1, 9, 30, 0, 0, time.Local)

func newTestStore(repo task.Repository, opts ...Option) (*Store, *recordingNotifier) {
	n := &recordingNotifier{}
	opts = append([]Option{WithNotifier(n), WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewStore(repo, cache.NewMemory(time.Minute), &mockLogger{}, opts...), n
}

func mustDate(t *testing.T, s string) *task.Date {
	t.Helper()
	d, err := task.ParseDate(s)
	require.NoError(t, err)
	return &d
}

func titles(tasks []task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestStore_ListActiveTasks_Ordering(t *testing.T) {
	repo := newMockRepository(
		task.Task{ID: "a", Title: "A", DueDate: mustDate(t, "2024-01-10")},
		task.Task{ID: "b", Title: "B", DueDate: mustDate(t, "2024-01-05"), Completed: true},
		task.Task{ID: "c", Title: "C", DueDate: mustDate(t, "2024-01-02")},
		task.Task{ID: "d", Title: "D", Deleted: true},
	)
	store, _ := newTestStore(repo)

	tasks, err := store.ListActiveTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, titles(tasks))
}

func TestStore_ListActiveTasks_UsesCacheUntilMutation(t *testing.T) {
	repo := newMockRepository(task.Task{ID: "a", Title: "A"})
	store, _ := newTestStore(repo)
	ctx := context.Background()

	_, err := store.ListActiveTasks(ctx)
	require.NoError(t, err)
	_, err = store.ListActiveTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.called("list"))

	_, err = store.AddTask(ctx, "B", nil)
	require.NoError(t, err)

	tasks, err := store.ListActiveTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.called("list"))
	assert.Len(t, tasks, 2)
}

func TestStore_AddTask(t *testing.T) {
	repo := newMockRepository()
	store, notifier := newTestStore(repo)
	ctx := context.Background()

	created, err := store.AddTask(ctx, "  Buy milk  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Nil(t, created.DueDate)
	assert.False(t, created.Completed)
	assert.False(t, created.Deleted)

	tasks, err := store.ListActiveTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Nil(t, tasks[0].DueDate)
	assert.False(t, tasks[0].Completed)

	require.Len(t, notifier.created, 1)
	assert.Equal(t, created.ID, notifier.created[0].ID)
}

func TestStore_AddTask_Validation(t *testing.T) {
	tests := []struct {
		name  string
		title string
		due   string
	}{
		{name: "empty title", title: ""},
		{name: "blank title", title: "   "},
		{name: "title too long", title: strings.Repeat("x", task.MaxTitleLength+1)},
		{name: "due date in the past", title: "late", due: "2023-12-31"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMockRepository()
			store, notifier := newTestStore(repo)

			var due *task.Date
			if tc.due != "" {
				due = mustDate(t, tc.due)
			}

			_, err := store.AddTask(context.Background(), tc.title, due)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindValidation), "error = %v", err)
			assert.Equal(t, 0, repo.called("insert"))
			require.Len(t, notifier.failures, 1)
			assert.Equal(t, OpAdd, notifier.failures[0].Op)
		})
	}
}

func TestStore_AddTask_DueToday(t *testing.T) {
	store, _ := newTestStore(newMockRepository())

	created, err := store.AddTask(context.Background(), "today", mustDate(t, "2024-01-01"))
	require.NoError(t, err)
	require.NotNil(t, created.DueDate)
	assert.Equal(t, "2024-01-01", created.DueDate.String())
}

func TestStore_SetCompletion(t *testing.T) {
	repo := newMockRepository(task.Task{ID: "a", Title: "A", DueDate: mustDate(t, "2024-02-01")})
	store, notifier := newTestStore(repo)
	ctx := context.Background()

	_, err := store.ListActiveTasks(ctx)
	require.NoError(t, err)

	updated, err := store.SetCompletion(ctx, "a", true)
	require.NoError(t, err)
	assert.True(t, updated.Completed)

	tasks, err := store.ListActiveTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Completed)
	assert.Equal(t, "A", tasks[0].Title)
	assert.Equal(t, "2024-02-01", tasks[0].DueDate.String())
	assert.Equal(t, 2, repo.called("list"))

	require.Len(t, notifier.changed, 1)
	assert.True(t, notifier.changed[0].Completed)
}

func TestStore_SetCompletion_NotFound(t *testing.T) {
	store, _ := newTestStore(newMockRepository())

	_, err := store.SetCompletion(context.Background(), "missing", true)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
	assert.True(t, errors.Is(err, task.ErrNotFound))
}

func TestStore_SoftDelete_Idempotent(t *testing.T) {
	repo := newMockRepository(
		task.Task{ID: "a", Title: "A"},
		task.Task{ID: "b", Title: "B"},
	)
	store, notifier := newTestStore(repo)
	ctx := context.Background()

	_, err := store.SoftDelete(ctx, "a")
	require.NoError(t, err)
	second, err := store.SoftDelete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, second.Deleted)

	tasks, err := store.ListActiveTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, titles(tasks))
	assert.Len(t, notifier.deleted, 2)
}

func TestStore_SoftDelete_NotFound(t *testing.T) {
	store, _ := newTestStore(newMockRepository())

	_, err := store.SoftDelete(context.Background(), "missing")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestStore_SoftDelete_FailureNamesTask(t *testing.T) {
	repo := newMockRepository(task.Task{ID: "a", Title: "Water plants"})
	store, _ := newTestStore(repo)
	ctx := context.Background()

	_, err := store.ListActiveTasks(ctx)
	require.NoError(t, err)

	repo.err = errors.New("connection reset")
	_, err = store.SoftDelete(ctx, "a")
	require.Error(t, err)

	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, f.Kind)
	assert.Equal(t, "failed to move task 'Water plants' to the trash", f.Message())
	assert.Contains(t, err.Error(), "connection reset")
}

func TestStore_TransportFailureKeepsCache(t *testing.T) {
	repo := newMockRepository(task.Task{ID: "a", Title: "A"})
	store, _ := newTestStore(repo)
	ctx := context.Background()

	_, err := store.ListActiveTasks(ctx)
	require.NoError(t, err)

	repo.err = errors.New("service unavailable")
	_, err = store.AddTask(ctx, "B", nil)
	assert.True(t, IsKind(err, KindTransport))

	tasks, err := store.ListActiveTasks(ctx)
	require.NoError(t, err, "stale listing should still be served")
	assert.Equal(t, []string{"A"}, titles(tasks))
	assert.Equal(t, 1, repo.called("list"))
}

func TestStore_ListFailureReturnsEmptySlice(t *testing.T) {
	repo := newMockRepository()
	repo.err = errors.New("timeout")
	store, notifier := newTestStore(repo)

	tasks, err := store.ListActiveTasks(context.Background())
	require.Error(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
	assert.True(t, IsKind(err, KindTransport))
	require.Len(t, notifier.failures, 1)
	assert.Equal(t, "failed to load tasks", notifier.failures[0].Message())
}

func TestStore_Disconnected(t *testing.T) {
	repo := task.Disconnected{Reason: errors.New("store url and key are not configured")}
	store, notifier := newTestStore(repo)
	ctx := context.Background()

	tasks, err := store.ListActiveTasks(ctx)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
	assert.True(t, IsKind(err, KindConfiguration))

	_, err = store.AddTask(ctx, "anything", nil)
	assert.True(t, IsKind(err, KindConfiguration))

	_, err = store.SetCompletion(ctx, "1", true)
	assert.True(t, IsKind(err, KindConfiguration))

	_, err = store.SoftDelete(ctx, "1")
	assert.True(t, IsKind(err, KindConfiguration))

	assert.Len(t, notifier.failures, 4)
}

func TestStore_Summary(t *testing.T) {
	repo := newMockRepository(
		task.Task{ID: "a", Title: "A"},
		task.Task{ID: "b", Title: "B", Completed: true},
		task.Task{ID: "c", Title: "C"},
		task.Task{ID: "d", Title: "D", Deleted: true},
	)
	store, _ := newTestStore(repo)

	summary, err := store.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, task.Summary{Pending: 2, Completed: 1, Total: 3}, summary)
}

func TestStore_Summary_Failure(t *testing.T) {
	store, notifier := newTestStore(task.Disconnected{})

	summary, err := store.Summary(context.Background())
	assert.Equal(t, task.Summary{}, summary)
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, OpSummary, f.Op)
	assert.Equal(t, KindConfiguration, f.Kind)
	assert.Equal(t, []string{OpSummary}, notifier.ops, "failure is reported under the summary operation")
}

func TestStore_NilCacheDefaultsToMemory(t *testing.T) {
	store := NewStore(newMockRepository(), nil, &mockLogger{})
	assert.Equal(t, "memory", store.CacheStats().Backend)
	assert.Equal(t, cache.DefaultTTL, store.CacheStats().TTL)
}
