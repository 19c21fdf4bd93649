package task

// Task is a single to-do item.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	DueDate   *Date  `json:"due_date"`
	Completed bool   `json:"completed"`
	Deleted   bool   `json:"is_deleted"`
}

// NewTask carries the fields accepted when creating a task.
// Completed and Deleted always start out false.
type NewTask struct {
	Title   string `json:"title"`
	DueDate *Date  `json:"due_date,omitempty"`
}

// Clone returns a copy of t that shares no memory with it.
func (t Task) Clone() Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

// CloneAll copies a slice of tasks. A nil input yields an empty, non-nil slice.
func CloneAll(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// Summary counts visible tasks by completion state.
type Summary struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Summarize counts the tasks that are not soft-deleted.
func Summarize(tasks []Task) Summary {
	var s Summary
	for _, t := range tasks {
		if t.Deleted {
			continue
		}
		if t.Completed {
			s.Completed++
		} else {
			s.Pending++
		}
	}
	s.Total = s.Pending + s.Completed
	return s
}
