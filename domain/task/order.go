package task

import "slices"

// Compare orders tasks for display: incomplete before completed, then by due
// date ascending. Tasks without a due date go last within their group.
func Compare(a, b Task) int {
	if a.Completed != b.Completed {
		if !a.Completed {
			return -1
		}
		return 1
	}
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	return a.DueDate.Compare(*b.DueDate)
}

// Sort orders tasks in place using Compare. Equal tasks keep their relative order.
func Sort(tasks []Task) {
	slices.SortStableFunc(tasks, Compare)
}

// Active returns the tasks that are not soft-deleted, preserving order.
func Active(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Deleted {
			out = append(out, t)
		}
	}
	return out
}
