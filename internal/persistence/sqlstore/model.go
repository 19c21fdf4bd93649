package sqlstore

import (
	"time"

	"github.com/example/task-tracker/domain/task"
)

// taskRow is the gorm model of the tasks table.
type taskRow struct {
	ID        string     `gorm:"primarykey;size:36"`
	Title     string     `gorm:"size:255;not null"`
	DueDate   *time.Time `gorm:"index"`
	Completed bool       `gorm:"not null;default:false"`
	IsDeleted bool       `gorm:"not null;default:false;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (taskRow) TableName() string {
	return "tasks"
}

func (r taskRow) toDomain() task.Task {
	t := task.Task{
		ID:        r.ID,
		Title:     r.Title,
		Completed: r.Completed,
		Deleted:   r.IsDeleted,
	}
	if r.DueDate != nil {
		d := task.DateOf(r.DueDate.UTC())
		t.DueDate = &d
	}
	return t
}

func dueTime(d *task.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time()
	return &t
}
