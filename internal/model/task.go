package model

import (
	"time"

	"gorm.io/gorm"
)

// PendingID marks a task that exists only in the local cache and has not
// been assigned a database id yet.
const PendingID int64 = -1

// Task represents a single item on the board. Urgency and score are derived
// on every read and never stored, so they cannot go stale.
type Task struct {
	ID           int64          `gorm:"primaryKey" json:"id"`
	UserID       int64          `gorm:"index" json:"user_id"`
	Title        string         `json:"title"`
	Importance   int            `json:"importance"` // 0..5, see priority.ImportanceLabels
	Duration     int            `json:"duration"`   // 0..5, see priority.DurationLabels
	Due          *time.Time     `json:"due"`
	ProjectTitle string         `gorm:"index" json:"project_title"`
	CompletedAt  *time.Time     `json:"completed_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Completed reports whether the task has been marked done.
func (t Task) Completed() bool { return t.CompletedAt != nil }

// TaskDependency is a directed edge: the prerequisite must be completed
// before the dependent task.
type TaskDependency struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	TaskID         int64     `gorm:"index:idx_task_prereq,unique" json:"task_id"`
	PrerequisiteID int64     `gorm:"index:idx_task_prereq,unique" json:"prerequisite_id"`
	CreatedAt      time.Time `json:"created_at"`
}
