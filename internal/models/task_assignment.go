package models

import "time"

// TaskAssignment links a user to a task. The composite primary key makes a
// second assignment of the same user to the same task a uniqueness violation.
type TaskAssignment struct {
	TaskID       string    `gorm:"type:varchar(36);primarykey" json:"task_id"`
	AssigneeID   string    `gorm:"type:varchar(36);primarykey;index" json:"assignee_id"`
	AssignedByID string    `gorm:"type:varchar(36);not null" json:"assigned_by_id"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	Task       *Task `gorm:"foreignKey:TaskID" json:"-"`
	Assignee   User  `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	AssignedBy User  `gorm:"foreignKey:AssignedByID" json:"assigned_by,omitempty"`
}
