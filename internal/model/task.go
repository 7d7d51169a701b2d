package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "PENDING"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
	StatusBlocked    TaskStatus = "BLOCKED"
)

// TaskStatuses lists the statuses in board column order.
var TaskStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted, StatusBlocked}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

// TaskPriorities lists priorities from most to least urgent.
var TaskPriorities = []TaskPriority{PriorityHigh, PriorityMedium, PriorityLow}

func (p TaskPriority) Valid() bool {
	for _, v := range TaskPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// Rank orders priorities numerically. An unset priority ranks 0.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Task is a unit of work, optionally tied to an exchange. Status and
// Priority may be empty, which every consumer treats as "unset".
type Task struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `gorm:"type:varchar(16)" json:"status,omitempty"`
	Priority    TaskPriority `gorm:"type:varchar(8)" json:"priority,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	AssigneeID  *uuid.UUID   `gorm:"type:uuid;index" json:"assignee_id,omitempty"`
	ExchangeID  *uuid.UUID   `gorm:"type:uuid;index" json:"exchange_id,omitempty"`
	CreatedBy   *uuid.UUID   `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	Tags         []string `gorm:"serializer:json" json:"tags,omitempty"`
	SubtaskCount int      `json:"subtask_count,omitempty"`
	SubtasksDone int      `json:"subtasks_done,omitempty"`

	Assignee *User `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
}

// Progress returns the share of finished subtasks in [0, 100].
func (t Task) Progress() int {
	if t.Status == StatusCompleted {
		return 100
	}
	if t.SubtaskCount <= 0 {
		return 0
	}
	done := t.SubtasksDone
	if done > t.SubtaskCount {
		done = t.SubtaskCount
	}
	return done * 100 / t.SubtaskCount
}
