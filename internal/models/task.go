package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task. Any status may move to any
// other; only the value itself is validated.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// ParseTaskStatus validates a status string from the API boundary.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// Task is a work item attached to an event.
type Task struct {
	ID          uuid.UUID   `json:"id"`
	EventID     uuid.UUID   `json:"event_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Status      TaskStatus  `json:"status"`
	AssigneeID  *uuid.UUID  `json:"assignee_id,omitempty"`
	Assignee    *UserPublic `json:"assignee,omitempty"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
