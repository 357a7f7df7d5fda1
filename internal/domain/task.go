package domain

import (
	"fmt"
	"time"
)

// TaskStatus represents the lifecycle state of a task.
// The lifecycle is monotonic: pending -> completed, never back.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// IsValid checks if the status is one of the allowed values.
func (s TaskStatus) IsValid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

// TaskResponse is the operator's reply attached to a completed task.
type TaskResponse struct {
	Content     string
	CompletedAt int64
}

// Task is a unit of work submitted from the dashboard, relayed to a human
// operator over the messaging channel and completed by their reply.
// All timestamps are epoch milliseconds.
type Task struct {
	ID         string
	HandlerTag HandlerTag
	Request    string
	Status     TaskStatus
	CreatedAt  int64
	Response   *TaskResponse
}

// IsCompleted reports whether the task carries a populated completion.
// A completed status without response content is treated as not ready.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted && t.Response != nil && t.Response.Content != ""
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	if t.Response != nil {
		r := *t.Response
		c.Response = &r
	}
	return &c
}

// NewTaskID mints a task id from a handler tag and a creation time in epoch
// milliseconds. Uniqueness relies on millisecond resolution per tag.
func NewTaskID(tag HandlerTag, millis int64) string {
	return fmt.Sprintf("%s-%d", tag, millis)
}

// NowMillis returns the current time as epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
