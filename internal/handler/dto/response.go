package dto

import (
	"github.com/missionctl/taskrelay/internal/domain"
)

// TaskDetail represents the full task object. Timestamps are epoch millis,
// matching the durable record.
type TaskDetail struct {
	ID          string            `json:"id"`
	Handler     string            `json:"handler"`
	HandlerName string            `json:"handler_name"`
	HandlerRole string            `json:"handler_role"`
	Request     string            `json:"request"`
	Status      string            `json:"status"`
	CreatedAt   int64             `json:"created_at"`
	Response    *TaskResponseInfo `json:"response,omitempty"`
}

// TaskResponseInfo represents the operator reply on a completed task.
type TaskResponseInfo struct {
	Content     string `json:"content"`
	CompletedAt int64  `json:"completed_at"`
}

// TasksListResponse represents the response for GET /tasks.
type TasksListResponse struct {
	Tasks []TaskDetail `json:"tasks"`
	Total int          `json:"total"`
}

// PollResponse represents the response for POST /tasks/poll: the completions
// surfaced by this call, each of which will never be returned again.
type PollResponse struct {
	Completed []TaskDetail `json:"completed"`
	Count     int          `json:"count"`
}

// WebhookAck is the acknowledgement returned to the messaging channel.
type WebhookAck struct {
	OK      bool   `json:"ok"`
	TaskID  string `json:"task_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// ToTaskDetail converts domain.Task to TaskDetail.
func ToTaskDetail(task *domain.Task) TaskDetail {
	detail := TaskDetail{
		ID:          task.ID,
		Handler:     string(task.HandlerTag),
		HandlerName: task.HandlerTag.DisplayName(),
		HandlerRole: task.HandlerTag.Role(),
		Request:     task.Request,
		Status:      string(task.Status),
		CreatedAt:   task.CreatedAt,
	}
	if task.Response != nil {
		detail.Response = &TaskResponseInfo{
			Content:     task.Response.Content,
			CompletedAt: task.Response.CompletedAt,
		}
	}
	return detail
}

// ToTaskDetails converts a slice of tasks.
func ToTaskDetails(tasks []*domain.Task) []TaskDetail {
	details := make([]TaskDetail, len(tasks))
	for i, task := range tasks {
		details[i] = ToTaskDetail(task)
	}
	return details
}
