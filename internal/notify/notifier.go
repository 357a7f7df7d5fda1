// Package notify delivers task renderings to a human operator over an
// external messaging channel.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/missionctl/taskrelay/internal/domain"
)

// ErrSendFailed wraps transport and channel API failures. Delivery is best
// effort: callers do not retry, and a failed send never rolls back the task.
var ErrSendFailed = errors.New("notification send failed")

// MessageRef identifies a delivered message on the external channel.
type MessageRef struct {
	MessageID int
}

// Notifier delivers a rendering of a task to the operator channel and
// returns a channel-assigned reference for the delivered message.
type Notifier interface {
	Notify(ctx context.Context, task *domain.Task) (MessageRef, error)
}

// RenderMessage formats the outbound operator message for a task. The
// request text is included in full, untruncated.
func RenderMessage(task *domain.Task) string {
	created := time.UnixMilli(task.CreatedAt).Local().Format("2006-01-02 15:04:05")
	return fmt.Sprintf(`📋 NEW TASK

🤖 Agent: %s
🆔 Task ID: %s
⏰ Time: %s

📝 REQUEST:
"%s"

Reply to complete this task.`,
		task.HandlerTag.DisplayName(), task.ID, created, task.Request)
}

// Discard is a Notifier that logs instead of sending. It backs local
// development when no bot token is configured.
var Discard Notifier = discardNotifier{}

type discardNotifier struct{}

func (discardNotifier) Notify(_ context.Context, task *domain.Task) (MessageRef, error) {
	slog.Info("notification discarded, no channel configured", "task_id", task.ID)
	return MessageRef{}, nil
}
