package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/missionctl/taskrelay/internal/domain"
	"github.com/missionctl/taskrelay/internal/store"
)

// Outcome classifies how the correlator disposed of an inbound message.
type Outcome string

const (
	// OutcomeIgnored means the sender is not on the allow-list.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeNoMatch means the text contained no task id.
	OutcomeNoMatch Outcome = "no_match"
	// OutcomeCompleted means a completion record was written.
	OutcomeCompleted Outcome = "completed"
)

// Result is the correlator's disposition of one inbound message.
type Result struct {
	Outcome Outcome
	Task    *domain.Task
}

// Correlator parses operator replies from the messaging channel and writes
// completion records. It holds no state between messages beyond what lives
// in the durable store.
type Correlator struct {
	store   store.Store
	allowed map[int64]bool

	// Now returns the current time in epoch milliseconds. Tests override it.
	Now func() int64
}

// NewCorrelator creates a Correlator that accepts replies only from the
// given chat ids.
func NewCorrelator(st store.Store, allowedChatIDs []int64) *Correlator {
	allowed := make(map[int64]bool, len(allowedChatIDs))
	for _, id := range allowedChatIDs {
		allowed[id] = true
	}
	return &Correlator{
		store:   st,
		allowed: allowed,
		Now:     domain.NowMillis,
	}
}

// HandleMessage runs the filter, extract, segment and persist steps for one
// inbound message. Every miss is an acknowledged no-op; only the persist
// step can fail, and a failure there is the caller's signal to let the
// channel retry delivery.
func (c *Correlator) HandleMessage(ctx context.Context, chatID int64, text string) (*Result, error) {
	if !c.allowed[chatID] {
		slog.Debug("message from unauthorized chat ignored", "chat_id", chatID)
		return &Result{Outcome: OutcomeIgnored}, nil
	}

	id := domain.ExtractTaskID(text)
	if id == "" {
		return &Result{Outcome: OutcomeNoMatch}, nil
	}

	tag, _ := domain.HandlerFromID(id)
	now := c.Now()

	task := &domain.Task{
		ID:         id,
		HandlerTag: tag,
		Status:     domain.TaskStatusCompleted,
		CreatedAt:  now,
		Response: &domain.TaskResponse{
			Content:     domain.SplitResponse(text, id),
			CompletedAt: now,
		},
	}

	// A reply may reference an id the store has never seen; the completion is
	// written regardless. When a prior record exists its request text and
	// creation time survive the overwrite.
	if prior, err := c.store.Get(ctx, id); err == nil {
		task.Request = prior.Request
		task.CreatedAt = prior.CreatedAt
	}

	if err := c.store.Put(ctx, task); err != nil {
		return nil, fmt.Errorf("persist completion for task %s: %w", id, err)
	}

	slog.Info("task completion recorded",
		"task_id", id,
		"chat_id", chatID,
	)
	return &Result{Outcome: OutcomeCompleted, Task: task}, nil
}
