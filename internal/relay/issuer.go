// Package relay implements the task relay pipeline: the issuer that turns
// dashboard submissions into durable pending tasks and the correlator that
// maps operator replies back onto them. The two paths share nothing but the
// durable store.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/missionctl/taskrelay/internal/domain"
	"github.com/missionctl/taskrelay/internal/notify"
	"github.com/missionctl/taskrelay/internal/store"
)

// notifyTimeout bounds the fire-and-forget outbound send so a hung channel
// call cannot leak goroutines.
const notifyTimeout = 30 * time.Second

// Issuer turns user submissions into durable pending tasks and discovers
// their completions by polling the store. It keeps a local cache of the
// tasks it issued; the cache is the only reconciliation mechanism between
// the local and durable copies.
type Issuer struct {
	store    store.Store
	notifier notify.Notifier

	// Now returns the current time in epoch milliseconds. Tests override it.
	Now func() int64

	mu       sync.Mutex
	tasks    map[string]*domain.Task
	surfaced map[string]bool
}

// NewIssuer creates an Issuer over the given store and notifier.
func NewIssuer(st store.Store, notifier notify.Notifier) *Issuer {
	return &Issuer{
		store:    st,
		notifier: notifier,
		Now:      domain.NowMillis,
		tasks:    make(map[string]*domain.Task),
		surfaced: make(map[string]bool),
	}
}

// Submit validates and persists a new pending task, then dispatches the
// operator notification without waiting for it. Resubmission is not
// idempotent: the same request submitted twice creates two distinct tasks.
func (i *Issuer) Submit(ctx context.Context, tag domain.HandlerTag, request string) (*domain.Task, error) {
	if strings.TrimSpace(request) == "" {
		return nil, domain.ErrEmptyRequest
	}
	if !tag.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownHandler, tag)
	}

	now := i.Now()
	task := &domain.Task{
		ID:         domain.NewTaskID(tag, now),
		HandlerTag: tag,
		Request:    request,
		Status:     domain.TaskStatusPending,
		CreatedAt:  now,
	}

	if err := i.store.Put(ctx, task); err != nil {
		return nil, fmt.Errorf("persist task %s: %w", task.ID, err)
	}

	i.mu.Lock()
	i.tasks[task.ID] = task.Clone()
	i.mu.Unlock()

	go i.dispatchNotification(task.Clone())

	slog.Info("task submitted", "task_id", task.ID, "handler", tag)
	return task, nil
}

// dispatchNotification runs the outbound send off the submit path. A failure
// leaves the task pending and retrievable; there is no automatic retry.
func (i *Issuer) dispatchNotification(task *domain.Task) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	ref, err := i.notifier.Notify(ctx, task)
	if err != nil {
		slog.Error("task notification failed",
			"task_id", task.ID,
			"error", err,
		)
		return
	}
	slog.Info("task notification sent",
		"task_id", task.ID,
		"message_id", ref.MessageID,
	)
}

// Poll queries the store for every locally pending task and returns the
// completions not surfaced before; each completion is surfaced exactly once
// across any number of calls. A missing record or a store error means "not
// ready yet" and is retried on the next poll, indefinitely.
func (i *Issuer) Poll(ctx context.Context) []*domain.Task {
	i.mu.Lock()
	pending := make([]string, 0, len(i.tasks))
	for id, task := range i.tasks {
		if task.Status == domain.TaskStatusPending && !i.surfaced[id] {
			pending = append(pending, id)
		}
	}
	i.mu.Unlock()
	sort.Strings(pending)

	var completed []*domain.Task
	for _, id := range pending {
		stored, err := i.store.Get(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrTaskNotFound) {
				slog.Debug("task not ready", "task_id", id, "error", err)
			}
			continue
		}
		if !stored.IsCompleted() {
			continue
		}

		i.mu.Lock()
		if i.surfaced[id] {
			i.mu.Unlock()
			continue
		}
		i.surfaced[id] = true
		local := i.tasks[id]
		local.Status = domain.TaskStatusCompleted
		local.Response = stored.Clone().Response
		surfacedCopy := local.Clone()
		i.mu.Unlock()

		completed = append(completed, surfacedCopy)
		slog.Info("task completion surfaced",
			"task_id", id,
			"handler", surfacedCopy.HandlerTag,
		)
	}
	return completed
}

// Tasks returns a snapshot of all locally known tasks, newest first. This
// backs the dashboard list; it does not consult the durable store.
func (i *Issuer) Tasks() []*domain.Task {
	i.mu.Lock()
	snapshot := make([]*domain.Task, 0, len(i.tasks))
	for _, task := range i.tasks {
		snapshot = append(snapshot, task.Clone())
	}
	i.mu.Unlock()

	sort.Slice(snapshot, func(a, b int) bool {
		if snapshot[a].CreatedAt != snapshot[b].CreatedAt {
			return snapshot[a].CreatedAt > snapshot[b].CreatedAt
		}
		return snapshot[a].ID < snapshot[b].ID
	})
	return snapshot
}
