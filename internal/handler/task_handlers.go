package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/missionctl/taskrelay/internal/domain"
	"github.com/missionctl/taskrelay/internal/handler/dto"
)

// handleSubmitTask creates a pending task and dispatches the operator
// notification.
// @Summary Submit a task
// @Description Creates a pending task for a handler and notifies the operator channel. Returns immediately; completion is discovered via poll.
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body dto.SubmitTaskRequest true "Task submission"
// @Success 201 {object} dto.TaskDetail
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks [post]
func (h *Handler) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.SubmitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	task, err := h.issuer.Submit(ctx, domain.HandlerTag(req.Handler), req.Request)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToTaskDetail(task))
}

// handleGetTask reads the durable record for a task id.
// @Summary Get a task
// @Description Reads the durable record by id; reflects completions written by the operator channel.
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} dto.TaskDetail
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.PathValue("id")
	if !domain.IsTaskID(id) {
		status, code, message := dto.MapDomainError(fmt.Errorf("%w: %q", domain.ErrInvalidTaskID, id))
		respondError(w, status, code, message)
		return
	}

	task, err := h.store.Get(ctx, id)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskDetail(task))
}

// handleListTasks returns the issuer's local task mirror, newest first.
// @Summary List tasks
// @Description Lists tasks known to this issuer instance, newest first.
// @Tags tasks
// @Produce json
// @Success 200 {object} dto.TasksListResponse
// @Security BearerAuth
// @Router /tasks [get]
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.issuer.Tasks()
	respondJSON(w, http.StatusOK, dto.TasksListResponse{
		Tasks: dto.ToTaskDetails(tasks),
		Total: len(tasks),
	})
}

// handlePollTasks surfaces newly completed tasks, each exactly once.
// @Summary Poll for completions
// @Description Returns completions not surfaced before. Repeated calls after a single completion return it exactly once.
// @Tags tasks
// @Produce json
// @Success 200 {object} dto.PollResponse
// @Security BearerAuth
// @Router /tasks/poll [post]
func (h *Handler) handlePollTasks(w http.ResponseWriter, r *http.Request) {
	completed := h.issuer.Poll(r.Context())
	respondJSON(w, http.StatusOK, dto.PollResponse{
		Completed: dto.ToTaskDetails(completed),
		Count:     len(completed),
	})
}
