package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/missionctl/taskrelay/internal/config"
	"github.com/missionctl/taskrelay/internal/handler/dto"
	"github.com/missionctl/taskrelay/internal/middleware"
	"github.com/missionctl/taskrelay/internal/relay"
	"github.com/missionctl/taskrelay/internal/static"
	"github.com/missionctl/taskrelay/internal/store"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store          store.Store
	issuer         *relay.Issuer
	correlator     *relay.Correlator
	webhookSecret  string
	authMiddleware *middleware.AuthMiddleware
}

// New creates a new Handler instance with all dependencies.
func New(st store.Store, issuer *relay.Issuer, correlator *relay.Correlator, cfg *config.Relay) *Handler {
	return &Handler{
		store:          st,
		issuer:         issuer,
		correlator:     correlator,
		webhookSecret:  cfg.WebhookSecret,
		authMiddleware: middleware.NewAuthMiddleware(cfg.APIToken),
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	// Static usage doc for operators and agents
	mux.HandleFunc("GET /skill.md", h.handleSkillMd)

	// Dashboard API with authentication
	mux.Handle("POST /api/v1/tasks", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleSubmitTask)))
	mux.Handle("GET /api/v1/tasks", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleListTasks)))
	mux.Handle("GET /api/v1/tasks/{id}", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleGetTask)))
	mux.Handle("POST /api/v1/tasks/poll", h.authMiddleware.Authenticate(http.HandlerFunc(h.handlePollTasks)))

	// The messaging channel posts updates here. It authenticates with the
	// webhook secret header, not the dashboard token, and the handler does
	// its own method check so non-POST gets the channel-friendly 405 body.
	mux.HandleFunc("/webhook/telegram", h.handleTelegramWebhook)
}

// handleHealthz returns 200 OK if the durable store is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Error("store health check failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleSkillMd serves the embedded skill.md usage doc.
func (h *Handler) handleSkillMd(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(static.SkillMd))
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}
