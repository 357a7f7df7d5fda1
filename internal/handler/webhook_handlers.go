package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/missionctl/taskrelay/internal/handler/dto"
	"github.com/missionctl/taskrelay/internal/middleware"
	"github.com/missionctl/taskrelay/internal/relay"
	"github.com/mymmrac/telego"
)

// webhookSecretHeader is the header Telegram echoes back when a webhook is
// registered with a secret token.
const webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// handleTelegramWebhook ingests updates from the messaging channel.
//
// The channel must never be told to retry because a message had no
// recognizable task in it, so every outcome except a failed persist is
// acknowledged with 200. A 500 is returned only when the completion could
// not be written; the channel's own retry policy then redelivers the update.
func (h *Handler) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	if h.webhookSecret != "" && r.Header.Get(webhookSecretHeader) != h.webhookSecret {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "invalid webhook secret")
		return
	}

	var update telego.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		// Malformed updates are acknowledged so the channel does not retry.
		respondJSON(w, http.StatusOK, dto.WebhookAck{OK: true})
		return
	}

	if update.Message == nil || update.Message.Text == "" {
		respondJSON(w, http.StatusOK, dto.WebhookAck{OK: true})
		return
	}

	result, err := h.correlator.HandleMessage(r.Context(), update.Message.Chat.ID, update.Message.Text)
	if err != nil {
		slog.Error("failed to persist task completion",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		respondError(w, http.StatusInternalServerError, "PERSIST_FAILED", "failed to save response")
		return
	}

	switch result.Outcome {
	case relay.OutcomeCompleted:
		respondJSON(w, http.StatusOK, dto.WebhookAck{
			OK:      true,
			TaskID:  result.Task.ID,
			Message: "response saved",
		})
	case relay.OutcomeNoMatch:
		respondJSON(w, http.StatusOK, dto.WebhookAck{
			OK:      true,
			Message: "no task id found in message",
		})
	default:
		respondJSON(w, http.StatusOK, dto.WebhookAck{OK: true})
	}
}
