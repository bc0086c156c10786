package messaging

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/estimator/internal/platform/httpx"
	"github.com/odyssey-erp/estimator/internal/shared"
)

// Handler accepts message requests.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a messaging handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// SendEstimate handles POST /api/estimates/{id}/message. It answers 200 once
// the host accepted the message, 202 when queued, and 502 with the host's
// answer when it was rejected.
func (h *Handler) SendEstimate(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	estimateID := chi.URLParam(r, "id")
	res, err := h.service.SendEstimate(r.Context(), id, estimateID, in)
	if err != nil {
		h.logger.Warn("estimate message failed", slog.String("estimate_id", estimateID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	status := http.StatusOK
	if res.State == StateQueued {
		status = http.StatusAccepted
	}
	httpx.JSON(w, status, res)
}

// MessageStatus handles GET /api/estimates/{id}/message/{taskID}.
func (h *Handler) MessageStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	status, err := h.service.MessageStatus(r.Context(), id, chi.URLParam(r, "id"), chi.URLParam(r, "taskID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}
