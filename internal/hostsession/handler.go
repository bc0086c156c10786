package hostsession

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/estimator/internal/platform/httpx"
	"github.com/odyssey-erp/estimator/internal/shared"
)

// Handler serves the handshake endpoints.
type Handler struct {
	logger    *slog.Logger
	exchanger *Exchanger
	store     *Store
}

// NewHandler constructs a session handler.
func NewHandler(logger *slog.Logger, exchanger *Exchanger, store *Store) *Handler {
	return &Handler{logger: logger, exchanger: exchanger, store: store}
}

type exchangeResponse struct {
	SessionID     string    `json:"session_id"`
	HostSessionID string    `json:"host_session_id"`
	UserID        string    `json:"user_id"`
	PageID        string    `json:"page_id,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// MountRoutes attaches /api/session routes. They sit outside the identity middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/exchange", h.Exchange)
	r.Get("/", h.Show)
	r.Delete("/", h.Reset)
}

func (h *Handler) Exchange(w http.ResponseWriter, r *http.Request) {
	var req ExchangeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sess, err := h.exchanger.Exchange(r.Context(), r.Header.Get("Origin"), req)
	if err != nil {
		h.logger.Warn("session exchange rejected", slog.String("user_id", req.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("session established", slog.String("user_id", sess.UserID), slog.String("page_id", sess.PageID))
	httpx.JSON(w, http.StatusCreated, exchangeResponse{
		SessionID:     sess.ID,
		HostSessionID: sess.HostSessionID,
		UserID:        sess.UserID,
		PageID:        sess.PageID,
		ExpiresAt:     sess.ExpiresAt,
	})
}

// Show reports the session bound to the bearer.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	token, err := BearerToken(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	sess, err := h.store.Load(r.Context(), token)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sess)
}

// Reset ends the bearer session.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	token, err := BearerToken(r)
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.store.Destroy(r.Context(), token); err != nil {
		h.logger.Error("session reset failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
