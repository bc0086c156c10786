package clients

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/estimator/internal/platform/httpx"
	"github.com/odyssey-erp/estimator/internal/shared"
)

// Handler exposes a tenant's clients over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a client handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches client routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func owner(r *http.Request) (string, bool) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		return "", false
	}
	return id.OwnerID(), true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	page, perPage := shared.PageFromQuery(r.URL.Query())
	pg := shared.NewPagination(page, perPage, 0)
	list, total, err := h.service.List(r.Context(), ListClientsRequest{
		OwnerID: ownerID,
		Search:  r.URL.Query().Get("q"),
		Limit:   pg.PerPage,
		Offset:  pg.Offset(),
	})
	if err != nil {
		h.logger.Error("list clients failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Client{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"clients":    list,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	c, err := h.service.Get(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var req SaveClientRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), ownerID, req)
	if err != nil {
		h.logger.Warn("create client failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var req SaveClientRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Update(r.Context(), ownerID, chi.URLParam(r, "id"), req)
	if err != nil {
		h.logger.Warn("update client failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
