package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/estimator/internal/platform/httpx"
	"github.com/odyssey-erp/estimator/internal/shared"
)

// Handler exposes the catalog over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Snapshot)
	r.Post("/match", h.Match)
	r.Route("/{kind}", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Show)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Get("/{id}/draft", h.Draft)
	})
}

func kindParam(r *http.Request) (Kind, error) {
	switch chi.URLParam(r, "kind") {
	case "services":
		return KindService, nil
	case "parts":
		return KindPart, nil
	}
	return "", shared.NewValidationError("kind", "expected services or parts")
}

func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("catalog snapshot failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

type matchRequest struct {
	Descriptions []string `json:"descriptions"`
}

func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	matched, err := h.service.MatchAll(r.Context(), req.Descriptions)
	if err != nil {
		h.logger.Error("catalog match failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]*MatchView, len(matched))
	for i, item := range matched {
		if item != nil {
			out[i] = NewMatchView(*item)
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"matches": out})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.List(r.Context(), kind)
	if err != nil {
		h.logger.Error("list catalog failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Item{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Get(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req SaveItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Create(r.Context(), kind, req)
	if err != nil {
		h.logger.Warn("create catalog item failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req SaveItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Update(r.Context(), kind, chi.URLParam(r, "id"), req)
	if err != nil {
		h.logger.Warn("update catalog item failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Draft(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	draft, err := h.service.Draft(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, draft)
}
