package assist

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/estimator/internal/platform/httpx"
)

// Handler exposes the assist endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the assist handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers assist routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/description", h.describe)
	r.Post("/image", h.image)
}

type describeRequest struct {
	Keywords string `json:"keywords"`
}

type imageRequest struct {
	Name string `json:"name"`
}

func (h *Handler) describe(w http.ResponseWriter, r *http.Request) {
	var req describeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	text, err := h.service.Describe(r.Context(), req.Keywords)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"description": text})
}

func (h *Handler) image(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	url, err := h.service.Image(r.Context(), req.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"image_url": url})
}
