package documents

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/estimator/internal/platform/httpx"
	"github.com/odyssey-erp/estimator/internal/shared"
)

// Handler exposes estimates, invoices and the calculation controller.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a document handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountEstimateRoutes attaches /api/estimates routes.
func (h *Handler) MountEstimateRoutes(r chi.Router) {
	r.Get("/", h.ListEstimates)
	r.Post("/", h.CreateEstimate)
	r.Get("/{id}", h.ShowEstimate)
	r.Put("/{id}", h.UpdateEstimate)
	r.Delete("/{id}", h.DeleteEstimate)
	r.Post("/{id}/status", h.TransitionEstimate)
	r.Post("/{id}/convert", h.ConvertEstimate)
}

// MountInvoiceRoutes attaches /api/invoices routes.
func (h *Handler) MountInvoiceRoutes(r chi.Router) {
	r.Get("/", h.ListInvoices)
	r.Post("/", h.CreateInvoice)
	r.Get("/{id}", h.ShowInvoice)
	r.Put("/{id}", h.UpdateInvoice)
	r.Delete("/{id}", h.DeleteInvoice)
	r.Post("/{id}/status", h.TransitionInvoice)
}

func owner(r *http.Request) (string, bool) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		return "", false
	}
	return id.OwnerID(), true
}

func listRequest(r *http.Request, ownerID string) (ListRequest, int, int) {
	q := r.URL.Query()
	page, perPage := shared.PageFromQuery(q)
	pg := shared.NewPagination(page, perPage, 0)
	req := ListRequest{OwnerID: ownerID, Limit: pg.PerPage, Offset: pg.Offset()}
	if v := q.Get("client_id"); v != "" {
		req.ClientID = &v
	}
	if v := q.Get("status"); v != "" {
		req.Status = &v
	}
	return req, page, perPage
}

// Calculate returns derived totals for a draft form.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp, err := h.service.Calculate(r.Context(), req)
	if err != nil {
		h.logger.Error("calculate failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) ListEstimates(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	req, page, perPage := listRequest(r, ownerID)
	list, total, err := h.service.ListEstimates(r.Context(), req)
	if err != nil {
		h.logger.Error("list estimates failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views, err := h.service.EstimateViews(r.Context(), list)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"estimates":  views,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) ShowEstimate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	e, err := h.service.GetEstimate(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.writeEstimate(w, r, http.StatusOK, e)
}

func (h *Handler) CreateEstimate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var req SaveEstimateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.CreateEstimate(r.Context(), ownerID, req)
	if err != nil {
		h.logger.Warn("create estimate failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.writeEstimate(w, r, http.StatusCreated, e)
}

func (h *Handler) UpdateEstimate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var req SaveEstimateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.UpdateEstimate(r.Context(), ownerID, chi.URLParam(r, "id"), req)
	if err != nil {
		h.logger.Warn("update estimate failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.writeEstimate(w, r, http.StatusOK, e)
}

func (h *Handler) DeleteEstimate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	if err := h.service.DeleteEstimate(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) TransitionEstimate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var req TransitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.TransitionEstimate(r.Context(), ownerID, chi.URLParam(r, "id"), EstimateStatus(req.Status))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.writeEstimate(w, r, http.StatusOK, e)
}

// ConvertEstimate answers 201 with the new invoice, or 303 to the invoice an
// earlier conversion produced.
func (h *Handler) ConvertEstimate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	result, err := h.service.ConvertEstimateToInvoice(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	location := "/api/invoices/" + result.InvoiceID
	if !result.Created {
		w.Header().Set("Location", location)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), ownerID, result.InvoiceID)
	if err != nil {
		h.logger.Error("load converted invoice failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Location", location)
	h.writeInvoice(w, r, http.StatusCreated, inv)
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	req, page, perPage := listRequest(r, ownerID)
	list, total, err := h.service.ListInvoices(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views, err := h.service.InvoiceViews(r.Context(), list)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"invoices":   views,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) ShowInvoice(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.writeInvoice(w, r, http.StatusOK, inv)
}

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var req SaveInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.CreateInvoice(r.Context(), ownerID, req)
	if err != nil {
		h.logger.Warn("create invoice failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.writeInvoice(w, r, http.StatusCreated, inv)
}

func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var req SaveInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.UpdateInvoice(r.Context(), ownerID, chi.URLParam(r, "id"), req)
	if err != nil {
		h.logger.Warn("update invoice failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.writeInvoice(w, r, http.StatusOK, inv)
}

func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	if err := h.service.DeleteInvoice(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) TransitionInvoice(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var req TransitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.TransitionInvoice(r.Context(), ownerID, chi.URLParam(r, "id"), InvoiceStatus(req.Status))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.writeInvoice(w, r, http.StatusOK, inv)
}

func (h *Handler) writeEstimate(w http.ResponseWriter, r *http.Request, status int, e *Estimate) {
	view, err := h.service.EstimateView(r.Context(), *e)
	if err != nil {
		h.logger.Error("render estimate failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, status, view)
}

func (h *Handler) writeInvoice(w http.ResponseWriter, r *http.Request, status int, inv *Invoice) {
	view, err := h.service.InvoiceView(r.Context(), *inv)
	if err != nil {
		h.logger.Error("render invoice failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, status, view)
}
