package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/estimator/internal/assist"
	"github.com/odyssey-erp/estimator/internal/billing/catalog"
	"github.com/odyssey-erp/estimator/internal/billing/clients"
	"github.com/odyssey-erp/estimator/internal/billing/dashboard"
	"github.com/odyssey-erp/estimator/internal/billing/documents"
	"github.com/odyssey-erp/estimator/internal/billing/taxes"
	"github.com/odyssey-erp/estimator/internal/hostsession"
	"github.com/odyssey-erp/estimator/internal/messaging"
	"github.com/odyssey-erp/estimator/internal/observability"
	"github.com/odyssey-erp/estimator/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	SessionStore     *hostsession.Store
	SessionHandler   *hostsession.Handler
	ClientsHandler   *clients.Handler
	CatalogHandler   *catalog.Handler
	TaxesHandler     *taxes.Handler
	DocumentsHandler *documents.Handler
	MessagingHandler *messaging.Handler
	DashboardHandler *dashboard.Handler
	AssistHandler    *assist.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with estimator defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		if params.SessionHandler != nil {
			r.Route("/session", params.SessionHandler.MountRoutes)
		}

		r.Group(func(r chi.Router) {
			allowAnon := params.Config != nil && params.Config.AllowAnonFallback
			r.Use(hostsession.Middleware(params.SessionStore, allowAnon))

			if params.ClientsHandler != nil {
				r.Route("/clients", params.ClientsHandler.MountRoutes)
			}
			if params.CatalogHandler != nil {
				r.Route("/catalog", params.CatalogHandler.MountRoutes)
			}
			if params.TaxesHandler != nil {
				r.Route("/taxes", params.TaxesHandler.MountRoutes)
			}
			if params.DocumentsHandler != nil {
				r.Post("/calculate", params.DocumentsHandler.Calculate)
				r.Route("/estimates", func(r chi.Router) {
					params.DocumentsHandler.MountEstimateRoutes(r)
					if params.MessagingHandler != nil {
						r.Post("/{id}/message", params.MessagingHandler.SendEstimate)
						r.Get("/{id}/message/{taskID}", params.MessagingHandler.MessageStatus)
					}
				})
				r.Route("/invoices", params.DocumentsHandler.MountInvoiceRoutes)
			}
			if params.DashboardHandler != nil {
				r.Route("/dashboard", params.DashboardHandler.MountRoutes)
			}
			if params.AssistHandler != nil {
				r.Route("/assist", params.AssistHandler.MountRoutes)
			}
		})
	})

	return r
}
