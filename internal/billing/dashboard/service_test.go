package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/estimator/internal/billing/clients"
	"github.com/odyssey-erp/estimator/internal/billing/documents"
	"github.com/odyssey-erp/estimator/internal/shared"
)

type stubRepo struct {
	revenue    float64
	revenueErr error
	estimates  map[documents.EstimateStatus]int
	invoices   map[documents.InvoiceStatus]int
}

func (s stubRepo) Revenue(context.Context, string) (float64, error) {
	return s.revenue, s.revenueErr
}

func (s stubRepo) CountEstimates(_ context.Context, _ string, statuses ...documents.EstimateStatus) (int, error) {
	n := 0
	for _, st := range statuses {
		n += s.estimates[st]
	}
	return n, nil
}

func (s stubRepo) CountInvoices(_ context.Context, _ string, statuses ...documents.InvoiceStatus) (int, error) {
	n := 0
	for _, st := range statuses {
		n += s.invoices[st]
	}
	return n, nil
}

type stubClients struct{}

func (stubClients) Count(context.Context, string) (int, error) { return 3, nil }

func (stubClients) Get(_ context.Context, _, id string) (*clients.Client, error) {
	if id != "client-1" {
		return nil, shared.ErrNotFound
	}
	return &clients.Client{ID: id, FirstName: "Ada", LastName: "Lovelace"}, nil
}

type stubDocs struct {
	estimates []documents.Estimate
	invoices  []documents.Invoice
}

func (s stubDocs) ListEstimates(_ context.Context, req documents.ListRequest) ([]documents.Estimate, int, error) {
	var out []documents.Estimate
	for _, e := range s.estimates {
		if req.ClientID != nil && e.ClientID != *req.ClientID {
			continue
		}
		out = append(out, e)
	}
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, len(out), nil
}

func (s stubDocs) ListInvoices(_ context.Context, req documents.ListRequest) ([]documents.Invoice, int, error) {
	var out []documents.Invoice
	for _, inv := range s.invoices {
		if req.ClientID != nil && inv.ClientID != *req.ClientID {
			continue
		}
		out = append(out, inv)
	}
	return out, len(out), nil
}

func (stubDocs) EstimateViews(_ context.Context, list []documents.Estimate) ([]documents.EstimateView, error) {
	out := make([]documents.EstimateView, len(list))
	for i, e := range list {
		out[i] = documents.EstimateView{ID: e.ID, ClientID: e.ClientID}
	}
	return out, nil
}

func (stubDocs) InvoiceViews(_ context.Context, list []documents.Invoice) ([]documents.InvoiceView, error) {
	out := make([]documents.InvoiceView, len(list))
	for i, inv := range list {
		out[i] = documents.InvoiceView{ID: inv.ID, ClientID: inv.ClientID}
	}
	return out, nil
}

func sampleDocs() stubDocs {
	var docs stubDocs
	for _, id := range []string{"e1", "e2", "e3", "e4", "e5", "e6"} {
		docs.estimates = append(docs.estimates, documents.Estimate{ID: id, ClientID: "client-1"})
	}
	docs.estimates = append(docs.estimates, documents.Estimate{ID: "e7", ClientID: "client-2"})
	docs.invoices = []documents.Invoice{{ID: "i1", ClientID: "client-2"}}
	return docs
}

func TestSummary(t *testing.T) {
	repo := stubRepo{
		revenue:   1234.5,
		estimates: map[documents.EstimateStatus]int{documents.EstimateStatusDraft: 2, documents.EstimateStatusSent: 1, documents.EstimateStatusApproved: 4},
		invoices:  map[documents.InvoiceStatus]int{documents.InvoiceStatusOverdue: 2, documents.InvoiceStatusPaid: 9},
	}
	svc := NewService(repo, stubClients{}, sampleDocs())

	summary, err := svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1234.5, summary.TotalRevenue)
	assert.Equal(t, "1234.50", summary.RevenueDisplay)
	assert.Equal(t, 3, summary.OpenEstimates)
	assert.Equal(t, 2, summary.OverdueInvoices)
	assert.Equal(t, 3, summary.Clients)
	assert.Len(t, summary.RecentEstimates, RecentLimit)
	assert.Len(t, summary.RecentInvoices, 1)
}

func TestSummaryPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(stubRepo{revenueErr: boom}, stubClients{}, sampleDocs())
	_, err := svc.Summary(context.Background(), "user-1")
	require.ErrorIs(t, err, boom)
}

func TestClientDetailHandler(t *testing.T) {
	svc := NewService(stubRepo{}, stubClients{}, sampleDocs())
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), shared.Identity{UserID: "user-1"})))
		})
	})
	r.Route("/api/dashboard", h.MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/clients/client-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"e6"`)
	assert.NotContains(t, rec.Body.String(), `"e7"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/clients/nobody", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
