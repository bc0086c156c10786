package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/estimator/internal/billing/clients"
	"github.com/odyssey-erp/estimator/internal/billing/documents"
	"github.com/odyssey-erp/estimator/internal/billing/money"
)

// ClientDirectory reads clients for the dashboard.
type ClientDirectory interface {
	Count(ctx context.Context, ownerID string) (int, error)
	Get(ctx context.Context, ownerID, id string) (*clients.Client, error)
}

// Documents lists and projects estimates and invoices.
type Documents interface {
	ListEstimates(ctx context.Context, req documents.ListRequest) ([]documents.Estimate, int, error)
	ListInvoices(ctx context.Context, req documents.ListRequest) ([]documents.Invoice, int, error)
	EstimateViews(ctx context.Context, list []documents.Estimate) ([]documents.EstimateView, error)
	InvoiceViews(ctx context.Context, list []documents.Invoice) ([]documents.InvoiceView, error)
}

// ClientDetail is a client with every document issued to them.
type ClientDetail struct {
	Client    *clients.Client          `json:"client"`
	Estimates []documents.EstimateView `json:"estimates"`
	Invoices  []documents.InvoiceView  `json:"invoices"`
}

// Service assembles dashboard payloads concurrently.
type Service struct {
	repo    Repository
	clients ClientDirectory
	docs    Documents
}

// NewService constructs the dashboard service.
func NewService(repo Repository, clients ClientDirectory, docs Documents) *Service {
	return &Service{repo: repo, clients: clients, docs: docs}
}

// Summary returns the headline figures for ownerID.
func (s *Service) Summary(ctx context.Context, ownerID string) (Summary, error) {
	var out Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := s.repo.Revenue(ctx, ownerID)
		out.TotalRevenue = v
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountEstimates(ctx, ownerID, documents.EstimateStatusDraft, documents.EstimateStatusSent)
		out.OpenEstimates = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountInvoices(ctx, ownerID, documents.InvoiceStatusOverdue)
		out.OverdueInvoices = n
		return err
	})
	g.Go(func() error {
		n, err := s.clients.Count(ctx, ownerID)
		out.Clients = n
		return err
	})
	g.Go(func() error {
		list, _, err := s.docs.ListEstimates(ctx, documents.ListRequest{OwnerID: ownerID, Limit: RecentLimit})
		if err != nil {
			return err
		}
		out.RecentEstimates, err = s.docs.EstimateViews(ctx, list)
		return err
	})
	g.Go(func() error {
		list, _, err := s.docs.ListInvoices(ctx, documents.ListRequest{OwnerID: ownerID, Limit: RecentLimit})
		if err != nil {
			return err
		}
		out.RecentInvoices, err = s.docs.InvoiceViews(ctx, list)
		return err
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	out.RevenueDisplay = money.Fixed2(out.TotalRevenue)
	return out, nil
}

// ClientDetail loads a client with its estimates and invoices.
func (s *Service) ClientDetail(ctx context.Context, ownerID, clientID string) (ClientDetail, error) {
	var out ClientDetail
	g, ctx := errgroup.WithContext(ctx)
	filter := documents.ListRequest{OwnerID: ownerID, ClientID: &clientID, Limit: 100}

	g.Go(func() error {
		c, err := s.clients.Get(ctx, ownerID, clientID)
		out.Client = c
		return err
	})
	g.Go(func() error {
		list, _, err := s.docs.ListEstimates(ctx, filter)
		if err != nil {
			return err
		}
		out.Estimates, err = s.docs.EstimateViews(ctx, list)
		return err
	})
	g.Go(func() error {
		list, _, err := s.docs.ListInvoices(ctx, filter)
		if err != nil {
			return err
		}
		out.Invoices, err = s.docs.InvoiceViews(ctx, list)
		return err
	})

	if err := g.Wait(); err != nil {
		return ClientDetail{}, err
	}
	return out, nil
}
