// Package dashboard aggregates a tenant's headline figures and per-client
// document history.
package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/estimator/internal/billing/documents"
	"github.com/odyssey-erp/estimator/internal/platform/db"
)

// RecentLimit bounds the recent documents lists.
const RecentLimit = 5

// Summary is the dashboard card data.
type Summary struct {
	TotalRevenue    float64                  `json:"total_revenue"`
	OpenEstimates   int                      `json:"open_estimates"`
	OverdueInvoices int                      `json:"overdue_invoices"`
	Clients         int                      `json:"clients"`
	RecentEstimates []documents.EstimateView `json:"recent_estimates"`
	RecentInvoices  []documents.InvoiceView  `json:"recent_invoices"`
	RevenueDisplay  string                   `json:"revenue_display"`
}

// Repository runs the aggregate queries.
type Repository interface {
	Revenue(ctx context.Context, ownerID string) (float64, error)
	CountEstimates(ctx context.Context, ownerID string, statuses ...documents.EstimateStatus) (int, error)
	CountInvoices(ctx context.Context, ownerID string, statuses ...documents.InvoiceStatus) (int, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) Revenue(ctx context.Context, ownerID string) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount_paid), 0)::float8 FROM invoices WHERE owner_id = $1`, ownerID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum revenue: %w", err)
	}
	return total, nil
}

func (r *repository) CountEstimates(ctx context.Context, ownerID string, statuses ...documents.EstimateStatus) (int, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return r.count(ctx, "estimates", ownerID, values)
}

func (r *repository) CountInvoices(ctx context.Context, ownerID string, statuses ...documents.InvoiceStatus) (int, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return r.count(ctx, "invoices", ownerID, values)
}

func (r *repository) count(ctx context.Context, table, ownerID string, statuses []string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+` WHERE owner_id = $1 AND status = ANY($2)`, ownerID, statuses).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
