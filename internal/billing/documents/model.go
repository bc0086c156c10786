// Package documents implements the estimate and invoice lifecycle: totals
// recomputation, atomic line item replacement, status transitions and the
// estimate to invoice conversion.
package documents

import (
	"time"

	"github.com/odyssey-erp/estimator/internal/billing/lineitems"
	"github.com/odyssey-erp/estimator/internal/billing/money"
)

// EstimateStatus enumerates estimate states.
type EstimateStatus string

const (
	EstimateStatusDraft     EstimateStatus = "Draft"
	EstimateStatusSent      EstimateStatus = "Sent"
	EstimateStatusApproved  EstimateStatus = "Approved"
	EstimateStatusRejected  EstimateStatus = "Rejected"
	EstimateStatusConverted EstimateStatus = "Converted"
)

// InvoiceStatus enumerates invoice states.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "Draft"
	InvoiceStatusSent    InvoiceStatus = "Sent"
	InvoiceStatusPaid    InvoiceStatus = "Paid"
	InvoiceStatusOverdue InvoiceStatus = "Overdue"
)

// Estimate is a priced proposal for a client.
type Estimate struct {
	ID                 string
	OwnerID            string
	Number             string
	ClientID           string
	EstimateDate       time.Time
	ExpiryDate         time.Time
	TaxID              *string
	Status             EstimateStatus
	Subtotal           float64
	Tax                float64
	Total              float64
	ConvertedInvoiceID *string
	// HostContext is stored and returned as-is.
	HostContext map[string]any
	LineItems   []lineitems.Item
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Totals returns the persisted totals.
func (e Estimate) Totals() money.Totals {
	return money.Totals{Subtotal: e.Subtotal, Tax: e.Tax, Total: e.Total}
}

// Converted reports whether the estimate already produced an invoice.
func (e Estimate) Converted() bool {
	return e.ConvertedInvoiceID != nil && *e.ConvertedInvoiceID != ""
}

// Invoice is a bill issued to a client, optionally converted from an estimate.
type Invoice struct {
	ID             string
	OwnerID        string
	Number         string
	ClientID       string
	EstimateID     *string
	EstimateNumber *string
	InvoiceDate    time.Time
	DueDate        time.Time
	TaxID          *string
	Status         InvoiceStatus
	Subtotal       float64
	Tax            float64
	Total          float64
	AmountPaid     float64
	LineItems      []lineitems.Item
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BalanceDue is total minus amount paid; negative when overpaid.
func (i Invoice) BalanceDue() float64 {
	return money.BalanceDue(i.Total, i.AmountPaid)
}

// Totals returns the persisted totals.
func (i Invoice) Totals() money.Totals {
	return money.Totals{Subtotal: i.Subtotal, Tax: i.Tax, Total: i.Total}
}

// ConversionResult reports the invoice produced by a conversion. Created is
// false when the estimate had already been converted.
type ConversionResult struct {
	InvoiceID string
	Created   bool
}

// ListRequest filters a tenant's documents.
type ListRequest struct {
	OwnerID  string
	ClientID *string
	Status   *string
	Limit    int
	Offset   int
}
