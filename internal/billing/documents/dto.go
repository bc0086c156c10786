package documents

import (
	"time"

	"github.com/odyssey-erp/estimator/internal/billing/catalog"
	"github.com/odyssey-erp/estimator/internal/billing/lineitems"
	"github.com/odyssey-erp/estimator/internal/billing/money"
)

// LineItemInput is a form line; numeric fields are decoded leniently.
type LineItemInput struct {
	Description string       `json:"description" validate:"max=20000"`
	Quantity    money.Number `json:"quantity"`
	Price       money.Number `json:"price"`
}

// SaveEstimateRequest is the create/update payload for an estimate. On update
// an empty tax_id keeps the current selection; send "none" to clear it.
type SaveEstimateRequest struct {
	ClientID     string          `json:"client_id" validate:"required"`
	EstimateDate *time.Time      `json:"estimate_date,omitempty"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
	TaxID        string          `json:"tax_id"`
	Status       *EstimateStatus `json:"status,omitempty"`
	LineItems    []LineItemInput `json:"line_items" validate:"dive"`
}

// SaveInvoiceRequest is the create/update payload for an invoice. On update
// an omitted amount_paid or empty tax_id keeps the stored value.
type SaveInvoiceRequest struct {
	ClientID    string          `json:"client_id" validate:"required"`
	InvoiceDate *time.Time      `json:"invoice_date,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	TaxID       string          `json:"tax_id"`
	Status      *InvoiceStatus  `json:"status,omitempty"`
	AmountPaid  *money.Number   `json:"amount_paid,omitempty"`
	LineItems   []LineItemInput `json:"line_items" validate:"dive"`
}

// TransitionRequest changes a document's status.
type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// CalculateRequest is the live form state sent on every edit.
type CalculateRequest struct {
	TaxID      string          `json:"tax_id"`
	AmountPaid *money.Number   `json:"amount_paid,omitempty"`
	LineItems  []LineItemInput `json:"line_items"`
}

// CalculateResponse carries derived totals for the form.
type CalculateResponse struct {
	Rate       float64  `json:"rate"`
	Subtotal   float64  `json:"subtotal"`
	Tax        float64  `json:"tax"`
	Total      float64  `json:"total"`
	BalanceDue *float64 `json:"balance_due,omitempty"`
	Display    Display  `json:"display"`
}

// Display holds amounts formatted to two decimals.
type Display struct {
	Subtotal   string `json:"subtotal"`
	Tax        string `json:"tax"`
	Total      string `json:"total"`
	BalanceDue string `json:"balance_due,omitempty"`
}

func newDisplay(t money.Totals) Display {
	return Display{Subtotal: money.Fixed2(t.Subtotal), Tax: money.Fixed2(t.Tax), Total: money.Fixed2(t.Total)}
}

// LineItemView is a persisted line with its display enrichment.
type LineItemView struct {
	ID          string             `json:"id"`
	Description string             `json:"description"`
	Quantity    float64            `json:"quantity"`
	Price       float64            `json:"price"`
	Amount      float64            `json:"amount"`
	Name        string             `json:"name"`
	Match       *catalog.MatchView `json:"match,omitempty"`
}

// EstimateView is the API projection of an estimate.
type EstimateView struct {
	ID                 string         `json:"id"`
	Number             string         `json:"number"`
	ClientID           string         `json:"client_id"`
	EstimateDate       time.Time      `json:"estimate_date"`
	ExpiryDate         time.Time      `json:"expiry_date"`
	TaxID              *string        `json:"tax_id"`
	TaxSelector        string         `json:"tax_selector"`
	Status             EstimateStatus `json:"status"`
	Subtotal           float64        `json:"subtotal"`
	Tax                float64        `json:"tax"`
	Total              float64        `json:"total"`
	Display            Display        `json:"display"`
	ConvertedInvoiceID *string        `json:"converted_invoice_id,omitempty"`
	HostContext        map[string]any `json:"host_context,omitempty"`
	LineItems          []LineItemView `json:"line_items,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// InvoiceView is the API projection of an invoice.
type InvoiceView struct {
	ID             string         `json:"id"`
	Number         string         `json:"number"`
	ClientID       string         `json:"client_id"`
	EstimateID     *string        `json:"estimate_id,omitempty"`
	EstimateNumber *string        `json:"estimate_number,omitempty"`
	InvoiceDate    time.Time      `json:"invoice_date"`
	DueDate        time.Time      `json:"due_date"`
	TaxID          *string        `json:"tax_id"`
	TaxSelector    string         `json:"tax_selector"`
	Status         InvoiceStatus  `json:"status"`
	Subtotal       float64        `json:"subtotal"`
	Tax            float64        `json:"tax"`
	Total          float64        `json:"total"`
	AmountPaid     float64        `json:"amount_paid"`
	BalanceDue     float64        `json:"balance_due"`
	Display        Display        `json:"display"`
	LineItems      []LineItemView `json:"line_items,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func toItems(in []LineItemInput) []lineitems.Item {
	out := make([]lineitems.Item, len(in))
	for i, l := range in {
		out[i] = lineitems.Item{Description: l.Description, Quantity: l.Quantity.Float64(), Price: l.Price.Float64()}
	}
	return out
}

func lineViews(items []lineitems.Item, matches []*catalog.Item) []LineItemView {
	out := make([]LineItemView, len(items))
	for i, it := range items {
		var matched *catalog.Item
		if i < len(matches) {
			matched = matches[i]
		}
		v := LineItemView{
			ID:          it.ID,
			Description: it.Description,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Amount:      it.Amount(),
			Name:        catalog.DisplayName(it.Description, matched),
		}
		if matched != nil {
			v.Match = catalog.NewMatchView(*matched)
		}
		out[i] = v
	}
	return out
}
