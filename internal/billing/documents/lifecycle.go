package documents

import (
	"fmt"

	"github.com/odyssey-erp/estimator/internal/shared"
)

var estimateTransitions = map[EstimateStatus][]EstimateStatus{
	EstimateStatusDraft: {EstimateStatusSent},
	EstimateStatusSent:  {EstimateStatusApproved, EstimateStatusRejected},
}

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:   {InvoiceStatusSent},
	InvoiceStatusSent:    {InvoiceStatusPaid, InvoiceStatusOverdue},
	InvoiceStatusOverdue: {InvoiceStatusPaid},
}

// Valid reports whether s is a known estimate status.
func (s EstimateStatus) Valid() bool {
	switch s {
	case EstimateStatusDraft, EstimateStatusSent, EstimateStatusApproved, EstimateStatusRejected, EstimateStatusConverted:
		return true
	}
	return false
}

// Valid reports whether s is a known invoice status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// CheckEstimateTransition validates a user-requested status change. Converted
// is only reachable through conversion.
func CheckEstimateTransition(from, to EstimateStatus) error {
	if !to.Valid() {
		return shared.NewValidationError("status", fmt.Sprintf("unknown estimate status %q", to))
	}
	if from == to {
		return nil
	}
	if to == EstimateStatusConverted {
		return fmt.Errorf("%w: Converted is set by conversion only", shared.ErrInvalidStatus)
	}
	for _, next := range estimateTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: estimate %s -> %s", shared.ErrInvalidStatus, from, to)
}

// CheckInvoiceTransition validates an invoice status change.
func CheckInvoiceTransition(from, to InvoiceStatus) error {
	if !to.Valid() {
		return shared.NewValidationError("status", fmt.Sprintf("unknown invoice status %q", to))
	}
	if from == to {
		return nil
	}
	for _, next := range invoiceTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: invoice %s -> %s", shared.ErrInvalidStatus, from, to)
}
