package documents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/estimator/internal/shared"
)

func TestCheckEstimateTransition(t *testing.T) {
	allowed := [][2]EstimateStatus{
		{EstimateStatusDraft, EstimateStatusSent},
		{EstimateStatusSent, EstimateStatusApproved},
		{EstimateStatusSent, EstimateStatusRejected},
		{EstimateStatusApproved, EstimateStatusApproved},
		{EstimateStatusConverted, EstimateStatusConverted},
	}
	for _, tc := range allowed {
		assert.NoError(t, CheckEstimateTransition(tc[0], tc[1]), "%s -> %s", tc[0], tc[1])
	}

	rejected := [][2]EstimateStatus{
		{EstimateStatusDraft, EstimateStatusApproved},
		{EstimateStatusRejected, EstimateStatusSent},
		{EstimateStatusConverted, EstimateStatusDraft},
		{EstimateStatusSent, EstimateStatusConverted},
	}
	for _, tc := range rejected {
		assert.ErrorIs(t, CheckEstimateTransition(tc[0], tc[1]), shared.ErrInvalidStatus, "%s -> %s", tc[0], tc[1])
	}

	var verr *shared.ValidationError
	require.ErrorAs(t, CheckEstimateTransition(EstimateStatusDraft, "Archived"), &verr)
}

func TestCheckInvoiceTransition(t *testing.T) {
	assert.NoError(t, CheckInvoiceTransition(InvoiceStatusDraft, InvoiceStatusSent))
	assert.NoError(t, CheckInvoiceTransition(InvoiceStatusSent, InvoiceStatusOverdue))
	assert.NoError(t, CheckInvoiceTransition(InvoiceStatusOverdue, InvoiceStatusPaid))
	assert.ErrorIs(t, CheckInvoiceTransition(InvoiceStatusPaid, InvoiceStatusDraft), shared.ErrInvalidStatus)
	assert.ErrorIs(t, CheckInvoiceTransition(InvoiceStatusDraft, InvoiceStatusPaid), shared.ErrInvalidStatus)
}

func TestRandomNumberer(t *testing.T) {
	n := RandomNumberer{IntN: func(int) int { return 7 }}
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "EST-2026-007", n.EstimateNumber(now))
	assert.Equal(t, "INV-2026-007", n.InvoiceNumber(now))
	assert.Equal(t, "INV-2026-0007", n.ConvertedInvoiceNumber(now))
}
