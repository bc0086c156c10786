package documents

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Numberer produces human-readable document numbers. Numbers are cosmetic and
// not guaranteed unique.
type Numberer interface {
	EstimateNumber(now time.Time) string
	InvoiceNumber(now time.Time) string
	ConvertedInvoiceNumber(now time.Time) string
}

// RandomNumberer generates PREFIX-{year}-{random suffix}.
type RandomNumberer struct {
	// IntN defaults to math/rand/v2.IntN.
	IntN func(n int) int
}

func (r RandomNumberer) intN(n int) int {
	if r.IntN != nil {
		return r.IntN(n)
	}
	return rand.IntN(n)
}

// EstimateNumber returns EST-{year}-{000..999}.
func (r RandomNumberer) EstimateNumber(now time.Time) string {
	return fmt.Sprintf("EST-%d-%03d", now.Year(), r.intN(1000))
}

// InvoiceNumber returns INV-{year}-{000..999} for invoices created directly.
func (r RandomNumberer) InvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%d-%03d", now.Year(), r.intN(1000))
}

// ConvertedInvoiceNumber returns INV-{year}-{0000..9999} for converted estimates.
func (r RandomNumberer) ConvertedInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%d-%04d", now.Year(), r.intN(10000))
}
