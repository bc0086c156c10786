package messaging

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/estimator/internal/billing/money"
)

// DefaultMessage renders the notification text for an estimate.
func DefaultMessage(tag language.Tag, number string, total float64) string {
	p := message.NewPrinter(tag)
	amount := currency.Symbol(currency.USD.Amount(money.Round2(total)))
	return p.Sprintf("Estimate %s for %v is ready for your review.", number, amount)
}

// DefaultSubject renders the subject line for an estimate.
func DefaultSubject(number string) string {
	return "Estimate " + number
}
