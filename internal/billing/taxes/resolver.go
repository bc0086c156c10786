package taxes

import "math"

// SelectorNone selects no tax.
const SelectorNone = "none"

// InferenceTolerance is the absolute tolerance on the fractional rate when
// matching a legacy tax/subtotal ratio to a Tax.
const InferenceTolerance = 0.0001

// ResolveRate maps a selector to a rate. "none", an empty selector and an
// unknown id all resolve to 0.
func ResolveRate(selector string, taxes []Tax) float64 {
	if selector == "" || selector == SelectorNone {
		return 0
	}
	for _, t := range taxes {
		if t.ID == selector {
			return t.Rate
		}
	}
	return 0
}

// Known reports whether selector names one of taxes.
func Known(selector string, taxes []Tax) bool {
	for _, t := range taxes {
		if t.ID == selector {
			return true
		}
	}
	return false
}

// InferSelector recovers the tax id of a document persisted without one by
// matching tax/subtotal against the available rates.
func InferSelector(subtotal, tax float64, taxes []Tax) string {
	if subtotal <= 0 || tax <= 0 {
		return SelectorNone
	}
	ratio := tax / subtotal
	for _, t := range taxes {
		if math.Abs(t.Rate-ratio) < InferenceTolerance {
			return t.ID
		}
	}
	return SelectorNone
}

// Selector returns the stored tax id when present, otherwise the inferred one.
func Selector(taxID *string, subtotal, tax float64, taxes []Tax) string {
	if taxID != nil && *taxID != "" {
		return *taxID
	}
	return InferSelector(subtotal, tax, taxes)
}
