package documents

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/estimator/internal/billing/taxes"
)

// BackfillMatch pairs a legacy document with its inferred tax.
type BackfillMatch struct {
	UntaxedDocument
	TaxID string  `json:"tax_id"`
	Rate  float64 `json:"rate"`
}

// BackfillReport summarises a tax id backfill run.
type BackfillReport struct {
	Scanned   int               `json:"scanned"`
	Matched   []BackfillMatch   `json:"matched"`
	Unmatched []UntaxedDocument `json:"unmatched"`
	Applied   int               `json:"applied"`
}

// BackfillTaxIDs infers tax ids for documents stored without one. When apply
// is true the inferred ids are written in a single transaction.
func (s *Service) BackfillTaxIDs(ctx context.Context, apply bool) (BackfillReport, error) {
	report := BackfillReport{Matched: []BackfillMatch{}, Unmatched: []UntaxedDocument{}}
	list, err := s.listTaxes(ctx)
	if err != nil {
		return report, err
	}
	docs, err := s.repo.ListUntaxed(ctx)
	if err != nil {
		return report, fmt.Errorf("scan legacy documents: %w", err)
	}
	report.Scanned = len(docs)
	for _, d := range docs {
		selector := taxes.InferSelector(d.Subtotal, d.Tax, list)
		if selector == taxes.SelectorNone {
			report.Unmatched = append(report.Unmatched, d)
			continue
		}
		report.Matched = append(report.Matched, BackfillMatch{UntaxedDocument: d, TaxID: selector, Rate: taxes.ResolveRate(selector, list)})
	}
	if !apply || len(report.Matched) == 0 {
		return report, nil
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, m := range report.Matched {
			if err := tx.SetTaxID(ctx, m.Kind, m.ID, m.TaxID); err != nil {
				return fmt.Errorf("set tax id on %s %s: %w", m.Kind, m.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return report, persistenceError("apply tax ids", err)
	}
	report.Applied = len(report.Matched)
	return report, nil
}
