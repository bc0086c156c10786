package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/estimator/internal/billing/documents"
	"github.com/odyssey-erp/estimator/internal/billing/lineitems"
)

type stubBackfiller struct {
	report  documents.BackfillReport
	err     error
	applied bool
}

func (s *stubBackfiller) BackfillTaxIDs(_ context.Context, apply bool) (documents.BackfillReport, error) {
	if s.err != nil {
		return documents.BackfillReport{}, s.err
	}
	report := s.report
	if apply {
		s.applied = true
		report.Applied = len(report.Matched)
	}
	return report, nil
}

func pendingReport() documents.BackfillReport {
	doc := documents.UntaxedDocument{Kind: lineitems.OwnerEstimate, ID: "e1", Number: "EST-2024-001", Subtotal: 1000, Tax: 82.5}
	return documents.BackfillReport{
		Scanned: 2,
		Matched: []documents.BackfillMatch{{UntaxedDocument: doc, TaxID: "tax-825", Rate: 0.0825}},
		Unmatched: []documents.UntaxedDocument{
			{Kind: lineitems.OwnerInvoice, ID: "i1", Number: "INV-2024-002", Subtotal: 100, Tax: 3.33},
		},
	}
}

func TestBackfillDryRunJSON(t *testing.T) {
	svc := &stubBackfiller{report: pendingReport()}
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := BackfillTaxIDs(context.Background(), svc, BackfillOptions{JSONOutput: true, Stdout: stdout, Stderr: stderr})
	require.Equal(t, ExitPending, code)
	require.Empty(t, stderr.String())
	require.False(t, svc.applied)

	var summary BackfillSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	require.Equal(t, BackfillModeDry, summary.Mode)
	require.Equal(t, 2, summary.Scanned)
	require.Len(t, summary.Matched, 1)
	require.Equal(t, "tax-825", summary.Matched[0].TaxID)
	require.Zero(t, summary.Applied)
}

func TestBackfillApplyRequiresConfirmation(t *testing.T) {
	svc := &stubBackfiller{report: pendingReport()}
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := BackfillTaxIDs(context.Background(), svc, BackfillOptions{
		Mode:   BackfillModeApply,
		Stdout: stdout,
		Stderr: stderr,
		Stdin:  strings.NewReader("no\n"),
	})
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "cancelled by user")
	require.False(t, svc.applied)

	stdout.Reset()
	code = BackfillTaxIDs(context.Background(), svc, BackfillOptions{
		Mode:   "APPLY",
		Stdout: stdout,
		Stderr: io.Discard,
		Stdin:  strings.NewReader("YES\n"),
	})
	require.Zero(t, code)
	require.True(t, svc.applied)
	require.Contains(t, stdout.String(), "EST-2024-001 -> tax-825")
	require.Contains(t, stdout.String(), "Applied 1 tax id(s).")
}

func TestBackfillApplyWithYes(t *testing.T) {
	svc := &stubBackfiller{report: pendingReport()}
	code := BackfillTaxIDs(context.Background(), svc, BackfillOptions{
		Mode:    BackfillModeApply,
		Yes:     true,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
		Confirm: func(io.Reader, io.Writer, int) (bool, error) { t.Fatal("confirm must not run"); return false, nil },
	})
	require.Zero(t, code)
	require.True(t, svc.applied)
}

func TestBackfillErrors(t *testing.T) {
	stderr := new(bytes.Buffer)
	code := BackfillTaxIDs(context.Background(), &stubBackfiller{}, BackfillOptions{Mode: "wet", Stdout: io.Discard, Stderr: stderr})
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), `invalid mode "wet"`)

	stderr.Reset()
	code = BackfillTaxIDs(context.Background(), &stubBackfiller{err: errors.New("db down")}, BackfillOptions{Stdout: io.Discard, Stderr: stderr})
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "backfill-tax-ids: db down")

	stdout := new(bytes.Buffer)
	code = BackfillTaxIDs(context.Background(), &stubBackfiller{}, BackfillOptions{Stdout: stdout, Stderr: io.Discard})
	require.Zero(t, code)
	require.Contains(t, stdout.String(), "No inferable tax ids.")
}
