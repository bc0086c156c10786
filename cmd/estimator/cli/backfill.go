// Package cli holds operational subcommands of the estimator binary.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/odyssey-erp/estimator/internal/billing/documents"
)

// BackfillMode enumerates supported execution strategies.
type BackfillMode string

const (
	// BackfillModeDry reports inferred tax ids without writing them.
	BackfillModeDry BackfillMode = "dry"
	// BackfillModeApply writes inferred tax ids after confirmation.
	BackfillModeApply BackfillMode = "apply"
)

// ExitPending is returned by a dry run that found documents to backfill.
const ExitPending = 10

// TaxBackfiller infers and optionally stores tax ids for legacy documents.
type TaxBackfiller interface {
	BackfillTaxIDs(ctx context.Context, apply bool) (documents.BackfillReport, error)
}

// BackfillOptions configures the backfill-tax-ids command.
type BackfillOptions struct {
	Mode       BackfillMode
	JSONOutput bool
	Yes        bool
	Stdout     io.Writer
	Stderr     io.Writer
	Stdin      io.Reader
	Confirm    func(io.Reader, io.Writer, int) (bool, error)
}

// BackfillSummary is the command's structured output.
type BackfillSummary struct {
	Mode BackfillMode `json:"mode"`
	documents.BackfillReport
}

// BackfillTaxIDs runs the legacy tax id backfill and returns the process exit code.
func BackfillTaxIDs(ctx context.Context, svc TaxBackfiller, opts BackfillOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Mode == "" {
		opts.Mode = BackfillModeDry
	}
	mode := BackfillMode(strings.ToLower(string(opts.Mode)))
	switch mode {
	case BackfillModeDry, BackfillModeApply:
	default:
		fmt.Fprintf(opts.Stderr, "backfill-tax-ids: invalid mode %q (expected dry or apply)\n", opts.Mode)
		return 1
	}

	preview, err := svc.BackfillTaxIDs(ctx, false)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "backfill-tax-ids: %v\n", err)
		return 1
	}
	summary := BackfillSummary{Mode: mode, BackfillReport: preview}
	if mode == BackfillModeDry || len(preview.Matched) == 0 {
		if err := writeBackfillOutput(opts, summary); err != nil {
			fmt.Fprintf(opts.Stderr, "backfill-tax-ids: %v\n", err)
			return 1
		}
		if mode == BackfillModeDry && len(preview.Matched) > 0 {
			return ExitPending
		}
		return 0
	}

	if !opts.Yes {
		confirm := opts.Confirm
		if confirm == nil {
			confirm = defaultBackfillConfirm
		}
		ok, err := confirm(opts.Stdin, opts.Stdout, len(preview.Matched))
		if err != nil {
			fmt.Fprintf(opts.Stderr, "backfill-tax-ids: confirmation failed: %v\n", err)
			return 1
		}
		if !ok {
			fmt.Fprintln(opts.Stderr, "backfill-tax-ids: cancelled by user")
			return 1
		}
	}

	applied, err := svc.BackfillTaxIDs(ctx, true)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "backfill-tax-ids: apply failed: %v\n", err)
		return 1
	}
	summary.BackfillReport = applied
	if err := writeBackfillOutput(opts, summary); err != nil {
		fmt.Fprintf(opts.Stderr, "backfill-tax-ids: %v\n", err)
		return 1
	}
	return 0
}

func writeBackfillOutput(opts BackfillOptions, summary BackfillSummary) error {
	if opts.JSONOutput {
		return json.NewEncoder(opts.Stdout).Encode(summary)
	}
	renderBackfillHuman(opts.Stdout, summary)
	return nil
}

func renderBackfillHuman(out io.Writer, summary BackfillSummary) {
	fmt.Fprintf(out, "Tax id backfill (%s): %d document(s) without a tax id\n", summary.Mode, summary.Scanned)
	if len(summary.Matched) == 0 {
		fmt.Fprintln(out, "No inferable tax ids.")
	} else {
		fmt.Fprintf(out, "%d inferred:\n", len(summary.Matched))
		for _, m := range summary.Matched {
			fmt.Fprintf(out, " - %s %s -> %s (rate %.4f)\n", m.Kind, m.Number, m.TaxID, m.Rate)
		}
	}
	if len(summary.Unmatched) > 0 {
		fmt.Fprintf(out, "%d left without a tax id:\n", len(summary.Unmatched))
		for _, d := range summary.Unmatched {
			fmt.Fprintf(out, " - %s %s subtotal %.2f tax %.2f\n", d.Kind, d.Number, d.Subtotal, d.Tax)
		}
	}
	if summary.Applied > 0 {
		fmt.Fprintf(out, "Applied %d tax id(s).\n", summary.Applied)
	}
}

func defaultBackfillConfirm(r io.Reader, w io.Writer, count int) (bool, error) {
	fmt.Fprintf(w, "Write tax ids to %d document(s)? Type YES to confirm: ", count)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(line), "YES"), nil
}
