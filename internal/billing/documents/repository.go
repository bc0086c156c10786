package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/estimator/internal/billing/lineitems"
	"github.com/odyssey-erp/estimator/internal/platform/db"
	"github.com/odyssey-erp/estimator/internal/shared"
)

// Repository reads documents and opens atomic write units.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetEstimate(ctx context.Context, ownerID, id string) (*Estimate, error)
	ListEstimates(ctx context.Context, req ListRequest) ([]Estimate, int, error)
	GetInvoice(ctx context.Context, ownerID, id string) (*Invoice, error)
	ListInvoices(ctx context.Context, req ListRequest) ([]Invoice, int, error)
	// ListUntaxed returns documents with no tax id but nonzero subtotal and tax.
	ListUntaxed(ctx context.Context) ([]UntaxedDocument, error)
}

// TxRepository exposes the writes that must commit together.
type TxRepository interface {
	InsertEstimate(ctx context.Context, e Estimate) error
	UpdateEstimate(ctx context.Context, e Estimate) error
	DeleteEstimate(ctx context.Context, ownerID, id string) error
	// LockEstimate reads the estimate row and holds it until commit.
	LockEstimate(ctx context.Context, ownerID, id string) (*Estimate, error)
	MarkEstimateConverted(ctx context.Context, ownerID, id, invoiceID string) error
	SetEstimateStatus(ctx context.Context, ownerID, id string, status EstimateStatus) error

	InsertInvoice(ctx context.Context, inv Invoice) error
	UpdateInvoice(ctx context.Context, inv Invoice) error
	DeleteInvoice(ctx context.Context, ownerID, id string) error
	SetInvoiceStatus(ctx context.Context, ownerID, id string, status InvoiceStatus) error

	ListLineItems(ctx context.Context, owner lineitems.Owner) ([]lineitems.Item, error)
	ReplaceLineItems(ctx context.Context, owner lineitems.Owner, items []lineitems.Item) ([]lineitems.Item, error)

	SetTaxID(ctx context.Context, kind lineitems.OwnerKind, id, taxID string) error
	RecordAudit(ctx context.Context, log shared.AuditLog) error
}

// UntaxedDocument is a legacy document awaiting tax id inference.
type UntaxedDocument struct {
	Kind     lineitems.OwnerKind `json:"kind"`
	ID       string              `json:"id"`
	Number   string              `json:"number"`
	Subtotal float64             `json:"subtotal"`
	Tax      float64             `json:"tax"`
}

type repository struct {
	db    db.DBTX
	pool  *pgxpool.Pool
	lines *lineitems.Store
	audit *shared.AuditLogger
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool, lines: lineitems.NewStore(), audit: shared.NewAuditLogger()}
}

type txRepo struct {
	tx    pgx.Tx
	lines *lineitems.Store
	audit *shared.AuditLogger
}

// WithTx runs fn in a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, lines: r.lines, audit: r.audit})
	})
}

const estimateColumns = `id, owner_id, number, client_id, estimate_date, expiry_date, tax_id, status, subtotal, tax, total, converted_invoice_id, host_context, created_at, updated_at`

const invoiceColumns = `id, owner_id, number, client_id, estimate_id, estimate_number, invoice_date, due_date, tax_id, status, subtotal, tax, total, amount_paid, created_at, updated_at`

func scanEstimate(row pgx.Row) (Estimate, error) {
	var (
		e       Estimate
		status  string
		hostCtx []byte
	)
	err := row.Scan(&e.ID, &e.OwnerID, &e.Number, &e.ClientID, &e.EstimateDate, &e.ExpiryDate, &e.TaxID, &status,
		&e.Subtotal, &e.Tax, &e.Total, &e.ConvertedInvoiceID, &hostCtx, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	e.Status = EstimateStatus(status)
	if len(hostCtx) > 0 {
		if err := json.Unmarshal(hostCtx, &e.HostContext); err != nil {
			return e, fmt.Errorf("decode host context: %w", err)
		}
	}
	return e, nil
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var (
		inv    Invoice
		status string
	)
	err := row.Scan(&inv.ID, &inv.OwnerID, &inv.Number, &inv.ClientID, &inv.EstimateID, &inv.EstimateNumber, &inv.InvoiceDate, &inv.DueDate,
		&inv.TaxID, &status, &inv.Subtotal, &inv.Tax, &inv.Total, &inv.AmountPaid, &inv.CreatedAt, &inv.UpdatedAt)
	inv.Status = InvoiceStatus(status)
	return inv, err
}

func (r *repository) GetEstimate(ctx context.Context, ownerID, id string) (*Estimate, error) {
	e, err := scanEstimate(r.db.QueryRow(ctx, `SELECT `+estimateColumns+` FROM estimates WHERE owner_id = $1 AND id = $2`, ownerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("estimate %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	e.LineItems, err = r.lines.List(ctx, r.db, lineitems.Owner{Kind: lineitems.OwnerEstimate, ID: id})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) GetInvoice(ctx context.Context, ownerID, id string) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE owner_id = $1 AND id = $2`, ownerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	inv.LineItems, err = r.lines.List(ctx, r.db, lineitems.Owner{Kind: lineitems.OwnerInvoice, ID: id})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func listFilter(req ListRequest) (string, []any) {
	conditions := []string{"owner_id = $1"}
	args := []any{req.OwnerID}
	if req.ClientID != nil {
		args = append(args, *req.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if req.Status != nil {
		args = append(args, *req.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func pageArgs(req ListRequest, args []any) (string, []any) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, req.Offset)
	return fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func (r *repository) ListEstimates(ctx context.Context, req ListRequest) ([]Estimate, int, error) {
	where, args := listFilter(req)
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM estimates`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count estimates: %w", err)
	}
	page, args := pageArgs(req, args)
	rows, err := r.db.Query(ctx, `SELECT `+estimateColumns+` FROM estimates`+where+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list estimates: %w", err)
	}
	defer rows.Close()
	var out []Estimate
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *repository) ListInvoices(ctx context.Context, req ListRequest) ([]Invoice, int, error) {
	where, args := listFilter(req)
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	page, args := pageArgs(req, args)
	rows, err := r.db.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices`+where+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

func (r *repository) ListUntaxed(ctx context.Context) ([]UntaxedDocument, error) {
	rows, err := r.db.Query(ctx, `
		SELECT 'estimate', id, number, subtotal, tax FROM estimates WHERE tax_id IS NULL AND subtotal > 0 AND tax > 0
		UNION ALL
		SELECT 'invoice', id, number, subtotal, tax FROM invoices WHERE tax_id IS NULL AND subtotal > 0 AND tax > 0
		ORDER BY 1, 3, 2`)
	if err != nil {
		return nil, fmt.Errorf("list untaxed documents: %w", err)
	}
	defer rows.Close()
	var out []UntaxedDocument
	for rows.Next() {
		var (
			d    UntaxedDocument
			kind string
		)
		if err := rows.Scan(&kind, &d.ID, &d.Number, &d.Subtotal, &d.Tax); err != nil {
			return nil, err
		}
		d.Kind = lineitems.OwnerKind(kind)
		out = append(out, d)
	}
	return out, rows.Err()
}

func marshalHostContext(v map[string]any) ([]byte, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return json.Marshal(v)
}

func (t *txRepo) InsertEstimate(ctx context.Context, e Estimate) error {
	hostCtx, err := marshalHostContext(e.HostContext)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO estimates (`+estimateColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
		e.ID, e.OwnerID, e.Number, e.ClientID, e.EstimateDate, e.ExpiryDate, e.TaxID, string(e.Status),
		e.Subtotal, e.Tax, e.Total, e.ConvertedInvoiceID, hostCtx, e.CreatedAt)
	return err
}

func (t *txRepo) UpdateEstimate(ctx context.Context, e Estimate) error {
	tag, err := t.tx.Exec(ctx, `UPDATE estimates SET client_id = $3, estimate_date = $4, expiry_date = $5, tax_id = $6, status = $7,
		subtotal = $8, tax = $9, total = $10, updated_at = $11 WHERE owner_id = $1 AND id = $2`,
		e.OwnerID, e.ID, e.ClientID, e.EstimateDate, e.ExpiryDate, e.TaxID, string(e.Status), e.Subtotal, e.Tax, e.Total, e.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("estimate %s: %w", e.ID, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) DeleteEstimate(ctx context.Context, ownerID, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM estimates WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("estimate %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) LockEstimate(ctx context.Context, ownerID, id string) (*Estimate, error) {
	e, err := scanEstimate(t.tx.QueryRow(ctx, `SELECT `+estimateColumns+` FROM estimates WHERE owner_id = $1 AND id = $2 FOR UPDATE`, ownerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("estimate %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return &e, nil
}

func (t *txRepo) MarkEstimateConverted(ctx context.Context, ownerID, id, invoiceID string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE estimates SET status = $3, converted_invoice_id = $4, updated_at = NOW()
		WHERE owner_id = $1 AND id = $2 AND converted_invoice_id IS NULL`,
		ownerID, id, string(EstimateStatusConverted), invoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark estimate %s converted: %w", id, shared.ErrConversionConflict)
	}
	return nil
}

func (t *txRepo) SetEstimateStatus(ctx context.Context, ownerID, id string, status EstimateStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE estimates SET status = $3, updated_at = NOW() WHERE owner_id = $1 AND id = $2`, ownerID, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("estimate %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) InsertInvoice(ctx context.Context, inv Invoice) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO invoices (`+invoiceColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)`,
		inv.ID, inv.OwnerID, inv.Number, inv.ClientID, inv.EstimateID, inv.EstimateNumber, inv.InvoiceDate, inv.DueDate,
		inv.TaxID, string(inv.Status), inv.Subtotal, inv.Tax, inv.Total, inv.AmountPaid, inv.CreatedAt)
	return err
}

func (t *txRepo) UpdateInvoice(ctx context.Context, inv Invoice) error {
	tag, err := t.tx.Exec(ctx, `UPDATE invoices SET client_id = $3, invoice_date = $4, due_date = $5, tax_id = $6, status = $7,
		subtotal = $8, tax = $9, total = $10, amount_paid = $11, updated_at = $12 WHERE owner_id = $1 AND id = $2`,
		inv.OwnerID, inv.ID, inv.ClientID, inv.InvoiceDate, inv.DueDate, inv.TaxID, string(inv.Status),
		inv.Subtotal, inv.Tax, inv.Total, inv.AmountPaid, inv.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %s: %w", inv.ID, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) DeleteInvoice(ctx context.Context, ownerID, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM invoices WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) SetInvoiceStatus(ctx context.Context, ownerID, id string, status InvoiceStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE invoices SET status = $3, updated_at = NOW() WHERE owner_id = $1 AND id = $2`, ownerID, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) ListLineItems(ctx context.Context, owner lineitems.Owner) ([]lineitems.Item, error) {
	return t.lines.List(ctx, t.tx, owner)
}

func (t *txRepo) ReplaceLineItems(ctx context.Context, owner lineitems.Owner, items []lineitems.Item) ([]lineitems.Item, error) {
	return t.lines.ReplaceAll(ctx, t.tx, owner, items)
}

func (t *txRepo) SetTaxID(ctx context.Context, kind lineitems.OwnerKind, id, taxID string) error {
	table := "estimates"
	if kind == lineitems.OwnerInvoice {
		table = "invoices"
	}
	_, err := t.tx.Exec(ctx, `UPDATE `+table+` SET tax_id = $2 WHERE id = $1 AND tax_id IS NULL`, id, taxID)
	return err
}

func (t *txRepo) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	return t.audit.Record(ctx, t.tx, log)
}
