package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/estimator/internal/billing/catalog"
	"github.com/odyssey-erp/estimator/internal/billing/lineitems"
	"github.com/odyssey-erp/estimator/internal/billing/money"
	"github.com/odyssey-erp/estimator/internal/billing/taxes"
	"github.com/odyssey-erp/estimator/internal/platform/db"
	"github.com/odyssey-erp/estimator/internal/shared"
)

// DefaultDueDays is the default offset from issue date to expiry or due date.
const DefaultDueDays = 30

// TaxLister provides the tax table used to resolve selectors.
type TaxLister interface {
	List(ctx context.Context) ([]taxes.Tax, error)
}

// ClientChecker confirms a client belongs to the owner.
type ClientChecker interface {
	Exists(ctx context.Context, ownerID, id string) (bool, error)
}

// Matcher resolves line descriptions to catalog entries.
type Matcher interface {
	MatchAll(ctx context.Context, descriptions []string) ([]*catalog.Item, error)
}

// ConversionObserver counts conversion outcomes.
type ConversionObserver interface {
	ObserveConversion(outcome string)
}

// Conversion outcomes reported to the ConversionObserver.
const (
	ConversionCreated  = "created"
	ConversionExisting = "existing"
	ConversionFailed   = "failed"
)

// Options tunes a Service.
type Options struct {
	DueDays  int
	Numberer Numberer
	Metrics  ConversionObserver
	Logger   *slog.Logger
	Now      func() time.Time
}

// Service implements document persistence, lifecycle transitions and conversion.
type Service struct {
	repo     Repository
	taxes    TaxLister
	clients  ClientChecker
	matcher  Matcher
	numbers  Numberer
	metrics  ConversionObserver
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
	dueDays  int
}

// NewService constructs the document service. clients and matcher may be nil.
func NewService(repo Repository, taxLister TaxLister, clients ClientChecker, matcher Matcher, opts Options) *Service {
	s := &Service{
		repo:     repo,
		taxes:    taxLister,
		clients:  clients,
		matcher:  matcher,
		numbers:  opts.Numberer,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		validate: shared.NewValidator(),
		now:      opts.Now,
		dueDays:  opts.DueDays,
	}
	if s.numbers == nil {
		s.numbers = RandomNumberer{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.dueDays <= 0 {
		s.dueDays = DefaultDueDays
	}
	return s
}

// Calculate computes totals for a draft form without persisting anything.
func (s *Service) Calculate(ctx context.Context, req CalculateRequest) (CalculateResponse, error) {
	list, err := s.listTaxes(ctx)
	if err != nil {
		return CalculateResponse{}, err
	}
	rate := taxes.ResolveRate(req.TaxID, list)
	totals := money.Compute(lineitems.MoneyLines(toItems(req.LineItems)), rate)
	resp := CalculateResponse{
		Rate:     rate,
		Subtotal: totals.Subtotal,
		Tax:      totals.Tax,
		Total:    totals.Total,
		Display:  newDisplay(totals),
	}
	if req.AmountPaid != nil {
		balance := money.BalanceDue(totals.Total, req.AmountPaid.Float64())
		resp.BalanceDue = &balance
		resp.Display.BalanceDue = money.Fixed2(balance)
	}
	return resp, nil
}

// CreateEstimate validates, prices and stores a new Draft estimate with its lines.
func (s *Service) CreateEstimate(ctx context.Context, ownerID string, req SaveEstimateRequest) (*Estimate, error) {
	priced, err := s.prepare(ctx, ownerID, req.ClientID, req.TaxID, req.LineItems, &req)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	e := Estimate{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Number:       s.numbers.EstimateNumber(now),
		ClientID:     priced.clientID,
		EstimateDate: dateOr(req.EstimateDate, now),
		TaxID:        priced.taxID,
		Status:       EstimateStatusDraft,
		Subtotal:     priced.totals.Subtotal,
		Tax:          priced.totals.Tax,
		Total:        priced.totals.Total,
		HostContext:  hostContext(ctx),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	e.ExpiryDate = dateOr(req.ExpiryDate, e.EstimateDate.AddDate(0, 0, s.dueDays))
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertEstimate(ctx, e); err != nil {
			return fmt.Errorf("insert estimate: %w", err)
		}
		items, err := tx.ReplaceLineItems(ctx, lineitems.Owner{Kind: lineitems.OwnerEstimate, ID: e.ID}, priced.items)
		if err != nil {
			return fmt.Errorf("insert estimate lines: %w", err)
		}
		e.LineItems = items
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create estimate: %w: %w", shared.ErrPersistence, err)
	}
	return &e, nil
}

// UpdateEstimate recomputes totals and replaces the line items wholesale.
func (s *Service) UpdateEstimate(ctx context.Context, ownerID, id string, req SaveEstimateRequest) (*Estimate, error) {
	e, err := s.repo.GetEstimate(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	selector, err := s.keepSelector(ctx, req.TaxID, e.TaxID, e.Subtotal, e.Tax)
	if err != nil {
		return nil, err
	}
	priced, err := s.prepare(ctx, ownerID, req.ClientID, selector, req.LineItems, &req)
	if err != nil {
		return nil, err
	}
	if req.Status != nil {
		if err := CheckEstimateTransition(e.Status, *req.Status); err != nil {
			return nil, err
		}
		e.Status = *req.Status
	}
	e.ClientID = priced.clientID
	e.TaxID = priced.taxID
	e.Subtotal, e.Tax, e.Total = priced.totals.Subtotal, priced.totals.Tax, priced.totals.Total
	if req.EstimateDate != nil {
		e.EstimateDate = req.EstimateDate.UTC()
	}
	if req.ExpiryDate != nil {
		e.ExpiryDate = req.ExpiryDate.UTC()
	}
	e.UpdatedAt = s.now().UTC()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateEstimate(ctx, *e); err != nil {
			return fmt.Errorf("update estimate: %w", err)
		}
		items, err := tx.ReplaceLineItems(ctx, lineitems.Owner{Kind: lineitems.OwnerEstimate, ID: e.ID}, priced.items)
		if err != nil {
			return fmt.Errorf("replace estimate lines: %w", err)
		}
		e.LineItems = items
		return nil
	})
	if err != nil {
		return nil, persistenceError("update estimate", err)
	}
	return e, nil
}

// DeleteEstimate removes the estimate; its lines cascade.
func (s *Service) DeleteEstimate(ctx context.Context, ownerID, id string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeleteEstimate(ctx, ownerID, id)
	})
	if err != nil {
		return persistenceError("delete estimate", err)
	}
	return nil
}

// GetEstimate loads an estimate with its lines.
func (s *Service) GetEstimate(ctx context.Context, ownerID, id string) (*Estimate, error) {
	return s.repo.GetEstimate(ctx, ownerID, id)
}

// ListEstimates returns a page of estimates without lines.
func (s *Service) ListEstimates(ctx context.Context, req ListRequest) ([]Estimate, int, error) {
	if req.Status != nil && !EstimateStatus(*req.Status).Valid() {
		return nil, 0, shared.NewValidationError("status", "Unknown estimate status.")
	}
	list, total, err := s.repo.ListEstimates(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("list estimates: %w", err)
	}
	return list, total, nil
}

// TransitionEstimate applies a user-selected status.
func (s *Service) TransitionEstimate(ctx context.Context, ownerID, id string, to EstimateStatus) (*Estimate, error) {
	e, err := s.repo.GetEstimate(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := CheckEstimateTransition(e.Status, to); err != nil {
		return nil, err
	}
	if e.Status == to {
		return e, nil
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetEstimateStatus(ctx, ownerID, id, to)
	})
	if err != nil {
		return nil, persistenceError("transition estimate", err)
	}
	e.Status = to
	return e, nil
}

// ConvertEstimateToInvoice creates an invoice from the estimate, copies its
// lines and marks the estimate converted in one transaction. Converting an
// estimate twice returns the first invoice with Created false.
func (s *Service) ConvertEstimateToInvoice(ctx context.Context, ownerID, estimateID string) (ConversionResult, error) {
	estimate, err := s.repo.GetEstimate(ctx, ownerID, estimateID)
	if err != nil {
		return ConversionResult{}, err
	}
	if estimate.Converted() {
		s.observe(ConversionExisting)
		return ConversionResult{InvoiceID: *estimate.ConvertedInvoiceID}, nil
	}

	now := s.now().UTC()
	invoice := Invoice{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Number:         s.numbers.ConvertedInvoiceNumber(now),
		InvoiceDate:    now,
		DueDate:        now.AddDate(0, 0, s.dueDays),
		Status:         InvoiceStatusDraft,
		AmountPaid:     0,
		EstimateID:     &estimate.ID,
		EstimateNumber: &estimate.Number,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockEstimate(ctx, ownerID, estimateID)
		if err != nil {
			return err
		}
		if locked.Converted() {
			return &shared.ConversionConflictError{EstimateID: estimateID, InvoiceID: *locked.ConvertedInvoiceID}
		}
		lines, err := tx.ListLineItems(ctx, lineitems.Owner{Kind: lineitems.OwnerEstimate, ID: estimateID})
		if err != nil {
			return fmt.Errorf("load estimate lines: %w", err)
		}

		invoice.ClientID = locked.ClientID
		invoice.TaxID = locked.TaxID
		invoice.Subtotal, invoice.Tax, invoice.Total = locked.Subtotal, locked.Tax, locked.Total
		if err := tx.InsertInvoice(ctx, invoice); err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		copied, err := tx.ReplaceLineItems(ctx, lineitems.Owner{Kind: lineitems.OwnerInvoice, ID: invoice.ID}, lineitems.CopyForNewOwner(lines))
		if err != nil {
			return fmt.Errorf("copy lines: %w", err)
		}
		invoice.LineItems = copied
		if err := tx.MarkEstimateConverted(ctx, ownerID, estimateID, invoice.ID); err != nil {
			return fmt.Errorf("mark converted: %w", err)
		}
		return tx.RecordAudit(ctx, shared.AuditLog{
			ActorID:  ownerID,
			Action:   "estimate.converted",
			Entity:   "estimate",
			EntityID: estimateID,
			Meta:     map[string]any{"invoice_id": invoice.ID, "invoice_number": invoice.Number},
			At:       now,
		})
	})
	if err == nil {
		s.observe(ConversionCreated)
		s.logger.Info("estimate converted", slog.String("estimate_id", estimateID), slog.String("invoice_id", invoice.ID))
		return ConversionResult{InvoiceID: invoice.ID, Created: true}, nil
	}

	var conflict *shared.ConversionConflictError
	if errors.As(err, &conflict) {
		s.observe(ConversionExisting)
		return ConversionResult{InvoiceID: conflict.InvoiceID}, nil
	}
	if errors.Is(err, shared.ErrNotFound) {
		return ConversionResult{}, err
	}
	if db.IsSerializationFailure(err) || db.IsUniqueViolation(err) || errors.Is(err, shared.ErrConversionConflict) {
		// A concurrent conversion committed first.
		if current, rerr := s.repo.GetEstimate(ctx, ownerID, estimateID); rerr == nil && current.Converted() {
			s.observe(ConversionExisting)
			return ConversionResult{InvoiceID: *current.ConvertedInvoiceID}, nil
		}
	}
	s.observe(ConversionFailed)
	s.logger.Error("estimate conversion failed", slog.String("estimate_id", estimateID), slog.Any("error", err))
	return ConversionResult{}, fmt.Errorf("convert estimate %s: %w: %w", estimateID, shared.ErrConversionFailed, err)
}

// CreateInvoice validates, prices and stores a new Draft invoice.
func (s *Service) CreateInvoice(ctx context.Context, ownerID string, req SaveInvoiceRequest) (*Invoice, error) {
	priced, err := s.prepare(ctx, ownerID, req.ClientID, req.TaxID, req.LineItems, &req)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	inv := Invoice{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Number:      s.numbers.InvoiceNumber(now),
		ClientID:    priced.clientID,
		InvoiceDate: dateOr(req.InvoiceDate, now),
		TaxID:       priced.taxID,
		Status:      InvoiceStatusDraft,
		Subtotal:    priced.totals.Subtotal,
		Tax:         priced.totals.Tax,
		Total:       priced.totals.Total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	inv.DueDate = dateOr(req.DueDate, inv.InvoiceDate.AddDate(0, 0, s.dueDays))
	if req.AmountPaid != nil {
		inv.AmountPaid = req.AmountPaid.Float64()
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertInvoice(ctx, inv); err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		items, err := tx.ReplaceLineItems(ctx, lineitems.Owner{Kind: lineitems.OwnerInvoice, ID: inv.ID}, priced.items)
		if err != nil {
			return fmt.Errorf("insert invoice lines: %w", err)
		}
		inv.LineItems = items
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w: %w", shared.ErrPersistence, err)
	}
	return &inv, nil
}

// UpdateInvoice recomputes totals and replaces the line items wholesale.
func (s *Service) UpdateInvoice(ctx context.Context, ownerID, id string, req SaveInvoiceRequest) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	selector, err := s.keepSelector(ctx, req.TaxID, inv.TaxID, inv.Subtotal, inv.Tax)
	if err != nil {
		return nil, err
	}
	priced, err := s.prepare(ctx, ownerID, req.ClientID, selector, req.LineItems, &req)
	if err != nil {
		return nil, err
	}
	if req.Status != nil {
		if err := CheckInvoiceTransition(inv.Status, *req.Status); err != nil {
			return nil, err
		}
		inv.Status = *req.Status
	}
	inv.ClientID = priced.clientID
	inv.TaxID = priced.taxID
	inv.Subtotal, inv.Tax, inv.Total = priced.totals.Subtotal, priced.totals.Tax, priced.totals.Total
	if req.AmountPaid != nil {
		inv.AmountPaid = req.AmountPaid.Float64()
	}
	if req.InvoiceDate != nil {
		inv.InvoiceDate = req.InvoiceDate.UTC()
	}
	if req.DueDate != nil {
		inv.DueDate = req.DueDate.UTC()
	}
	inv.UpdatedAt = s.now().UTC()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateInvoice(ctx, *inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		items, err := tx.ReplaceLineItems(ctx, lineitems.Owner{Kind: lineitems.OwnerInvoice, ID: inv.ID}, priced.items)
		if err != nil {
			return fmt.Errorf("replace invoice lines: %w", err)
		}
		inv.LineItems = items
		return nil
	})
	if err != nil {
		return nil, persistenceError("update invoice", err)
	}
	return inv, nil
}

// DeleteInvoice removes the invoice; its lines cascade.
func (s *Service) DeleteInvoice(ctx context.Context, ownerID, id string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeleteInvoice(ctx, ownerID, id)
	})
	if err != nil {
		return persistenceError("delete invoice", err)
	}
	return nil
}

// GetInvoice loads an invoice with its lines.
func (s *Service) GetInvoice(ctx context.Context, ownerID, id string) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, ownerID, id)
}

// ListInvoices returns a page of invoices without lines.
func (s *Service) ListInvoices(ctx context.Context, req ListRequest) ([]Invoice, int, error) {
	if req.Status != nil && !InvoiceStatus(*req.Status).Valid() {
		return nil, 0, shared.NewValidationError("status", "Unknown invoice status.")
	}
	list, total, err := s.repo.ListInvoices(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return list, total, nil
}

// TransitionInvoice applies a status change.
func (s *Service) TransitionInvoice(ctx context.Context, ownerID, id string, to InvoiceStatus) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := CheckInvoiceTransition(inv.Status, to); err != nil {
		return nil, err
	}
	if inv.Status == to {
		return inv, nil
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetInvoiceStatus(ctx, ownerID, id, to)
	})
	if err != nil {
		return nil, persistenceError("transition invoice", err)
	}
	inv.Status = to
	return inv, nil
}

// EstimateView projects an estimate, resolving its tax selector and, when
// lines are loaded, their catalog matches.
func (s *Service) EstimateView(ctx context.Context, e Estimate) (EstimateView, error) {
	list, err := s.listTaxes(ctx)
	if err != nil {
		return EstimateView{}, err
	}
	matches := s.matches(ctx, e.LineItems)
	v := estimateView(e, list)
	v.LineItems = lineViews(e.LineItems, matches)
	return v, nil
}

// EstimateViews projects a listing page.
func (s *Service) EstimateViews(ctx context.Context, list []Estimate) ([]EstimateView, error) {
	taxList, err := s.listTaxes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]EstimateView, len(list))
	for i, e := range list {
		out[i] = estimateView(e, taxList)
	}
	return out, nil
}

// InvoiceView projects an invoice with its balance due.
func (s *Service) InvoiceView(ctx context.Context, inv Invoice) (InvoiceView, error) {
	list, err := s.listTaxes(ctx)
	if err != nil {
		return InvoiceView{}, err
	}
	matches := s.matches(ctx, inv.LineItems)
	v := invoiceView(inv, list)
	v.LineItems = lineViews(inv.LineItems, matches)
	return v, nil
}

// InvoiceViews projects a listing page.
func (s *Service) InvoiceViews(ctx context.Context, list []Invoice) ([]InvoiceView, error) {
	taxList, err := s.listTaxes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]InvoiceView, len(list))
	for i, inv := range list {
		out[i] = invoiceView(inv, taxList)
	}
	return out, nil
}

func estimateView(e Estimate, taxList []taxes.Tax) EstimateView {
	return EstimateView{
		ID:                 e.ID,
		Number:             e.Number,
		ClientID:           e.ClientID,
		EstimateDate:       e.EstimateDate,
		ExpiryDate:         e.ExpiryDate,
		TaxID:              e.TaxID,
		TaxSelector:        taxes.Selector(e.TaxID, e.Subtotal, e.Tax, taxList),
		Status:             e.Status,
		Subtotal:           e.Subtotal,
		Tax:                e.Tax,
		Total:              e.Total,
		Display:            newDisplay(e.Totals()),
		ConvertedInvoiceID: e.ConvertedInvoiceID,
		HostContext:        e.HostContext,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func invoiceView(inv Invoice, taxList []taxes.Tax) InvoiceView {
	display := newDisplay(inv.Totals())
	display.BalanceDue = money.Fixed2(inv.BalanceDue())
	return InvoiceView{
		ID:             inv.ID,
		Number:         inv.Number,
		ClientID:       inv.ClientID,
		EstimateID:     inv.EstimateID,
		EstimateNumber: inv.EstimateNumber,
		InvoiceDate:    inv.InvoiceDate,
		DueDate:        inv.DueDate,
		TaxID:          inv.TaxID,
		TaxSelector:    taxes.Selector(inv.TaxID, inv.Subtotal, inv.Tax, taxList),
		Status:         inv.Status,
		Subtotal:       inv.Subtotal,
		Tax:            inv.Tax,
		Total:          inv.Total,
		AmountPaid:     inv.AmountPaid,
		BalanceDue:     inv.BalanceDue(),
		Display:        display,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

type pricedForm struct {
	clientID string
	taxID    *string
	items    []lineitems.Item
	totals   money.Totals
}

// prepare validates the shared form fields and computes totals. An unknown
// tax selector is stored as no tax.
func (s *Service) prepare(ctx context.Context, ownerID, clientID, taxID string, lines []LineItemInput, req any) (pricedForm, error) {
	clientID = strings.TrimSpace(clientID)
	if err := shared.ValidateStruct(s.validate, req); err != nil {
		return pricedForm{}, err
	}
	if clientID == "" {
		return pricedForm{}, shared.NewValidationError("client_id", "Client is required.")
	}
	if s.clients != nil {
		ok, err := s.clients.Exists(ctx, ownerID, clientID)
		if err != nil {
			return pricedForm{}, fmt.Errorf("check client: %w", err)
		}
		if !ok {
			return pricedForm{}, shared.NewValidationError("client_id", "Client not found.")
		}
	}
	list, err := s.listTaxes(ctx)
	if err != nil {
		return pricedForm{}, err
	}
	out := pricedForm{clientID: clientID, items: toItems(lines)}
	taxID = strings.TrimSpace(taxID)
	if taxID != "" && taxID != taxes.SelectorNone && taxes.Known(taxID, list) {
		out.taxID = &taxID
	}
	out.totals = money.Compute(lineitems.MoneyLines(out.items), taxes.ResolveRate(taxID, list))
	return out, nil
}

// keepSelector returns requested, or the stored document's effective selector
// when requested is empty.
func (s *Service) keepSelector(ctx context.Context, requested string, taxID *string, subtotal, tax float64) (string, error) {
	if strings.TrimSpace(requested) != "" {
		return requested, nil
	}
	list, err := s.listTaxes(ctx)
	if err != nil {
		return "", err
	}
	return taxes.Selector(taxID, subtotal, tax, list), nil
}

func (s *Service) listTaxes(ctx context.Context) ([]taxes.Tax, error) {
	if s.taxes == nil {
		return nil, nil
	}
	list, err := s.taxes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load taxes: %w", err)
	}
	return list, nil
}

// matches is display enrichment only; failures degrade to no match.
func (s *Service) matches(ctx context.Context, items []lineitems.Item) []*catalog.Item {
	if s.matcher == nil || len(items) == 0 {
		return nil
	}
	descriptions := make([]string, len(items))
	for i, it := range items {
		descriptions[i] = it.Description
	}
	out, err := s.matcher.MatchAll(ctx, descriptions)
	if err != nil {
		s.logger.Warn("catalog match failed", slog.Any("error", err))
		return nil
	}
	return out
}

func (s *Service) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveConversion(outcome)
	}
}

func hostContext(ctx context.Context) map[string]any {
	id, ok := shared.IdentityFromContext(ctx)
	if !ok || id.Anonymous {
		return nil
	}
	out := map[string]any{"user_id": id.UserID}
	if id.SessionID != "" {
		out["session_id"] = id.SessionID
	}
	if id.PageID != "" {
		out["page_id"] = id.PageID
	}
	for k, v := range id.Context {
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	return out
}

func dateOr(v *time.Time, fallback time.Time) time.Time {
	if v == nil || v.IsZero() {
		return fallback
	}
	return v.UTC()
}

func persistenceError(op string, err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, shared.ErrPersistence, err)
}
