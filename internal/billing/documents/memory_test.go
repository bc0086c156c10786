package documents

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/odyssey-erp/estimator/internal/billing/lineitems"
	"github.com/odyssey-erp/estimator/internal/billing/taxes"
	"github.com/odyssey-erp/estimator/internal/shared"
)

var errInjected = errors.New("injected failure")

type memState struct {
	estimates map[string]Estimate
	invoices  map[string]Invoice
	lines     map[lineitems.Owner][]lineitems.Item
	audits    []shared.AuditLog
}

func (s memState) clone() memState {
	out := memState{
		estimates: make(map[string]Estimate, len(s.estimates)),
		invoices:  make(map[string]Invoice, len(s.invoices)),
		lines:     make(map[lineitems.Owner][]lineitems.Item, len(s.lines)),
		audits:    append([]shared.AuditLog(nil), s.audits...),
	}
	for k, v := range s.estimates {
		out.estimates[k] = v
	}
	for k, v := range s.invoices {
		out.invoices[k] = v
	}
	for k, v := range s.lines {
		out.lines[k] = append([]lineitems.Item(nil), v...)
	}
	return out
}

// memoryRepo commits a transaction's writes only when fn returns nil, which
// mirrors the all-or-nothing behaviour of the PostgreSQL repository.
type memoryRepo struct {
	mu    sync.Mutex
	state memState
	// failOn names a TxRepository method that returns errInjected.
	failOn string
	// beforeLock runs against the transaction snapshot before LockEstimate reads.
	beforeLock func(*memState)
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{state: memState{
		estimates: map[string]Estimate{},
		invoices:  map[string]Invoice{},
		lines:     map[lineitems.Owner][]lineitems.Item{},
	}}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{state: m.state.clone(), failOn: m.failOn, beforeLock: m.beforeLock}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *memoryRepo) GetEstimate(_ context.Context, ownerID, id string) (*Estimate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.state.estimates[id]
	if !ok || e.OwnerID != ownerID {
		return nil, fmt.Errorf("estimate %s: %w", id, shared.ErrNotFound)
	}
	e.LineItems = append([]lineitems.Item{}, m.state.lines[lineitems.Owner{Kind: lineitems.OwnerEstimate, ID: id}]...)
	return &e, nil
}

func (m *memoryRepo) GetInvoice(_ context.Context, ownerID, id string) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.state.invoices[id]
	if !ok || inv.OwnerID != ownerID {
		return nil, fmt.Errorf("invoice %s: %w", id, shared.ErrNotFound)
	}
	inv.LineItems = append([]lineitems.Item{}, m.state.lines[lineitems.Owner{Kind: lineitems.OwnerInvoice, ID: id}]...)
	return &inv, nil
}

func matchesFilter(req ListRequest, ownerID, clientID, status string) bool {
	if ownerID != req.OwnerID {
		return false
	}
	if req.ClientID != nil && *req.ClientID != clientID {
		return false
	}
	if req.Status != nil && *req.Status != status {
		return false
	}
	return true
}

func (m *memoryRepo) ListEstimates(_ context.Context, req ListRequest) ([]Estimate, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Estimate
	for _, e := range m.state.estimates {
		if matchesFilter(req, e.OwnerID, e.ClientID, string(e.Status)) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memoryRepo) ListInvoices(_ context.Context, req ListRequest) ([]Invoice, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Invoice
	for _, inv := range m.state.invoices {
		if matchesFilter(req, inv.OwnerID, inv.ClientID, string(inv.Status)) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memoryRepo) ListUntaxed(context.Context) ([]UntaxedDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []UntaxedDocument
	for _, e := range m.state.estimates {
		if e.TaxID == nil && e.Subtotal > 0 && e.Tax > 0 {
			out = append(out, UntaxedDocument{Kind: lineitems.OwnerEstimate, ID: e.ID, Number: e.Number, Subtotal: e.Subtotal, Tax: e.Tax})
		}
	}
	for _, inv := range m.state.invoices {
		if inv.TaxID == nil && inv.Subtotal > 0 && inv.Tax > 0 {
			out = append(out, UntaxedDocument{Kind: lineitems.OwnerInvoice, ID: inv.ID, Number: inv.Number, Subtotal: inv.Subtotal, Tax: inv.Tax})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepo) counts() (estimates, invoices int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.estimates), len(m.state.invoices)
}

func (m *memoryRepo) linesOf(owner lineitems.Owner) []lineitems.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]lineitems.Item(nil), m.state.lines[owner]...)
}

type memTx struct {
	state      memState
	failOn     string
	beforeLock func(*memState)
}

func (t *memTx) fail(method string) error {
	if t.failOn == method {
		return errInjected
	}
	return nil
}

func (t *memTx) InsertEstimate(_ context.Context, e Estimate) error {
	if err := t.fail("InsertEstimate"); err != nil {
		return err
	}
	e.LineItems = nil
	t.state.estimates[e.ID] = e
	return nil
}

func (t *memTx) UpdateEstimate(_ context.Context, e Estimate) error {
	if err := t.fail("UpdateEstimate"); err != nil {
		return err
	}
	existing, ok := t.state.estimates[e.ID]
	if !ok || existing.OwnerID != e.OwnerID {
		return shared.ErrNotFound
	}
	e.LineItems = nil
	e.ConvertedInvoiceID = existing.ConvertedInvoiceID
	t.state.estimates[e.ID] = e
	return nil
}

func (t *memTx) DeleteEstimate(_ context.Context, ownerID, id string) error {
	e, ok := t.state.estimates[id]
	if !ok || e.OwnerID != ownerID {
		return fmt.Errorf("estimate %s: %w", id, shared.ErrNotFound)
	}
	delete(t.state.estimates, id)
	delete(t.state.lines, lineitems.Owner{Kind: lineitems.OwnerEstimate, ID: id})
	return nil
}

func (t *memTx) LockEstimate(_ context.Context, ownerID, id string) (*Estimate, error) {
	if t.beforeLock != nil {
		t.beforeLock(&t.state)
	}
	e, ok := t.state.estimates[id]
	if !ok || e.OwnerID != ownerID {
		return nil, fmt.Errorf("estimate %s: %w", id, shared.ErrNotFound)
	}
	return &e, nil
}

func (t *memTx) MarkEstimateConverted(_ context.Context, ownerID, id, invoiceID string) error {
	if err := t.fail("MarkEstimateConverted"); err != nil {
		return err
	}
	e, ok := t.state.estimates[id]
	if !ok || e.OwnerID != ownerID {
		return shared.ErrNotFound
	}
	if e.Converted() {
		return shared.ErrConversionConflict
	}
	e.Status = EstimateStatusConverted
	e.ConvertedInvoiceID = &invoiceID
	t.state.estimates[id] = e
	return nil
}

func (t *memTx) SetEstimateStatus(_ context.Context, ownerID, id string, status EstimateStatus) error {
	e, ok := t.state.estimates[id]
	if !ok || e.OwnerID != ownerID {
		return shared.ErrNotFound
	}
	e.Status = status
	t.state.estimates[id] = e
	return nil
}

func (t *memTx) InsertInvoice(_ context.Context, inv Invoice) error {
	if err := t.fail("InsertInvoice"); err != nil {
		return err
	}
	inv.LineItems = nil
	t.state.invoices[inv.ID] = inv
	return nil
}

func (t *memTx) UpdateInvoice(_ context.Context, inv Invoice) error {
	existing, ok := t.state.invoices[inv.ID]
	if !ok || existing.OwnerID != inv.OwnerID {
		return shared.ErrNotFound
	}
	inv.LineItems = nil
	t.state.invoices[inv.ID] = inv
	return nil
}

func (t *memTx) DeleteInvoice(_ context.Context, ownerID, id string) error {
	inv, ok := t.state.invoices[id]
	if !ok || inv.OwnerID != ownerID {
		return fmt.Errorf("invoice %s: %w", id, shared.ErrNotFound)
	}
	delete(t.state.invoices, id)
	delete(t.state.lines, lineitems.Owner{Kind: lineitems.OwnerInvoice, ID: id})
	return nil
}

func (t *memTx) SetInvoiceStatus(_ context.Context, ownerID, id string, status InvoiceStatus) error {
	inv, ok := t.state.invoices[id]
	if !ok || inv.OwnerID != ownerID {
		return shared.ErrNotFound
	}
	inv.Status = status
	t.state.invoices[id] = inv
	return nil
}

func (t *memTx) ListLineItems(_ context.Context, owner lineitems.Owner) ([]lineitems.Item, error) {
	return append([]lineitems.Item{}, t.state.lines[owner]...), nil
}

func (t *memTx) ReplaceLineItems(_ context.Context, owner lineitems.Owner, items []lineitems.Item) ([]lineitems.Item, error) {
	if err := t.fail("ReplaceLineItems"); err != nil {
		return nil, err
	}
	out := lineitems.Normalize(items)
	t.state.lines[owner] = out
	return out, nil
}

func (t *memTx) SetTaxID(_ context.Context, kind lineitems.OwnerKind, id, taxID string) error {
	if kind == lineitems.OwnerInvoice {
		inv := t.state.invoices[id]
		inv.TaxID = &taxID
		t.state.invoices[id] = inv
		return nil
	}
	e := t.state.estimates[id]
	e.TaxID = &taxID
	t.state.estimates[id] = e
	return nil
}

func (t *memTx) RecordAudit(_ context.Context, log shared.AuditLog) error {
	if err := t.fail("RecordAudit"); err != nil {
		return err
	}
	t.state.audits = append(t.state.audits, log)
	return nil
}

type staticTaxes []taxes.Tax

func (s staticTaxes) List(context.Context) ([]taxes.Tax, error) {
	return s, nil
}

type clientSet map[string]bool

func (c clientSet) Exists(_ context.Context, _, id string) (bool, error) {
	return c[id], nil
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (c *countingObserver) ObserveConversion(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcomes == nil {
		c.outcomes = map[string]int{}
	}
	c.outcomes[outcome]++
}
