// Package lineitems stores the ordered line item collection owned by an
// estimate or invoice. Writes run on the caller's transaction so they commit
// together with the parent document.
package lineitems

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/odyssey-erp/estimator/internal/billing/money"
	"github.com/odyssey-erp/estimator/internal/platform/db"
)

// OwnerKind names the parent document type.
type OwnerKind string

const (
	OwnerEstimate OwnerKind = "estimate"
	OwnerInvoice  OwnerKind = "invoice"
)

// Owner identifies the document a collection belongs to.
type Owner struct {
	Kind OwnerKind
	ID   string
}

// Item is one line of a document. Description may contain markup.
type Item struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Position    int     `json:"position"`
}

// Amount returns quantity * price.
func (i Item) Amount() float64 {
	return i.Quantity * i.Price
}

// MoneyLines projects items for the calculator.
func MoneyLines(items []Item) []money.Line {
	out := make([]money.Line, len(items))
	for i, it := range items {
		out[i] = money.Line{Quantity: it.Quantity, Price: it.Price}
	}
	return out
}

// CopyForNewOwner returns copies with fresh identities and the same content and order.
func CopyForNewOwner(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{ID: uuid.NewString(), Description: it.Description, Quantity: it.Quantity, Price: it.Price, Position: it.Position}
	}
	return out
}

func tables(kind OwnerKind) (table, fk string, err error) {
	switch kind {
	case OwnerEstimate:
		return "estimate_line_items", "estimate_id", nil
	case OwnerInvoice:
		return "invoice_line_items", "invoice_id", nil
	}
	return "", "", fmt.Errorf("lineitems: unknown owner kind %q", kind)
}

// Store reads and writes collections through a query executor, which is
// normally the transaction of the parent document write.
type Store struct{}

// NewStore returns a Store.
func NewStore() *Store {
	return &Store{}
}

// List returns the owner's items in insertion order.
func (s *Store) List(ctx context.Context, q db.DBTX, owner Owner) ([]Item, error) {
	table, fk, err := tables(owner.Kind)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, `SELECT id, description, quantity, price, position FROM `+table+` WHERE `+fk+` = $1 ORDER BY position, id`, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list %s line items: %w", owner.Kind, err)
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Description, &it.Quantity, &it.Price, &it.Position); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ReplaceAll deletes every item of owner and inserts items in order. Items
// without an ID receive one; positions are rewritten to 1..n.
func (s *Store) ReplaceAll(ctx context.Context, q db.DBTX, owner Owner, items []Item) ([]Item, error) {
	if err := s.DeleteAll(ctx, q, owner); err != nil {
		return nil, err
	}
	return s.insert(ctx, q, owner, items)
}

// DeleteAll removes every item of owner.
func (s *Store) DeleteAll(ctx context.Context, q db.DBTX, owner Owner) error {
	table, fk, err := tables(owner.Kind)
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, `DELETE FROM `+table+` WHERE `+fk+` = $1`, owner.ID); err != nil {
		return fmt.Errorf("delete %s line items: %w", owner.Kind, err)
	}
	return nil
}

func (s *Store) insert(ctx context.Context, q db.DBTX, owner Owner, items []Item) ([]Item, error) {
	table, fk, err := tables(owner.Kind)
	if err != nil {
		return nil, err
	}
	out := Normalize(items)
	for _, it := range out {
		if _, err := q.Exec(ctx, `INSERT INTO `+table+` (id, `+fk+`, description, quantity, price, position) VALUES ($1, $2, $3, $4, $5, $6)`,
			it.ID, owner.ID, it.Description, it.Quantity, it.Price, it.Position); err != nil {
			return nil, fmt.Errorf("insert %s line item: %w", owner.Kind, err)
		}
	}
	return out, nil
}

// Normalize assigns missing IDs and sequential positions without mutating items.
func Normalize(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.Position = i + 1
		out[i] = it
	}
	return out
}
