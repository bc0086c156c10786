package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/estimator/internal/platform/db"
	"github.com/odyssey-erp/estimator/internal/shared"
)

// Repository persists services and parts.
type Repository interface {
	List(ctx context.Context, kind Kind) ([]Item, error)
	Get(ctx context.Context, kind Kind, id string) (*Item, error)
	Create(ctx context.Context, item Item) error
	Update(ctx context.Context, item Item) error
	Delete(ctx context.Context, kind Kind, id string) error
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func table(kind Kind) (string, error) {
	switch kind {
	case KindService:
		return "services", nil
	case KindPart:
		return "parts", nil
	}
	return "", shared.NewValidationError("kind", "unknown catalog kind")
}

// Parts carry cost; services select NULL so both scan identically.
func selectColumns(kind Kind) string {
	cost := "NULL::numeric"
	if kind == KindPart {
		cost = "cost"
	}
	return `id, name, description, price, ` + cost + `, image_url, created_at, updated_at`
}

func scanItem(row pgx.Row, kind Kind) (Item, error) {
	item := Item{Kind: kind}
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.Cost, &item.ImageURL, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

func (r *repository) List(ctx context.Context, kind Kind) ([]Item, error) {
	tbl, err := table(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns(kind)+` FROM `+tbl+` ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", tbl, err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		item, err := scanItem(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, kind Kind, id string) (*Item, error) {
	tbl, err := table(kind)
	if err != nil {
		return nil, err
	}
	item, err := scanItem(r.db.QueryRow(ctx, `SELECT `+selectColumns(kind)+` FROM `+tbl+` WHERE id = $1`, id), kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s %s: %w", kind, id, shared.ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) Create(ctx context.Context, item Item) error {
	switch item.Kind {
	case KindService:
		_, err := r.db.Exec(ctx, `INSERT INTO services (id, name, description, price, image_url, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)`,
			item.ID, item.Name, item.Description, item.Price, item.ImageURL, item.CreatedAt)
		return err
	case KindPart:
		_, err := r.db.Exec(ctx, `INSERT INTO parts (id, name, description, price, cost, image_url, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
			item.ID, item.Name, item.Description, item.Price, item.Cost, item.ImageURL, item.CreatedAt)
		return err
	}
	_, err := table(item.Kind)
	return err
}

func (r *repository) Update(ctx context.Context, item Item) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	switch item.Kind {
	case KindService:
		tag, err = r.db.Exec(ctx, `UPDATE services SET name = $2, description = $3, price = $4, image_url = $5, updated_at = $6 WHERE id = $1`,
			item.ID, item.Name, item.Description, item.Price, item.ImageURL, item.UpdatedAt)
	case KindPart:
		tag, err = r.db.Exec(ctx, `UPDATE parts SET name = $2, description = $3, price = $4, cost = $5, image_url = $6, updated_at = $7 WHERE id = $1`,
			item.ID, item.Name, item.Description, item.Price, item.Cost, item.ImageURL, item.UpdatedAt)
	default:
		_, err = table(item.Kind)
		return err
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", item.Kind, item.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, kind Kind, id string) error {
	tbl, err := table(kind)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM `+tbl+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, shared.ErrNotFound)
	}
	return nil
}
