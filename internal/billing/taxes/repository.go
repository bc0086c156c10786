package taxes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/estimator/internal/platform/db"
	"github.com/odyssey-erp/estimator/internal/shared"
)

// Repository persists taxes.
type Repository interface {
	List(ctx context.Context) ([]Tax, error)
	Get(ctx context.Context, id string) (*Tax, error)
	Create(ctx context.Context, t Tax) error
	Update(ctx context.Context, t Tax) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const taxColumns = `id, name, rate, created_at, updated_at`

func (r *repository) List(ctx context.Context) ([]Tax, error) {
	rows, err := r.db.Query(ctx, `SELECT `+taxColumns+` FROM taxes ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list taxes: %w", err)
	}
	defer rows.Close()

	var out []Tax
	for rows.Next() {
		var t Tax
		if err := rows.Scan(&t.ID, &t.Name, &t.Rate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id string) (*Tax, error) {
	var t Tax
	err := r.db.QueryRow(ctx, `SELECT `+taxColumns+` FROM taxes WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Rate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("tax %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) Create(ctx context.Context, t Tax) error {
	_, err := r.db.Exec(ctx, `INSERT INTO taxes (id, name, rate, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
		t.ID, t.Name, t.Rate, t.CreatedAt)
	return err
}

func (r *repository) Update(ctx context.Context, t Tax) error {
	tag, err := r.db.Exec(ctx, `UPDATE taxes SET name = $2, rate = $3, updated_at = $4 WHERE id = $1`,
		t.ID, t.Name, t.Rate, t.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tax %s: %w", t.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM taxes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tax %s: %w", id, shared.ErrNotFound)
	}
	return nil
}
