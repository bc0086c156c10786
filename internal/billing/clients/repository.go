package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/estimator/internal/platform/db"
	"github.com/odyssey-erp/estimator/internal/shared"
)

// ErrInUse is returned when deleting a client that documents still reference.
var ErrInUse = errors.New("client is referenced by estimates or invoices")

// Repository persists clients scoped by owner.
type Repository interface {
	Get(ctx context.Context, ownerID, id string) (*Client, error)
	List(ctx context.Context, req ListClientsRequest) ([]Client, int, error)
	Count(ctx context.Context, ownerID string) (int, error)
	Create(ctx context.Context, c Client) error
	Update(ctx context.Context, c Client) error
	Delete(ctx context.Context, ownerID, id string) error
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const clientColumns = `id, owner_id, first_name, last_name, email, phone, address, created_at, updated_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.OwnerID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) Get(ctx context.Context, ownerID, id string) (*Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE owner_id = $1 AND id = $2`, ownerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("client %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	conditions := []string{"owner_id = $1"}
	args := []any{req.OwnerID}
	if s := strings.TrimSpace(req.Search); s != "" {
		args = append(args, "%"+s+"%")
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", len(args), len(args), len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM clients`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, req.Offset)
	query := fmt.Sprintf(`SELECT `+clientColumns+` FROM clients%s ORDER BY last_name, first_name, id LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE owner_id = $1`, ownerID).Scan(&n)
	return n, err
}

func (r *repository) Create(ctx context.Context, c Client) error {
	_, err := r.db.Exec(ctx, `INSERT INTO clients (`+clientColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		c.ID, c.OwnerID, c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.CreatedAt)
	return err
}

func (r *repository) Update(ctx context.Context, c Client) error {
	tag, err := r.db.Exec(ctx, `UPDATE clients SET first_name = $3, last_name = $4, email = $5, phone = $6, address = $7, updated_at = $8
		WHERE owner_id = $1 AND id = $2`,
		c.OwnerID, c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %s: %w", c.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %s: %w", id, shared.ErrNotFound)
	}
	return nil
}
