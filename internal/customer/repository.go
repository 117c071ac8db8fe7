// AngelaMos | 2026
// repository.go

package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/omarkt13/seafable/internal/core"
)

type Repository interface {
	Create(ctx context.Context, c Customer) error
	ListByAuthID(ctx context.Context, authID string, limit int) ([]Customer, error)
	GetByEmail(ctx context.Context, email string) (Customer, error)
	ReassignAuthID(ctx context.Context, fromID, toID string) (Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const customerColumns = `
	id, email, first_name, last_name, role, avatar_url, created_at, updated_at`

// Create inserts c unless a row with its id already exists, in which case it
// reports core.ErrDuplicateKey.
func (r *repository) Create(ctx context.Context, c Customer) error {
	query := `
		INSERT INTO users (id, email, first_name, last_name, role, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.Email,
		c.FirstName,
		c.LastName,
		c.Role,
		c.AvatarURL,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create customer: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create customer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("create customer: %w", core.ErrDuplicateKey)
	}

	return nil
}

func (r *repository) ListByAuthID(
	ctx context.Context,
	authID string,
	limit int,
) ([]Customer, error) {
	query := `SELECT` + customerColumns + `
		FROM users
		WHERE id = $1
		LIMIT $2`

	var customers []Customer
	if err := r.db.SelectContext(ctx, &customers, query, authID, limit); err != nil {
		return nil, fmt.Errorf("list customers by auth id: %w", err)
	}

	return customers, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (Customer, error) {
	query := `SELECT` + customerColumns + `
		FROM users
		WHERE LOWER(email) = LOWER($1)
		ORDER BY created_at
		LIMIT 1`

	var c Customer
	err := r.db.GetContext(ctx, &c, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, fmt.Errorf("get customer by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return Customer{}, fmt.Errorf("get customer by email: %w", err)
	}

	return c, nil
}

func (r *repository) ReassignAuthID(
	ctx context.Context,
	fromID, toID string,
) (Customer, error) {
	query := `
		UPDATE users
		SET id = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING` + customerColumns

	var c Customer
	err := r.db.GetContext(ctx, &c, query, fromID, toID)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, fmt.Errorf("reassign customer: %w", core.ErrNotFound)
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return Customer{}, fmt.Errorf("reassign customer: %w", core.ErrDuplicateKey)
		}
		return Customer{}, fmt.Errorf("reassign customer: %w", err)
	}

	return c, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Customer, error) {
	query := `SELECT` + customerColumns + `
		FROM users
		WHERE id = $1`

	var c Customer
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get customer: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return &c, nil
}

func (r *repository) Update(ctx context.Context, c *Customer) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, avatar_url = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &c.UpdatedAt, query,
		c.ID,
		c.FirstName,
		c.LastName,
		c.AvatarURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update customer: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return count, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == core.UniqueViolation
	}
	return false
}
