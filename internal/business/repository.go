// AngelaMos | 2026
// repository.go

package business

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/omarkt13/seafable/internal/core"
)

type Repository interface {
	Create(ctx context.Context, h Host) error
	ListByAuthID(ctx context.Context, authID string, limit int) ([]Host, error)
	GetByEmail(ctx context.Context, email string) (Host, error)
	ReassignAuthID(ctx context.Context, fromID, toID string) (Host, error)
	GetByUserID(ctx context.Context, userID string) (*Host, error)
	Update(ctx context.Context, h *Host) error
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const hostColumns = `
	id, user_id, email, name, business_name, host_type, rating,
	total_reviews, created_at, updated_at`

// Create inserts h unless the account already has a host profile, in which
// case it reports core.ErrDuplicateKey.
func (r *repository) Create(ctx context.Context, h Host) error {
	query := `
		INSERT INTO host_profiles (id, user_id, email, name, business_name, host_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		h.ID,
		h.UserID,
		h.Email,
		h.Name,
		h.BusinessName,
		h.HostType,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create host: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create host: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create host: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("create host: %w", core.ErrDuplicateKey)
	}

	return nil
}

func (r *repository) ListByAuthID(
	ctx context.Context,
	authID string,
	limit int,
) ([]Host, error) {
	query := `SELECT` + hostColumns + `
		FROM host_profiles
		WHERE user_id = $1
		LIMIT $2`

	var hosts []Host
	if err := r.db.SelectContext(ctx, &hosts, query, authID, limit); err != nil {
		return nil, fmt.Errorf("list hosts by auth id: %w", err)
	}

	return hosts, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (Host, error) {
	query := `SELECT` + hostColumns + `
		FROM host_profiles
		WHERE LOWER(email) = LOWER($1)
		ORDER BY created_at
		LIMIT 1`

	var h Host
	err := r.db.GetContext(ctx, &h, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return Host{}, fmt.Errorf("get host by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return Host{}, fmt.Errorf("get host by email: %w", err)
	}

	return h, nil
}

func (r *repository) ReassignAuthID(
	ctx context.Context,
	fromID, toID string,
) (Host, error) {
	query := `
		UPDATE host_profiles
		SET user_id = $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING` + hostColumns

	var h Host
	err := r.db.GetContext(ctx, &h, query, fromID, toID)
	if errors.Is(err, sql.ErrNoRows) {
		return Host{}, fmt.Errorf("reassign host: %w", core.ErrNotFound)
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return Host{}, fmt.Errorf("reassign host: %w", core.ErrDuplicateKey)
		}
		return Host{}, fmt.Errorf("reassign host: %w", err)
	}

	return h, nil
}

func (r *repository) GetByUserID(ctx context.Context, userID string) (*Host, error) {
	query := `SELECT` + hostColumns + `
		FROM host_profiles
		WHERE user_id = $1`

	var h Host
	err := r.db.GetContext(ctx, &h, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get host: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get host: %w", err)
	}

	return &h, nil
}

func (r *repository) Update(ctx context.Context, h *Host) error {
	query := `
		UPDATE host_profiles
		SET name = $2, business_name = $3, host_type = $4, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &h.UpdatedAt, query,
		h.UserID,
		h.Name,
		h.BusinessName,
		h.HostType,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update host: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update host: %w", err)
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM host_profiles`); err != nil {
		return 0, fmt.Errorf("count hosts: %w", err)
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
