// AngelaMos | 2026
// repository.go

package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/omarkt13/seafable/internal/core"
)

type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	ConfirmEmail(ctx context.Context, id string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type accountRepository struct {
	db core.DBTX
}

func NewAccountRepository(db core.DBTX) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `
	id, email, password_hash, user_metadata, email_confirmed_at,
	token_version, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (
			id, email, password_hash, user_metadata, email_confirmed_at
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING token_version, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		account.ID,
		strings.ToLower(account.Email),
		account.PasswordHash,
		account.Metadata,
		account.EmailConfirmedAt,
	).Scan(&account.TokenVersion, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == core.UniqueViolation {
			return fmt.Errorf("create account: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE id = $1`

	var account Account
	err := r.db.GetContext(ctx, &account, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account by id: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account by id: %w", err)
	}

	return &account, nil
}

func (r *accountRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE email = $1`

	var account Account
	err := r.db.GetContext(ctx, &account, query, strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}

	return &account, nil
}

func (r *accountRepository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE accounts
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update password", query, id, passwordHash)
}

func (r *accountRepository) ConfirmEmail(ctx context.Context, id string) error {
	query := `
		UPDATE accounts
		SET email_confirmed_at = COALESCE(email_confirmed_at, NOW()),
			updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "confirm email", query, id)
}

func (r *accountRepository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	query := `
		UPDATE accounts
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "increment token version", query, id)
}

func (r *accountRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM accounts`); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return count, nil
}

func (r *accountRepository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
