// AngelaMos | 2026
// service.go

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/omarkt13/seafable/internal/config"
	"github.com/omarkt13/seafable/internal/core"
	"github.com/omarkt13/seafable/internal/middleware"
)

const minPasswordLength = 6

var (
	ErrInvalidCredentials = fmt.Errorf("invalid login credentials: %w", core.ErrUnauthorized)
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrEmailExists        = fmt.Errorf("user already registered: %w", core.ErrDuplicateKey)
	ErrWeakPassword       = fmt.Errorf(
		"password should be at least %d characters: %w",
		minPasswordLength,
		core.ErrInvalidInput,
	)
	ErrInvalidEmail    = fmt.Errorf("unable to validate email address: %w", core.ErrInvalidInput)
	ErrTooManyAttempts = fmt.Errorf("too many sign-in attempts: %w", core.ErrRateLimited)
	ErrTokenReuse      = fmt.Errorf("refresh token reuse detected: %w", core.ErrTokenRevoked)
)

// TxFunc runs fn with a token repository bound to one transaction.
type TxFunc func(ctx context.Context, fn func(tokens TokenRepository) error) error

func NewTxFunc(db *sqlx.DB) TxFunc {
	return func(ctx context.Context, fn func(tokens TokenRepository) error) error {
		return core.InTx(ctx, db, func(tx *sqlx.Tx) error {
			return fn(NewTokenRepository(tx))
		})
	}
}

// Service is the account provider: it owns credentials and sessions and
// knows nothing about customer or business profiles.
type Service struct {
	accounts AccountRepository
	tokens   TokenRepository
	jwt      *JWTManager
	throttle *SignInThrottle
	inTx     TxFunc
	cfg      config.IdentityConfig
	now      func() time.Time
}

func NewService(
	accounts AccountRepository,
	tokens TokenRepository,
	jwtManager *JWTManager,
	throttle *SignInThrottle,
	inTx TxFunc,
	cfg config.IdentityConfig,
) *Service {
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		jwt:      jwtManager,
		throttle: throttle,
		inTx:     inTx,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *Service) SignUp(ctx context.Context, params SignUpParams) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	if len(params.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	metadata := Metadata{}
	for k, v := range params.Metadata {
		metadata[k] = v
	}
	role := params.Role
	if role == "" {
		role = RoleCustomer
	}
	metadata["user_type"] = role

	account := &Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Metadata:     metadata,
	}
	if !s.cfg.RequireEmailConfirmation {
		now := s.now()
		account.EmailConfirmedAt = &now
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	return toUser(account), nil
}

func (s *Service) SignInWithPassword(
	ctx context.Context,
	email, password string,
	client ClientInfo,
) (*Session, error) {
	if s.throttle != nil {
		if ok, retryAfter := s.throttle.Allow(ctx, email); !ok {
			slog.Warn("sign-in throttled",
				"retry_after", retryAfter,
				"ip", client.IPAddress,
			)
			return nil, ErrTooManyAttempts
		}
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			burnDummyHash(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	valid, newHash, err := verifyWithRehash(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.accounts.UpdatePassword(ctx, account.ID, newHash); err != nil {
			slog.Warn("password rehash failed", "account_id", account.ID, "error", err)
		}
	}

	if s.cfg.RequireEmailConfirmation && !account.IsConfirmed() {
		return nil, ErrEmailNotConfirmed
	}

	session, _, err := s.issueSession(ctx, s.tokens, account, "", client)
	return session, err
}

// Refresh rotates a refresh token. Presenting a token that was already
// rotated revokes its whole family.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
	client ClientInfo,
) (*Session, error) {
	stored, err := s.tokens.FindByHash(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrTokenInvalid
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	if stored.IsUsed {
		return nil, s.revokeReusedFamily(ctx, stored)
	}
	if stored.IsRevoked() {
		return nil, core.ErrTokenRevoked
	}
	if stored.IsExpired(s.now()) {
		return nil, core.ErrTokenExpired
	}

	account, err := s.accounts.GetByID(ctx, stored.AccountID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrTokenInvalid
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	var session *Session
	err = s.inTx(ctx, func(tokens TokenRepository) error {
		var (
			newID string
			txErr error
		)
		session, newID, txErr = s.issueSession(ctx, tokens, account, stored.FamilyID, client)
		if txErr != nil {
			return txErr
		}

		return tokens.MarkAsUsed(ctx, stored.ID, newID)
	})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, s.revokeReusedFamily(ctx, stored)
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	return session, nil
}

// SignOut revokes the family of the presented refresh token. Unknown tokens
// are ignored; tokens of another account are refused.
func (s *Service) SignOut(ctx context.Context, refreshToken, accountID string) error {
	stored, err := s.tokens.FindByHash(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find refresh token: %w", err)
	}

	if stored.AccountID != accountID {
		return fmt.Errorf("sign out: %w", core.ErrForbidden)
	}

	if err := s.tokens.RevokeByFamilyID(ctx, stored.FamilyID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	return nil
}

// SignOutEverywhere revokes every refresh token of the account and bumps its
// token version.
func (s *Service) SignOutEverywhere(ctx context.Context, accountID string) error {
	if err := s.tokens.RevokeAllForAccount(ctx, accountID); err != nil {
		return fmt.Errorf("sign out everywhere: %w", err)
	}

	if err := s.accounts.IncrementTokenVersion(ctx, accountID); err != nil {
		return fmt.Errorf("sign out everywhere: %w", err)
	}

	return nil
}

func (s *Service) GetUser(ctx context.Context, accountID string) (*User, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return toUser(account), nil
}

func (s *Service) ConfirmEmail(ctx context.Context, accountID string) error {
	if err := s.accounts.ConfirmEmail(ctx, accountID); err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	return nil
}

func (s *Service) CountAccounts(ctx context.Context) (int64, error) {
	return s.accounts.Count(ctx)
}

// PurgeExpiredTokens deletes refresh tokens that expired more than a day ago.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now().Add(-24*time.Hour))
}

// VerifyAccessToken checks the signature and rejects tokens minted before
// the account's last sign-out everywhere.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("verify token: %w", err)
	}

	if claims.TokenVersion < account.TokenVersion {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

func (s *Service) issueSession(
	ctx context.Context,
	tokens TokenRepository,
	account *Account,
	familyID string,
	client ClientInfo,
) (*Session, string, error) {
	user := toUser(account)

	accessToken, expiresAt, err := s.jwt.CreateAccessToken(middleware.AccessTokenClaims{
		UserID:       account.ID,
		Email:        account.Email,
		Role:         user.Role,
		TokenVersion: account.TokenVersion,
	})
	if err != nil {
		return nil, "", fmt.Errorf("create access token: %w", err)
	}

	refresh, err := s.jwt.newRefreshToken(familyID)
	if err != nil {
		return nil, "", err
	}

	row := &RefreshToken{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		TokenHash: refresh.Hash,
		FamilyID:  refresh.FamilyID,
		ExpiresAt: refresh.ExpiresAt,
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
	}
	if err := tokens.Create(ctx, row); err != nil {
		return nil, "", fmt.Errorf("store refresh token: %w", err)
	}

	return &Session{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		TokenType:    "bearer",
		ExpiresIn:    int(s.jwt.AccessTokenTTL().Seconds()),
		ExpiresAt:    expiresAt,
	}, row.ID, nil
}

func (s *Service) revokeReusedFamily(ctx context.Context, stored *RefreshToken) error {
	slog.Warn("refresh token reuse detected",
		"account_id", stored.AccountID,
		"family_id", stored.FamilyID,
	)

	if err := s.tokens.RevokeByFamilyID(ctx, stored.FamilyID); err != nil {
		return fmt.Errorf("revoke token family: %w", err)
	}

	return ErrTokenReuse
}
