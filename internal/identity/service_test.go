// AngelaMos | 2026
// service_test.go

package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarkt13/seafable/internal/config"
	"github.com/omarkt13/seafable/internal/core"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 7 * 24 * time.Hour,
		Issuer:             "seafable",
		Audience:           "seafable-api",
	}
}

type serviceFixture struct {
	svc      *Service
	accounts *fakeAccounts
	tokens   *fakeTokens
}

func newServiceFixture(t *testing.T, cfg config.IdentityConfig) serviceFixture {
	t.Helper()

	jwtManager, err := NewEphemeralJWTManager(testJWTConfig())
	require.NoError(t, err)

	if cfg.SignInAttempts == 0 {
		cfg.SignInAttempts = 10
		cfg.SignInPeriod = 15 * time.Minute
	}

	accounts := newFakeAccounts()
	tokens := newFakeTokens()
	throttle := NewSignInThrottle(nil, cfg.SignInAttempts, cfg.SignInPeriod)

	return serviceFixture{
		svc:      NewService(accounts, tokens, jwtManager, throttle, fakeTx(tokens), cfg),
		accounts: accounts,
		tokens:   tokens,
	}
}

func signUp(t *testing.T, svc *Service, email string) *User {
	t.Helper()

	user, err := svc.SignUp(context.Background(), SignUpParams{
		Email:    email,
		Password: "correct-horse",
		Metadata: Metadata{"first_name": "Ada", "last_name": "Lovelace"},
	})
	require.NoError(t, err)
	return user
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a confirmed customer account", func(t *testing.T) {
		f := newServiceFixture(t, config.IdentityConfig{})

		user, err := f.svc.SignUp(ctx, SignUpParams{
			Email:    "  Ada@Example.com ",
			Password: "correct-horse",
			Metadata: Metadata{"first_name": "Ada"},
		})
		require.NoError(t, err)

		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, RoleCustomer, user.Role)
		assert.Equal(t, "Ada", user.Metadata.String("first_name"))
		assert.NotNil(t, user.EmailConfirmedAt)
	})

	t.Run("records the business role", func(t *testing.T) {
		f := newServiceFixture(t, config.IdentityConfig{})

		user, err := f.svc.SignUp(ctx, SignUpParams{
			Email:    "host@example.com",
			Password: "correct-horse",
			Role:     RoleBusiness,
		})
		require.NoError(t, err)
		assert.Equal(t, RoleBusiness, user.Role)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newServiceFixture(t, config.IdentityConfig{})
		signUp(t, f.svc, "ada@example.com")

		_, err := f.svc.SignUp(ctx, SignUpParams{
			Email:    "ADA@example.com",
			Password: "correct-horse",
		})
		assert.ErrorIs(t, err, ErrEmailExists)
		assert.ErrorIs(t, err, core.ErrDuplicateKey)
	})

	t.Run("weak password never reaches storage", func(t *testing.T) {
		f := newServiceFixture(t, config.IdentityConfig{})

		_, err := f.svc.SignUp(ctx, SignUpParams{Email: "a@b.co", Password: "123"})
		assert.ErrorIs(t, err, ErrWeakPassword)
		assert.Zero(t, f.accounts.created)
	})

	t.Run("invalid email", func(t *testing.T) {
		f := newServiceFixture(t, config.IdentityConfig{})

		_, err := f.svc.SignUp(ctx, SignUpParams{Email: "nope", Password: "correct-horse"})
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})
}

func TestSignInWithPassword(t *testing.T) {
	ctx := context.Background()
	client := ClientInfo{UserAgent: "test", IPAddress: "203.0.113.7"}

	t.Run("issues a verifiable session", func(t *testing.T) {
		f := newServiceFixture(t, config.IdentityConfig{})
		user := signUp(t, f.svc, "ada@example.com")

		session, err := f.svc.SignInWithPassword(ctx, "ada@example.com", "correct-horse", client)
		require.NoError(t, err)

		assert.Equal(t, user.ID, session.User.ID)
		assert.Equal(t, "bearer", session.TokenType)
		assert.Equal(t, 900, session.ExpiresIn)
		assert.NotEmpty(t, session.RefreshToken)

		claims, err := f.svc.VerifyAccessToken(ctx, session.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, "ada@example.com", claims.Email)
		assert.Equal(t, RoleCustomer, claims.Role)
	})

	t.Run("token for a vanished account is invalid", func(t *testing.T) {
		f := newServiceFixture(t, config.IdentityConfig{})
		signUp(t, f.svc, "ada@example.com")

		session, err := f.svc.SignInWithPassword(ctx, "ada@example.com", "correct-horse", client)
		require.NoError(t, err)

		f.accounts.getErr = core.ErrNotFound

		_, err = f.svc.VerifyAccessToken(ctx, session.AccessToken)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newServiceFixture(t, config.IdentityConfig{})
		signUp(t, f.svc, "ada@example.com")

		_, err := f.svc.SignInWithPassword(ctx, "ada@example.com", "wrong-horse", client)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newServiceFixture(t, config.IdentityConfig{})

		_, err := f.svc.SignInWithPassword(ctx, "ghost@example.com", "whatever", client)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unconfirmed email", func(t *testing.T) {
		f := newServiceFixture(t, config.IdentityConfig{RequireEmailConfirmation: true})
		user := signUp(t, f.svc, "ada@example.com")
		assert.Nil(t, user.EmailConfirmedAt)

		_, err := f.svc.SignInWithPassword(ctx, "ada@example.com", "correct-horse", client)
		assert.ErrorIs(t, err, ErrEmailNotConfirmed)

		require.NoError(t, f.svc.ConfirmEmail(ctx, user.ID))

		_, err = f.svc.SignInWithPassword(ctx, "ada@example.com", "correct-horse", client)
		assert.NoError(t, err)
	})

	t.Run("throttles repeated attempts", func(t *testing.T) {
		f := newServiceFixture(t, config.IdentityConfig{
			SignInAttempts: 2,
			SignInPeriod:   time.Hour,
		})
		signUp(t, f.svc, "ada@example.com")

		for range 2 {
			_, err := f.svc.SignInWithPassword(ctx, "ada@example.com", "wrong", client)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}

		_, err := f.svc.SignInWithPassword(ctx, "ada@example.com", "correct-horse", client)
		assert.ErrorIs(t, err, ErrTooManyAttempts)
		assert.ErrorIs(t, err, core.ErrRateLimited)
	})

	t.Run("storage failure is not a credential error", func(t *testing.T) {
		f := newServiceFixture(t, config.IdentityConfig{})
		f.accounts.getErr = errors.New("connection refused")

		_, err := f.svc.SignInWithPassword(ctx, "ada@example.com", "correct-horse", client)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	client := ClientInfo{}

	t.Run("rotates within the same family", func(t *testing.T) {
		f := newServiceFixture(t, config.IdentityConfig{})
		signUp(t, f.svc, "ada@example.com")

		first, err := f.svc.SignInWithPassword(ctx, "ada@example.com", "correct-horse", client)
		require.NoError(t, err)

		second, err := f.svc.Refresh(ctx, first.RefreshToken, client)
		require.NoError(t, err)
		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

		old, err := f.tokens.FindByHash(ctx, hashToken(first.RefreshToken))
		require.NoError(t, err)
		next, err := f.tokens.FindByHash(ctx, hashToken(second.RefreshToken))
		require.NoError(t, err)

		assert.True(t, old.IsUsed)
		assert.Equal(t, old.FamilyID, next.FamilyID)
		require.NotNil(t, old.ReplacedByID)
		assert.Equal(t, next.ID, *old.ReplacedByID)
	})

	t.Run("reuse revokes the family", func(t *testing.T) {
		f := newServiceFixture(t, config.IdentityConfig{})
		signUp(t, f.svc, "ada@example.com")

		first, err := f.svc.SignInWithPassword(ctx, "ada@example.com", "correct-horse", client)
		require.NoError(t, err)
		second, err := f.svc.Refresh(ctx, first.RefreshToken, client)
		require.NoError(t, err)

		_, err = f.svc.Refresh(ctx, first.RefreshToken, client)
		assert.ErrorIs(t, err, ErrTokenReuse)

		_, err = f.svc.Refresh(ctx, second.RefreshToken, client)
		assert.ErrorIs(t, err, core.ErrTokenRevoked)

		stored, err := f.tokens.FindByHash(ctx, hashToken(second.RefreshToken))
		require.NoError(t, err)
		assert.Equal(t, 2, f.tokens.revokedCount(stored.FamilyID))
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newServiceFixture(t, config.IdentityConfig{})

		_, err := f.svc.Refresh(ctx, "not-a-token", client)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, config.IdentityConfig{})
	signUp(t, f.svc, "ada@example.com")

	session, err := f.svc.SignInWithPassword(ctx, "ada@example.com", "correct-horse", ClientInfo{})
	require.NoError(t, err)

	err = f.svc.SignOut(ctx, session.RefreshToken, "someone-else")
	assert.ErrorIs(t, err, core.ErrForbidden)

	require.NoError(t, f.svc.SignOut(ctx, session.RefreshToken, session.User.ID))
	require.NoError(t, f.svc.SignOut(ctx, "unknown", session.User.ID))

	_, err = f.svc.Refresh(ctx, session.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestSignOutEverywhere(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, config.IdentityConfig{})
	user := signUp(t, f.svc, "ada@example.com")

	session, err := f.svc.SignInWithPassword(ctx, "ada@example.com", "correct-horse", ClientInfo{})
	require.NoError(t, err)

	require.NoError(t, f.svc.SignOutEverywhere(ctx, user.ID))

	_, err = f.svc.Refresh(ctx, session.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = f.svc.VerifyAccessToken(ctx, session.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	account, err := f.accounts.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, account.TokenVersion)

	fresh, err := f.svc.SignInWithPassword(ctx, "ada@example.com", "correct-horse", ClientInfo{})
	require.NoError(t, err)
	_, err = f.svc.VerifyAccessToken(ctx, fresh.AccessToken)
	assert.NoError(t, err)
}

func TestPurgeExpiredTokens(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, config.IdentityConfig{})

	require.NoError(t, f.tokens.Create(ctx, &RefreshToken{
		ID:        "old",
		TokenHash: "old",
		ExpiresAt: time.Now().Add(-48 * time.Hour),
	}))
	require.NoError(t, f.tokens.Create(ctx, &RefreshToken{
		ID:        "fresh",
		TokenHash: "fresh",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	n, err := f.svc.PurgeExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

type failingAllower struct{}

func (failingAllower) Allow(
	context.Context,
	string,
	redis_rate.Limit,
) (*redis_rate.Result, error) {
	return nil, errors.New("redis: connection refused")
}

type countingAllower struct {
	calls int
	deny  bool
}

func (c *countingAllower) Allow(
	_ context.Context,
	_ string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	c.calls++
	if c.deny {
		return &redis_rate.Result{Limit: limit, RetryAfter: time.Minute}, nil
	}
	return &redis_rate.Result{Limit: limit, Allowed: 1, Remaining: limit.Burst - 1}, nil
}

func TestSignInThrottle(t *testing.T) {
	ctx := context.Background()

	t.Run("uses the remote limiter", func(t *testing.T) {
		remote := &countingAllower{deny: true}
		th := NewSignInThrottle(remote, 5, time.Minute)

		ok, retry := th.Allow(ctx, "ada@example.com")
		assert.False(t, ok)
		assert.Equal(t, time.Minute, retry)
		assert.Equal(t, 1, remote.calls)
	})

	t.Run("falls back to the local limiter", func(t *testing.T) {
		th := NewSignInThrottle(failingAllower{}, 3, time.Hour)

		for range 3 {
			ok, _ := th.Allow(ctx, "ada@example.com")
			assert.True(t, ok)
		}

		ok, retry := th.Allow(ctx, "ADA@example.com")
		assert.False(t, ok)
		assert.Positive(t, retry)

		ok, _ = th.Allow(ctx, "grace@example.com")
		assert.True(t, ok)
	})
}

func TestLocalLimiterSweep(t *testing.T) {
	l := newLocalLimiter(1, time.Minute)
	start := time.Now()

	l.allow("a", start)
	l.allow("b", start)
	assert.Len(t, l.entries, 2)

	l.sweep(start.Add(2 * time.Minute))
	assert.Empty(t, l.entries)
}
