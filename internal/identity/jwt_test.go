// AngelaMos | 2026
// jwt_test.go

package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarkt13/seafable/internal/core"
	"github.com/omarkt13/seafable/internal/middleware"
)

func TestJWTManagerRoundTrip(t *testing.T) {
	m, err := NewEphemeralJWTManager(testJWTConfig())
	require.NoError(t, err)

	token, expiresAt, err := m.CreateAccessToken(middleware.AccessTokenClaims{
		UserID:       "8c1a2b5e-0000-4000-8000-000000000001",
		Email:        "ada@example.com",
		Role:         RoleBusiness,
		TokenVersion: 3,
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := m.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "8c1a2b5e-0000-4000-8000-000000000001", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, RoleBusiness, claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)
}

func TestJWTManagerExpiredToken(t *testing.T) {
	m, err := NewEphemeralJWTManager(testJWTConfig())
	require.NoError(t, err)

	token, _, err := m.CreateAccessToken(middleware.AccessTokenClaims{UserID: "u1", Role: RoleCustomer})
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(time.Hour) }

	_, err = m.VerifyAccessToken(context.Background(), token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestJWTManagerRejectsForeignKey(t *testing.T) {
	signer, err := NewEphemeralJWTManager(testJWTConfig())
	require.NoError(t, err)
	verifier, err := NewEphemeralJWTManager(testJWTConfig())
	require.NoError(t, err)

	token, _, err := signer.CreateAccessToken(middleware.AccessTokenClaims{UserID: "u1", Role: RoleCustomer})
	require.NoError(t, err)

	_, err = verifier.VerifyAccessToken(context.Background(), token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	_, err = verifier.VerifyAccessToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestGenerateKeyPairAndLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := testJWTConfig()
	cfg.PrivateKeyPath = filepath.Join(dir, "private.pem")
	cfg.PublicKeyPath = filepath.Join(dir, "public.pem")

	require.NoError(t, GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath))

	m, err := NewJWTManager(cfg)
	require.NoError(t, err)
	assert.Len(t, m.KeyID(), 8)
}

func TestJWKSHandler(t *testing.T) {
	m, err := NewEphemeralJWTManager(testJWTConfig())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.JWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Keys, 1)
	assert.Equal(t, m.KeyID(), body.Keys[0]["kid"])
	assert.Equal(t, "sig", body.Keys[0]["use"])
	assert.NotContains(t, body.Keys[0], "d")
}
