// AngelaMos | 2026
// password_test.go

package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("correct-horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong-horse", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := HashPassword("correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	_, err := VerifyPassword("x", "not-a-hash")
	assert.Error(t, err)

	_, err = VerifyPassword("x", "$bcrypt$v=19$m=1,t=1,p=1$YQ$YQ")
	assert.Error(t, err)
}

func TestNeedsRehash(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)
	assert.False(t, needsRehash(hash))

	assert.True(t, needsRehash("$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$aGFzaA"))
}

func TestHashToken(t *testing.T) {
	token, err := generateRefreshToken()
	require.NoError(t, err)
	assert.Len(t, token, 43)

	assert.Equal(t, hashToken(token), hashToken(token))
	assert.Len(t, hashToken(token), 64)
}

func TestMetadataScan(t *testing.T) {
	var m Metadata
	require.NoError(t, m.Scan([]byte(`{"first_name":"Ada","user_type":"business"}`)))
	assert.Equal(t, "Ada", m.String("first_name"))

	account := Account{Metadata: m}
	assert.Equal(t, RoleBusiness, account.Role())

	require.NoError(t, m.Scan(nil))
	assert.Empty(t, m)
	assert.Equal(t, RoleCustomer, (&Account{Metadata: m}).Role())

	assert.Error(t, m.Scan(42))
}
