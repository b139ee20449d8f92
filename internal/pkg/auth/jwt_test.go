package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService(JWTConfig{SecretKey: "secret", AccessTokenExp: 30 * time.Minute, TokenIssuer: "attachtrack"})

	token, expiresIn, err := svc.GenerateAccessToken(Subject{CredentialID: 7, Username: "SCT211-0001/2020", Type: "Student", TypeID: 3})
	require.NoError(t, err)
	assert.Equal(t, 1800, expiresIn)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.CredentialID)
	assert.Equal(t, "SCT211-0001/2020", claims.Username)
	assert.Equal(t, "Student", claims.Type)
	assert.Equal(t, int64(3), claims.TypeID)
	assert.Equal(t, "7", claims.Subject)
}

func TestJWTRejectsBadTokens(t *testing.T) {
	svc := NewJWTService(JWTConfig{SecretKey: "secret", AccessTokenExp: time.Minute, TokenIssuer: "attachtrack"})
	token, _, err := svc.GenerateAccessToken(Subject{CredentialID: 1, Type: "Admin"})
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "different", TokenIssuer: "attachtrack"})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign := NewJWTService(JWTConfig{SecretKey: "secret", TokenIssuer: "someone-else"})
	_, err = foreign.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("  ")
	assert.ErrorIs(t, err, ErrInvalidToken)

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := svc.GenerateAccessToken(Subject{CredentialID: 1, Type: "Admin"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(stale)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	token, err = ExtractBearerToken(`"abc.def.ghi"`)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = ExtractBearerToken("Basic dXNlcg==")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("+254712345678")
	require.NoError(t, err)
	assert.True(t, h.Compare(hash, "+254712345678"))
	assert.False(t, h.Compare(hash, "0712345678"))
	assert.False(t, h.Compare("", ""))

	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(0).Cost)
}
