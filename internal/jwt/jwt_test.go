package jwt

import (
	"path/filepath"
	"testing"
	"time"

	jwtgo "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupKeys(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	privatePath := filepath.Join(dir, "private.key")
	publicPath := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeys(privatePath, publicPath))

	LoadKeysFrom(privatePath, publicPath)
}

func signClaims(t *testing.T, claims jwtgo.RegisteredClaims) string {
	t.Helper()

	signedToken, err := jwtgo.NewWithClaims(jwtgo.SigningMethodRS256, claims).SignedString(privateKey)
	require.NoError(t, err)
	return signedToken
}

func TestSignAndValidIdentity(t *testing.T) {
	setupKeys(t)

	sign, err := Sign("alice", 0)
	assert.NoError(t, err)

	identity, err := ValidIdentity(sign)
	assert.NoError(t, err)
	assert.Equal(t, "alice", identity)

	sign, err = Sign("bob", time.Hour)
	assert.NoError(t, err)

	identity, err = ValidIdentity(sign)
	assert.NoError(t, err)
	assert.Equal(t, "bob", identity)
}

func TestValidIdentity_InvalidAudience(t *testing.T) {
	setupKeys(t)

	signedToken := signClaims(t, jwtgo.RegisteredClaims{
		Audience: jwtgo.ClaimStrings{"different-audience"},
		ID:       uuid.New().String(),
		IssuedAt: jwtgo.NewNumericDate(time.Now()),
		Issuer:   Issuer,
		Subject:  "alice",
	})

	identity, err := ValidIdentity(signedToken)
	assert.EqualError(t, err, "invalid audience")
	assert.Equal(t, "", identity)
}

func TestValidIdentity_InvalidIssuer(t *testing.T) {
	setupKeys(t)

	signedToken := signClaims(t, jwtgo.RegisteredClaims{
		Audience: jwtgo.ClaimStrings{Audience},
		ID:       uuid.New().String(),
		IssuedAt: jwtgo.NewNumericDate(time.Now()),
		Issuer:   "invalid-issuer",
		Subject:  "alice",
	})

	identity, err := ValidIdentity(signedToken)
	assert.EqualError(t, err, "invalid issuer")
	assert.Equal(t, "", identity)
}

func TestValidIdentity_MissingSubject(t *testing.T) {
	setupKeys(t)

	signedToken := signClaims(t, jwtgo.RegisteredClaims{
		Audience: jwtgo.ClaimStrings{Audience},
		ID:       uuid.New().String(),
		IssuedAt: jwtgo.NewNumericDate(time.Now()),
		Issuer:   Issuer,
	})

	_, err := ValidIdentity(signedToken)
	assert.Equal(t, ErrMissingIdentity, err)
}

func TestValidIdentity_Expired(t *testing.T) {
	setupKeys(t)

	signedToken := signClaims(t, jwtgo.RegisteredClaims{
		Audience:  jwtgo.ClaimStrings{Audience},
		ID:        uuid.New().String(),
		IssuedAt:  jwtgo.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		Issuer:    Issuer,
		ExpiresAt: jwtgo.NewNumericDate(time.Now().Add(-time.Hour)),
		Subject:   "alice",
	})

	identity, err := ValidIdentity(signedToken)
	assert.ErrorIs(t, err, jwtgo.ErrTokenExpired)
	assert.Equal(t, "", identity)
}

func TestValidIdentity_Garbage(t *testing.T) {
	setupKeys(t)

	_, err := ValidIdentity("not-a-token")
	assert.Error(t, err)
}
