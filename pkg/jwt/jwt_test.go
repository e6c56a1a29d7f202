package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-tests"

func TestGenerateAndParse(t *testing.T) {
	tok, err := Generate(testSecret, "invoice-assistant", "user-1", "tenant-eg", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(testSecret, "invoice-assistant", tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "tenant-eg", claims.TenantID)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestParse_Rejections(t *testing.T) {
	valid, err := Generate(testSecret, "invoice-assistant", "user-1", "", time.Hour)
	require.NoError(t, err)
	expired, err := Generate(testSecret, "invoice-assistant", "user-1", "", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(testSecret, "", expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = Parse("otro-secret", "", valid)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	_, err = Parse(testSecret, "otro-emisor", valid)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	_, err = Parse(testSecret, "", "token.invalido.aqui")
	assert.Error(t, err)

	_, err = Parse("", "", valid)
	assert.Error(t, err)
}

func TestParse_RejectsNoneAlgorithm(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = Parse(testSecret, "", s)
	assert.Error(t, err)
}

func TestGenerate_EmptySecret(t *testing.T) {
	_, err := Generate("", "x", "user-1", "", time.Hour)
	assert.Error(t, err)
}
