package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT(t *testing.T) {
	secret := []byte("test-secret")

	token, expiresAt, err := GenerateJWT("user-1", secret, 30*time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, time.Minute)

	claims, err := VerifyToken(TOKEN_PREFIX+token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.GetUser())

	_, err = VerifyToken(token, []byte("other"))
	assert.True(t, errors.Is(err, ErrInvalidJWT))

	expired, _, err := GenerateJWT("user-1", secret, -time.Minute)
	require.NoError(t, err)
	_, err = VerifyToken(expired, secret)
	assert.True(t, errors.Is(err, ErrInvalidJWT))
}

func TestJWTRejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = VerifyToken(signed, []byte("test-secret"))
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("Secr3t!pass")
	require.NoError(t, err)
	assert.NotEqual(t, "Secr3t!pass", hash)
	assert.True(t, CheckPassword(hash, "Secr3t!pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestJWTEmptySecret(t *testing.T) {
	_, _, err := GenerateJWT("user-1", nil, time.Minute)
	assert.True(t, errors.Is(err, ErrEmptySecret))

	// a token signed with an empty HMAC key must not verify against an empty key
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := forged.SignedString([]byte{})
	require.NoError(t, err)

	_, err = VerifyToken(signed, []byte(""))
	assert.True(t, errors.Is(err, ErrInvalidJWT))
}

func TestPasswordByteLimit(t *testing.T) {
	// 48 runes, 72 bytes
	atLimit := strings.Repeat("é", 24) + strings.Repeat("a", 24)
	require.Len(t, atLimit, MaxPasswordBytes)
	hash, err := HashPassword(atLimit)
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, atLimit))

	_, err = HashPassword(atLimit + "a")
	assert.True(t, errors.Is(err, ErrPasswordTooLong))
}
