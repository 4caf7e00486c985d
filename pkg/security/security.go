package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	TOKEN_KEY    = "Authorization"
	TOKEN_PREFIX = "Bearer "
)

// MaxPasswordBytes is the longest input bcrypt hashes without truncation.
const MaxPasswordBytes = 72

var (
	ErrInvalidJWT      = errors.New("invalid token")
	ErrEmptySecret     = errors.New("jwt secret is empty")
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

type TokenClaims struct {
	jwt.RegisteredClaims
}

func (t TokenClaims) GetUser() string {
	return t.Subject
}

// GenerateJWT signs an HS256 token for the user that expires after ttl.
func GenerateJWT(userID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, ErrEmptySecret
	}
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Second)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyToken never accepts a token when secret is empty.
func VerifyToken(tokenString string, secret []byte) (*TokenClaims, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%s, %w", ErrEmptySecret.Error(), ErrInvalidJWT)
	}
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(tokenString, TOKEN_PREFIX), claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%s, %w", err.Error(), ErrInvalidJWT)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidJWT
	}
	return claims, nil
}

func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
