// Package auth issues and verifies bearer tokens and answers portfolio
// access questions for the HTTP layer.
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "tradebook"

// Claims carried by an access token. Subject is the user id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 access tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a token manager. The secret comes from config,
// never from process-wide state.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the lifetime of issued tokens
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a signed token for the user
func (m *TokenManager) Issue(userID int64, username string) (string, error) {
	issuedAt := m.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify checks signature, algorithm, issuer and expiry and returns the user id.
// Every failure is reported as domain.ErrUnauthorized.
func (m *TokenManager) Verify(tokenString string) (int64, *Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, nil, fmt.Errorf("%w: malformed subject", domain.ErrUnauthorized)
	}
	return userID, claims, nil
}
