// Package auth handles bearer token verification and the request identity.
// Tokens are signed JWTs carrying the user, tenant, and tenant role; the
// signing secret is injected, never read from a global.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/assetwise/assetwise/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned when a bearer token fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims represents the JWT claims structure
type Claims struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager with the given signing secret.
// A zero ttl falls back to 12 hours; any other value, including a negative
// one, is honored as given.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl == 0 {
		ttl = 12 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// Issue creates a signed token for the identity.
func (tm *TokenManager) Issue(identity Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   identity.UserID.String(),
		TenantID: identity.TenantID.String(),
		Role:     string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a signed token, returning the identity it carries.
func (tm *TokenManager) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: userID, TenantID: tenantID, Role: role}, nil
}
