// Package auth mints short-lived service tokens for calls to the host
// platform and the training system.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceTokenMinter signs HS256 JWTs identifying this engine to an
// external collaborator.
type ServiceTokenMinter struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewServiceTokenMinter creates a minter.
// secret must be at least 32 characters for HS256 security.
func NewServiceTokenMinter(secret, issuer string, ttl time.Duration) *ServiceTokenMinter {
	return &ServiceTokenMinter{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Mint creates a signed token with the engine as subject. audience names
// the collaborator the token is intended for.
func (m *ServiceTokenMinter) Mint(audience string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "careplan-engine",
		Issuer:    m.issuer,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign service token: %w", err)
	}

	return signed, nil
}
