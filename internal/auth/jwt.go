package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/laimu/erptracker/internal/apperr"
)

const issuer = "erptracker"

// Claims is the payload inside every session token.
//
// It names the principal and nothing else. Role and organization live on
// the profile and are resolved per request, so a role change takes effect
// without reissuing tokens.
//
// The registered ID (jti) identifies this one session so logout can revoke
// it without touching the principal's other sessions.
type Claims struct {
	PrincipalID string `json:"principal_id"`
	Email       string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken signs a session token for principalID valid for ttl.
func GenerateToken(principalID, email, secret string, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()

	claims := &Claims{
		PrincipalID: principalID,
		Email:       email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   principalID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// ParseToken verifies the signature, the HMAC method and the expiry of a
// token. An expired token comes back as an apperr.AuthExpired error so the
// caller can end the session; the claims are still returned in that case
// so the caller knows whose session it was.
func ParseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			// Reject "none" and asymmetric algorithms before verifying.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return claims, apperr.AuthExpired("session expired")
		}
		return nil, fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid || claims.PrincipalID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
