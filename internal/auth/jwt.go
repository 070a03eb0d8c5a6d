package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/imamteguh/backend-fullstack-taskman/internal/domain"
)

// ErrClaimExpired reports a token whose signature checked out but whose
// embedded expiry has passed.
var ErrClaimExpired = errors.New("claim expired")

// Claims represents the signed claims carried by every taskman token: the
// subject id, the purpose the token was issued for, and the registered
// issued-at/expiry pair.
type Claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies tamper-evident token strings. The signed
// claim alone only proves authenticity; single-use purposes are additionally
// cross-checked against the persisted token record by the token service.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec creates a new codec with the given HMAC secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

// Sign creates a signed token string embedding {subject, purpose} with the
// given time-to-live. It returns the token string and its expiry instant.
// Every call produces a distinct string: the jti claim carries a fresh UUID,
// so two tokens for the same subject and purpose issued within the same
// second never hash to the same stored value.
func (c *TokenCodec) Sign(subject string, purpose domain.TokenPurpose, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Purpose: string(purpose),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "taskman",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", purpose, err)
	}

	return signedToken, expiresAt, nil
}

// Verify parses and validates a token string, returning the claims. It fails
// on a bad signature, an unexpected signing method, or an expired claim.
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrClaimExpired
		}
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
