package service

import (
	"errors"
	"fmt"
	"go-clinic-auth/logger"
	"go-clinic-auth/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the single verification error surfaced to callers.
// Whether the signature, the kind, or the expiry check failed is not
// distinguishable from outside the codec.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenCodec encodes claims into compact HS256-signed strings and
// verifies them. The signing secret is injected at construction; nothing
// in the codec reads ambient configuration.
type TokenCodec struct {
	secret []byte
}

func NewTokenCodec(secret []byte) *TokenCodec {
	return &TokenCodec{secret: secret}
}

// Encode serializes the claims with an expiry of now + ttl and signs them.
func (c *TokenCodec) Encode(claims model.TokenClaims, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	registered := claims.Registered()
	registered.IssuedAt = jwt.NewNumericDate(now)
	registered.ExpiresAt = jwt.NewNumericDate(expiresAt)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to sign token")
		return "", time.Time{}, fmt.Errorf("failed to sign token string: %w", err)
	}

	return signed, expiresAt, nil
}

// Decode parses tokenString into claims. The signature is verified before
// any claim is inspected; expiry and the embedded kind are checked after.
func (c *TokenCodec) Decode(tokenString string, want model.TokenKind, claims model.TokenClaims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	if claims.TokenKind() != want {
		return ErrInvalidToken
	}
	return nil
}
