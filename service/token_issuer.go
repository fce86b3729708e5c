package service

import (
	"go-clinic-auth/logger"
	"go-clinic-auth/model"
	"go-clinic-auth/repository"
	"time"

	"github.com/sirupsen/logrus"
)

// tokenTTL is the per-kind time-to-live policy table. These are fixed
// constants of the engine, not deployment configuration.
var tokenTTL = map[model.TokenKind]time.Duration{
	model.KindAccess:        8 * time.Hour,
	model.KindRefresh:       30 * 24 * time.Hour,
	model.KindPasswordReset: 4 * time.Hour,
	model.KindInvite:        8 * time.Hour,
}

// ExtendedAccessTTL is the "remember me" variant for access tokens.
const ExtendedAccessTTL = 30 * 24 * time.Hour

// TokenIssuer signs claims and persists the matching record. Issuance is
// atomic from the caller's perspective: if the record cannot be stored,
// the signed string is discarded and never returned.
type TokenIssuer struct {
	codec     *TokenCodec
	tokenRepo repository.ITokenRepository
}

func NewTokenIssuer(codec *TokenCodec, tokenRepo repository.ITokenRepository) *TokenIssuer {
	return &TokenIssuer{codec: codec, tokenRepo: tokenRepo}
}

// Issue encodes the claims with the kind's TTL (or ttlOverride when
// positive), stores the record, and returns the token with its expiry.
func (i *TokenIssuer) Issue(claims model.TokenClaims, ttlOverride time.Duration) (*model.IssuedToken, error) {
	ttl := tokenTTL[claims.TokenKind()]
	if ttlOverride > 0 {
		ttl = ttlOverride
	}

	token, expiresAt, err := i.codec.Encode(claims, ttl)
	if err != nil {
		return nil, err
	}

	record := &model.TokenRecord{
		OwnerID:    claims.OwnerID(),
		OwnerEmail: claims.OwnerEmail(),
		Token:      token,
		Kind:       claims.TokenKind(),
		ExpiresAt:  &expiresAt,
	}
	if err := i.tokenRepo.Create(record); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"kind": claims.TokenKind(),
		}).WithError(err).Error("Failed to persist token record, discarding signed token")
		return nil, err
	}

	return &model.IssuedToken{Token: token, ExpiresAt: expiresAt}, nil
}
