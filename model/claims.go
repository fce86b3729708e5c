package model

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is implemented by exactly one claims struct per token kind,
// so an issuer and a consumer of the same kind cannot disagree on shape.
// The codec stamps IssuedAt/ExpiresAt through Registered().
type TokenClaims interface {
	jwt.Claims
	TokenKind() TokenKind
	Registered() *jwt.RegisteredClaims
	// OwnerID and OwnerEmail identify the token record owner; either may be
	// nil depending on the kind (an invite is keyed by email, everything
	// else by principal id).
	OwnerID() *int
	OwnerEmail() *string
}

// AccessClaims is the payload of a bearer session token.
type AccessClaims struct {
	Kind        TokenKind `json:"kind"`
	PrincipalID int       `json:"principal_id"`
	Role        Role      `json:"role"`
	jwt.RegisteredClaims
}

func NewAccessClaims(principalID int, role Role) *AccessClaims {
	return &AccessClaims{
		Kind:             KindAccess,
		PrincipalID:      principalID,
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.Itoa(principalID)},
	}
}

func (c *AccessClaims) TokenKind() TokenKind              { return c.Kind }
func (c *AccessClaims) Registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }
func (c *AccessClaims) OwnerID() *int                     { return &c.PrincipalID }
func (c *AccessClaims) OwnerEmail() *string               { return nil }

// RefreshClaims is the payload of a session-rotation token.
type RefreshClaims struct {
	Kind        TokenKind `json:"kind"`
	PrincipalID int       `json:"principal_id"`
	jwt.RegisteredClaims
}

func NewRefreshClaims(principalID int) *RefreshClaims {
	return &RefreshClaims{
		Kind:             KindRefresh,
		PrincipalID:      principalID,
		RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.Itoa(principalID)},
	}
}

func (c *RefreshClaims) TokenKind() TokenKind              { return c.Kind }
func (c *RefreshClaims) Registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }
func (c *RefreshClaims) OwnerID() *int                     { return &c.PrincipalID }
func (c *RefreshClaims) OwnerEmail() *string               { return nil }

// ResetClaims is the payload of a single-use password-reset token.
type ResetClaims struct {
	Kind        TokenKind   `json:"kind"`
	PrincipalID int         `json:"principal_id"`
	AccountType AccountType `json:"account_type"`
	jwt.RegisteredClaims
}

func NewResetClaims(principalID int, accountType AccountType) *ResetClaims {
	return &ResetClaims{
		Kind:             KindPasswordReset,
		PrincipalID:      principalID,
		AccountType:      accountType,
		RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.Itoa(principalID)},
	}
}

func (c *ResetClaims) TokenKind() TokenKind              { return c.Kind }
func (c *ResetClaims) Registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }
func (c *ResetClaims) OwnerID() *int                     { return &c.PrincipalID }
func (c *ResetClaims) OwnerEmail() *string               { return nil }

// InviteClaims is the payload of a single-use staff-invite token. There is
// no principal yet, so the owner is the invited email address.
type InviteClaims struct {
	Kind  TokenKind `json:"kind"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
	jwt.RegisteredClaims
}

func NewInviteClaims(email string, role Role) *InviteClaims {
	return &InviteClaims{
		Kind:             KindInvite,
		Email:            email,
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: email},
	}
}

func (c *InviteClaims) TokenKind() TokenKind              { return c.Kind }
func (c *InviteClaims) Registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }
func (c *InviteClaims) OwnerID() *int                     { return nil }
func (c *InviteClaims) OwnerEmail() *string               { return &c.Email }
