// file: model/token.go

package model

import "time"

// TokenKind is the fixed category of an issued token. Each kind has its
// own TTL and claim shape.
type TokenKind string

const (
	KindAccess        TokenKind = "access"
	KindRefresh       TokenKind = "refresh"
	KindPasswordReset TokenKind = "password_reset"
	KindInvite        TokenKind = "invite"
)

// TokenRecord holds the data for one issued, trackable token in the
// database. Records are immutable after creation; revocation and rotation
// are always delete (then create), never update.
type TokenRecord struct {
	ID         int        `json:"id"`
	OwnerID    *int       `json:"owner_id,omitempty"`
	OwnerEmail *string    `json:"owner_email,omitempty"`
	Token      string     `json:"-"` // the signed string is not exposed in JSON responses
	Kind       TokenKind  `json:"kind"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IssuedToken is what the issuer hands back to a lifecycle flow: the
// signed string plus the instant it stops being valid.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
