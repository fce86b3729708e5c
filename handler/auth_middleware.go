package handler

import (
	"context"
	"database/sql"
	"errors"
	"go-clinic-auth/common"
	"go-clinic-auth/model"
	"go-clinic-auth/service"
	"net/http"
)

type contextKey string

// PrincipalKey is the request-context key the guard stores the resolved
// principal under.
const PrincipalKey contextKey = "principal"

// Cookie names for the transport credential carriers, one per session
// token kind.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// PrincipalLoader resolves the subject of a verified token to a live
// principal. Implemented by service.PrincipalCache.
type PrincipalLoader interface {
	GetByID(id int) (*model.Principal, error)
}

// AuthGuard makes the per-request access decision: resolve the token from
// its cookie, verify it, load the principal, and match its role against
// the route's allowed-role set. Every failure is terminal for the
// request.
type AuthGuard struct {
	codec      *service.TokenCodec
	principals PrincipalLoader
}

func NewAuthGuard(codec *service.TokenCodec, principals PrincipalLoader) *AuthGuard {
	return &AuthGuard{codec: codec, principals: principals}
}

// RequireRoles wraps a handler with the access decision for the given
// allowed-role set. model.RoleAll admits any authenticated principal, and
// an admin passes every gate regardless of the declared set. Public
// routes are simply not wrapped.
func (g *AuthGuard) RequireRoles(allowed ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AccessTokenCookie)
			if err != nil || cookie.Value == "" {
				common.Unauthorized("missing token", nil).Send(w)
				return
			}

			claims := &model.AccessClaims{}
			if err := g.codec.Decode(cookie.Value, model.KindAccess, claims); err != nil {
				common.Unauthorized("invalid or expired token", err).Send(w)
				return
			}

			principal, err := g.principals.GetByID(claims.PrincipalID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					common.Unauthorized("principal not found", nil).Send(w)
				} else {
					common.NewAppError(http.StatusInternalServerError, "Could not load principal", err).Send(w)
				}
				return
			}

			if !roleAllowed(principal.Role, allowed) {
				common.Unauthorized("insufficient permission", nil).Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func roleAllowed(role model.Role, allowed []model.Role) bool {
	if role == model.RoleAdmin {
		return true
	}
	for _, a := range allowed {
		if a == model.RoleAll || a == role {
			return true
		}
	}
	return false
}

// PrincipalFromContext returns the principal the guard attached to the
// request.
func PrincipalFromContext(ctx context.Context) (*model.Principal, bool) {
	principal, ok := ctx.Value(PrincipalKey).(*model.Principal)
	return principal, ok
}
