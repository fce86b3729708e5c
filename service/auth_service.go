package service

import (
	"database/sql"
	"errors"
	"go-clinic-auth/logger"
	"go-clinic-auth/model"
	"go-clinic-auth/repository"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidCredentials covers both "no such account" and "wrong
	// password". Keeping them identical prevents account enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPrincipalNotFound  = errors.New("principal not found")
	ErrSamePassword       = errors.New("new password must be different from the current password")
	ErrEmailTaken         = errors.New("a principal with this email already exists")
	ErrActiveInviteExists = errors.New("an unexpired invite already exists for this email")
)

// SessionTokens is the access/refresh pair handed out whenever a flow
// signs the caller in.
type SessionTokens struct {
	Access  *model.IssuedToken
	Refresh *model.IssuedToken
}

// AuthService orchestrates the credential lifecycle flows over the
// hasher, the token issuer, the token store, and the principal
// repository.
type AuthService struct {
	principalRepo repository.IPrincipalRepository
	tokenRepo     repository.ITokenRepository
	issuer        *TokenIssuer
	codec         *TokenCodec
	principals    *PrincipalCache
}

func NewAuthService(
	principalRepo repository.IPrincipalRepository,
	tokenRepo repository.ITokenRepository,
	issuer *TokenIssuer,
	codec *TokenCodec,
	principals *PrincipalCache,
) *AuthService {
	return &AuthService{
		principalRepo: principalRepo,
		tokenRepo:     tokenRepo,
		issuer:        issuer,
		codec:         codec,
		principals:    principals,
	}
}

// SignIn verifies the password of the principal registered under
// (email, accountType) and opens a session. Remember-me stretches the
// access token TTL from 8 hours to 30 days.
func (s *AuthService) SignIn(email, password string, accountType model.AccountType, rememberMe bool) (*SessionTokens, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"email":        email,
		"account_type": accountType,
	})
	log.Info("Sign-in attempt")

	principal, err := s.principalRepo.GetByEmail(email, accountType)
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).Error("Failed to look up principal for sign-in")
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	// Accounts created without a password (e.g. unredeemed invites) cannot
	// sign in this way; the failure is indistinguishable from a bad
	// password.
	if principal.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if !CheckPasswordHash(password, *principal.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.openSession(principal, rememberMe)
}

// Logout revokes a token. Revoking an absent token is not an error.
func (s *AuthService) Logout(token string) error {
	return s.tokenRepo.DeleteByToken(token)
}

// Refresh rotates a session: the presented refresh token is verified and
// consumed, then a fresh access/refresh pair is issued. A consumed token
// cannot be replayed.
func (s *AuthService) Refresh(refreshToken string) (*SessionTokens, error) {
	claims := &model.RefreshClaims{}
	if err := s.codec.Decode(refreshToken, model.KindRefresh, claims); err != nil {
		return nil, ErrInvalidToken
	}

	if _, err := s.tokenRepo.ConsumeByToken(refreshToken, model.KindRefresh); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	principal, err := s.principalRepo.GetByID(claims.PrincipalID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}

	return s.openSession(principal, false)
}

// RecoverPassword starts the reset flow. For an unknown email it returns
// a token of the same shape and expiry as the real thing without
// persisting a record, so the response cannot be used as an
// email-existence oracle.
func (s *AuthService) RecoverPassword(email string, accountType model.AccountType) (*model.IssuedToken, error) {
	principal, err := s.principalRepo.GetByEmail(email, accountType)
	if err != nil {
		if err != sql.ErrNoRows {
			return nil, err
		}
		token, expiresAt, encErr := s.codec.Encode(model.NewResetClaims(0, accountType), tokenTTL[model.KindPasswordReset])
		if encErr != nil {
			return nil, encErr
		}
		return &model.IssuedToken{Token: token, ExpiresAt: expiresAt}, nil
	}

	logger.Log.WithField("principal_id", principal.ID).Info("Issuing password reset token")
	return s.issuer.Issue(model.NewResetClaims(principal.ID, accountType), 0)
}

// ResetPassword redeems a reset token. The token record is consumed
// atomically up front, so of two concurrent redemptions at most one can
// get past this point.
func (s *AuthService) ResetPassword(token, newPassword string) (*SessionTokens, error) {
	record, err := s.tokenRepo.ConsumeByToken(token, model.KindPasswordReset)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if record.ExpiresAt != nil && record.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidToken
	}
	if record.OwnerID == nil {
		return nil, ErrInvalidToken
	}

	principal, err := s.principalRepo.GetByID(*record.OwnerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.principalRepo.UpdatePasswordHash(principal.ID, hash); err != nil {
		return nil, err
	}
	s.principals.Invalidate(principal.ID)

	logger.Log.WithField("principal_id", principal.ID).Info("Password reset completed")

	// Other live sessions stay valid after a reset; invalidating them is a
	// product decision this engine does not take. The caller is signed in
	// with a fresh session so the reset flows straight into the app.
	return s.openSession(principal, false)
}

// ChangePassword re-verifies the current password before replacing it.
// No tokens are issued or revoked; existing sessions remain valid.
func (s *AuthService) ChangePassword(principalID int, currentPassword, newPassword string) error {
	principal, err := s.principalRepo.GetByID(principalID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrPrincipalNotFound
		}
		return err
	}

	if principal.PasswordHash == nil || !CheckPasswordHash(currentPassword, *principal.PasswordHash) {
		return ErrInvalidCredentials
	}
	if newPassword == currentPassword {
		return ErrSamePassword
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.principalRepo.UpdatePasswordHash(principal.ID, hash); err != nil {
		return err
	}
	s.principals.Invalidate(principal.ID)
	return nil
}

// CreateInvite issues a staff invite for an email that has no principal
// and no unexpired invite yet. A previous expired invite is superseded,
// never accumulated.
func (s *AuthService) CreateInvite(email string, role model.Role) (*model.IssuedToken, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"email": email,
		"role":  role,
	})

	if _, err := s.principalRepo.GetByEmail(email, model.AccountTypeStaff); err == nil {
		return nil, ErrEmailTaken
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	if existing, err := s.tokenRepo.GetByOwnerEmail(email, model.KindInvite); err == nil {
		if existing.ExpiresAt == nil || existing.ExpiresAt.After(time.Now()) {
			return nil, ErrActiveInviteExists
		}
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	// Clear any expired leftover; the partial unique index on
	// (owner_email, kind) would otherwise reject the new row.
	if err := s.tokenRepo.DeleteByOwnerEmail(email, model.KindInvite); err != nil {
		return nil, err
	}

	issued, err := s.issuer.Issue(model.NewInviteClaims(email, role), 0)
	if err != nil {
		if err == repository.ErrActiveTokenExists {
			// Lost a race against a concurrent invite for the same email.
			return nil, ErrActiveInviteExists
		}
		return nil, err
	}

	log.Info("Invite issued")
	return issued, nil
}

// RegisterWithInvite redeems an invite token: it creates the principal
// with the role embedded in the invite claims and signs the caller in.
// The invite record is consumed before the principal is created, so a
// concurrent second redemption fails instead of creating twice.
func (s *AuthService) RegisterWithInvite(token, name, password string) (*SessionTokens, error) {
	record, err := s.tokenRepo.GetByToken(token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if record.Kind != model.KindInvite {
		return nil, ErrInvalidToken
	}
	if record.ExpiresAt != nil && record.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidToken
	}

	claims := &model.InviteClaims{}
	if err := s.codec.Decode(token, model.KindInvite, claims); err != nil {
		return nil, ErrInvalidToken
	}

	// The invited email may have registered between invite creation and
	// redemption.
	if _, err := s.principalRepo.GetByEmail(claims.Email, model.AccountTypeStaff); err == nil {
		return nil, ErrEmailTaken
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	if _, err := s.tokenRepo.ConsumeByToken(token, model.KindInvite); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	principal := &model.Principal{
		Name:         name,
		Email:        claims.Email,
		PasswordHash: &hash,
		Role:         claims.Role,
		AccountType:  model.AccountTypeStaff,
	}
	if err := s.principalRepo.Create(principal); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"principal_id": principal.ID,
		"role":         principal.Role,
	}).Info("Invite redeemed, principal created")

	return s.openSession(principal, false)
}

func (s *AuthService) openSession(principal *model.Principal, rememberMe bool) (*SessionTokens, error) {
	var override time.Duration
	if rememberMe {
		override = ExtendedAccessTTL
	}

	access, err := s.issuer.Issue(model.NewAccessClaims(principal.ID, principal.Role), override)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.Issue(model.NewRefreshClaims(principal.ID), 0)
	if err != nil {
		return nil, err
	}

	return &SessionTokens{Access: access, Refresh: refresh}, nil
}
