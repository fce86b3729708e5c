// file: repository/token_repository.go

package repository

import (
	"database/sql"
	"errors"
	"go-clinic-auth/logger"
	"go-clinic-auth/model"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// ErrActiveTokenExists is returned when an insert trips the partial unique
// index guarding "at most one active invite per email".
var ErrActiveTokenExists = errors.New("an active token already exists for this owner")

// ITokenRepository defines the contract for issued-token database
// operations. Records are immutable: there is no update, only create and
// delete. ConsumeByToken is the atomic delete-and-return primitive that
// makes single-use tokens strictly exclusive under concurrent redemption.
type ITokenRepository interface {
	Create(record *model.TokenRecord) error
	GetByToken(token string) (*model.TokenRecord, error)
	GetByOwnerEmail(email string, kind model.TokenKind) (*model.TokenRecord, error)
	DeleteByToken(token string) error
	DeleteByOwnerEmail(email string, kind model.TokenKind) error
	ConsumeByToken(token string, kind model.TokenKind) (*model.TokenRecord, error)
	DeleteExpired(now time.Time) (int64, error)
}

// TokenRepository implements ITokenRepository over postgres.
type TokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

// Create inserts a new token record. The raw token string is deliberately
// kept out of the logs.
func (r *TokenRepository) Create(record *model.TokenRecord) error {
	log := logger.Log.WithFields(logrus.Fields{
		"kind":       record.Kind,
		"expires_at": record.ExpiresAt,
	})
	log.Info("Executing query to create a new token record")

	query := `INSERT INTO auth_tokens (owner_id, owner_email, token, kind, expires_at) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	err := r.DB.QueryRow(query, record.OwnerID, record.OwnerEmail, record.Token, record.Kind, record.ExpiresAt).
		Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrActiveTokenExists
		}
		log.WithError(err).Error("Failed to execute create token query")
		return err
	}
	return nil
}

// GetByToken retrieves a token record by its opaque signed string.
func (r *TokenRepository) GetByToken(token string) (*model.TokenRecord, error) {
	record := &model.TokenRecord{}
	query := `SELECT id, owner_id, owner_email, token, kind, expires_at, created_at FROM auth_tokens WHERE token = $1`
	err := r.DB.QueryRow(query, token).
		Scan(&record.ID, &record.OwnerID, &record.OwnerEmail, &record.Token, &record.Kind, &record.ExpiresAt, &record.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute get token query")
		}
		return nil, err // Return sql.ErrNoRows if not found
	}
	return record, nil
}

// GetByOwnerEmail retrieves the token record of the given kind issued for
// an email address. Used by the invite flow, which is keyed by email
// rather than principal id.
func (r *TokenRepository) GetByOwnerEmail(email string, kind model.TokenKind) (*model.TokenRecord, error) {
	record := &model.TokenRecord{}
	query := `SELECT id, owner_id, owner_email, token, kind, expires_at, created_at FROM auth_tokens WHERE owner_email = $1 AND kind = $2`
	err := r.DB.QueryRow(query, email, kind).
		Scan(&record.ID, &record.OwnerID, &record.OwnerEmail, &record.Token, &record.Kind, &record.ExpiresAt, &record.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute get token by owner email query")
		}
		return nil, err
	}
	return record, nil
}

// DeleteByToken deletes a token record. Deleting an absent token is not an
// error, which makes logout idempotent.
func (r *TokenRepository) DeleteByToken(token string) error {
	query := `DELETE FROM auth_tokens WHERE token = $1`
	_, err := r.DB.Exec(query, token)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute delete token query")
		return err
	}
	return nil
}

// DeleteByOwnerEmail deletes all records of a kind for an email. Used to
// supersede a previous invite before issuing a new one.
func (r *TokenRepository) DeleteByOwnerEmail(email string, kind model.TokenKind) error {
	log := logger.Log.WithFields(logrus.Fields{
		"owner_email": email,
		"kind":        kind,
	})
	log.Info("Executing query to delete token records by owner email")

	query := `DELETE FROM auth_tokens WHERE owner_email = $1 AND kind = $2`
	_, err := r.DB.Exec(query, email, kind)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete tokens by owner email query")
		return err
	}
	return nil
}

// ConsumeByToken atomically deletes a token record and returns it. Two
// concurrent redemptions of the same single-use token can therefore
// succeed at most once; the loser sees sql.ErrNoRows.
func (r *TokenRepository) ConsumeByToken(token string, kind model.TokenKind) (*model.TokenRecord, error) {
	record := &model.TokenRecord{}
	query := `DELETE FROM auth_tokens WHERE token = $1 AND kind = $2 RETURNING id, owner_id, owner_email, token, kind, expires_at, created_at`
	err := r.DB.QueryRow(query, token, kind).
		Scan(&record.ID, &record.OwnerID, &record.OwnerEmail, &record.Token, &record.Kind, &record.ExpiresAt, &record.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithField("kind", kind).WithError(err).Error("Failed to execute consume token query")
		}
		return nil, err
	}
	return record, nil
}

// DeleteExpired removes records whose tracked expiry has passed. The
// engine never calls this itself; expiry is enforced at verification time.
// It exists so an operator can schedule storage hygiene.
func (r *TokenRepository) DeleteExpired(now time.Time) (int64, error) {
	query := `DELETE FROM auth_tokens WHERE expires_at IS NOT NULL AND expires_at < $1`
	res, err := r.DB.Exec(query, now)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute delete expired tokens query")
		return 0, err
	}
	return res.RowsAffected()
}
