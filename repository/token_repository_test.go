// file: repository/token_repository_test.go

package repository

import (
	"database/sql"
	"go-clinic-auth/logger"
	"go-clinic-auth/model"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

// TestMain runs setup before any tests in this package are executed.
func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func tokenColumns() []string {
	return []string{"id", "owner_id", "owner_email", "token", "kind", "expires_at", "created_at"}
}

func TestTokenRepository_Create(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)
	ownerID := 5
	expiresAt := time.Now().Add(8 * time.Hour)
	record := &model.TokenRecord{
		OwnerID:   &ownerID,
		Token:     "signed-token",
		Kind:      model.KindAccess,
		ExpiresAt: &expiresAt,
	}

	dbMock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO auth_tokens (owner_id, owner_email, token, kind, expires_at) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`)).
		WithArgs(ownerID, nil, "signed-token", model.KindAccess, expiresAt).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))

	err = repo.Create(record)

	assert.NoError(t, err)
	assert.Equal(t, 1, record.ID)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTokenRepository_Create_UniqueViolation(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)
	email := "alice@co.com"
	record := &model.TokenRecord{OwnerEmail: &email, Token: "invite-token", Kind: model.KindInvite}

	dbMock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO auth_tokens`)).
		WillReturnError(&pq.Error{Code: "23505"})

	err = repo.Create(record)

	assert.ErrorIs(t, err, ErrActiveTokenExists)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTokenRepository_GetByToken(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)

	t.Run("found", func(t *testing.T) {
		expiresAt := time.Now().Add(time.Hour)
		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT id, owner_id, owner_email, token, kind, expires_at, created_at FROM auth_tokens WHERE token = $1`)).
			WithArgs("signed-token").
			WillReturnRows(sqlmock.NewRows(tokenColumns()).
				AddRow(1, 5, nil, "signed-token", "access", expiresAt, time.Now()))

		record, err := repo.GetByToken("signed-token")

		assert.NoError(t, err)
		assert.Equal(t, model.KindAccess, record.Kind)
		assert.NotNil(t, record.OwnerID)
		assert.Equal(t, 5, *record.OwnerID)
		assert.Nil(t, record.OwnerEmail)
	})

	t.Run("not found", func(t *testing.T) {
		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT id, owner_id, owner_email, token, kind, expires_at, created_at FROM auth_tokens WHERE token = $1`)).
			WithArgs("absent").
			WillReturnError(sql.ErrNoRows)

		record, err := repo.GetByToken("absent")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, record)
	})

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTokenRepository_ConsumeByToken(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)

	t.Run("deletes and returns the record", func(t *testing.T) {
		expiresAt := time.Now().Add(time.Hour)
		dbMock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM auth_tokens WHERE token = $1 AND kind = $2 RETURNING id, owner_id, owner_email, token, kind, expires_at, created_at`)).
			WithArgs("reset-token", model.KindPasswordReset).
			WillReturnRows(sqlmock.NewRows(tokenColumns()).
				AddRow(3, 5, nil, "reset-token", "password_reset", expiresAt, time.Now()))

		record, err := repo.ConsumeByToken("reset-token", model.KindPasswordReset)

		assert.NoError(t, err)
		assert.Equal(t, model.KindPasswordReset, record.Kind)
	})

	t.Run("second consumption loses", func(t *testing.T) {
		dbMock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM auth_tokens WHERE token = $1 AND kind = $2`)).
			WithArgs("reset-token", model.KindPasswordReset).
			WillReturnError(sql.ErrNoRows)

		record, err := repo.ConsumeByToken("reset-token", model.KindPasswordReset)

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, record)
	})

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTokenRepository_DeleteByToken(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)

	// Deleting an absent token affects zero rows and is still no error.
	dbMock.ExpectExec(regexp.QuoteMeta(`DELETE FROM auth_tokens WHERE token = $1`)).
		WithArgs("absent").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.DeleteByToken("absent"))
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTokenRepository_DeleteByOwnerEmail(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)

	dbMock.ExpectExec(regexp.QuoteMeta(`DELETE FROM auth_tokens WHERE owner_email = $1 AND kind = $2`)).
		WithArgs("alice@co.com", model.KindInvite).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.DeleteByOwnerEmail("alice@co.com", model.KindInvite))
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTokenRepository_DeleteExpired(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)
	now := time.Now()

	dbMock.ExpectExec(regexp.QuoteMeta(`DELETE FROM auth_tokens WHERE expires_at IS NOT NULL AND expires_at < $1`)).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	deleted, err := repo.DeleteExpired(now)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}
