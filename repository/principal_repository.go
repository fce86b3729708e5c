package repository

import (
	"database/sql"
	"go-clinic-auth/model"
)

// IPrincipalRepository defines the contract for principal lookups and the
// single write the auth engine performs on a principal: replacing its
// password hash. Everything else about principals belongs to the CRUD
// layer that consumes this engine.
type IPrincipalRepository interface {
	GetByID(id int) (*model.Principal, error)
	GetByEmail(email string, accountType model.AccountType) (*model.Principal, error)
	Create(principal *model.Principal) error
	UpdatePasswordHash(id int, hash string) error
}

type PrincipalRepository struct {
	DB *sql.DB
}

func NewPrincipalRepository(db *sql.DB) *PrincipalRepository {
	return &PrincipalRepository{DB: db}
}

func (r *PrincipalRepository) GetByID(id int) (*model.Principal, error) {
	principal := &model.Principal{}
	query := `SELECT id, name, email, password_hash, role, account_type, created_at FROM principals WHERE id = $1`
	err := r.DB.QueryRow(query, id).
		Scan(&principal.ID, &principal.Name, &principal.Email, &principal.PasswordHash, &principal.Role, &principal.AccountType, &principal.CreatedAt)
	if err != nil {
		return nil, err
	}
	return principal, nil
}

func (r *PrincipalRepository) GetByEmail(email string, accountType model.AccountType) (*model.Principal, error) {
	principal := &model.Principal{}
	query := `SELECT id, name, email, password_hash, role, account_type, created_at FROM principals WHERE email = $1 AND account_type = $2`
	err := r.DB.QueryRow(query, email, accountType).
		Scan(&principal.ID, &principal.Name, &principal.Email, &principal.PasswordHash, &principal.Role, &principal.AccountType, &principal.CreatedAt)
	if err != nil {
		return nil, err
	}
	return principal, nil
}

func (r *PrincipalRepository) Create(principal *model.Principal) error {
	query := `INSERT INTO principals (name, email, password_hash, role, account_type) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	return r.DB.QueryRow(query, principal.Name, principal.Email, principal.PasswordHash, principal.Role, principal.AccountType).
		Scan(&principal.ID, &principal.CreatedAt)
}

func (r *PrincipalRepository) UpdatePasswordHash(id int, hash string) error {
	query := `UPDATE principals SET password_hash = $1 WHERE id = $2`
	res, err := r.DB.Exec(query, hash, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
