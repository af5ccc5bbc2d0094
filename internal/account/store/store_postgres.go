package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"registrar/internal/account/models"
	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
)

// Postgres persists accounts in PostgreSQL. Uniqueness lives in the
// accounts_display_name_key index; this store only translates its violation
// into the sentinel vocabulary.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const accountColumns = `id, display_name, credential_hash, contact_email, contact_phone, role_id, status, created_at`

func (s *Postgres) Exists(ctx context.Context, displayName string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE display_name = $1)`,
		displayName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check display name: %w", err)
	}
	return exists, nil
}

func (s *Postgres) Insert(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (display_name, credential_hash, contact_email, contact_phone, role_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING ` + accountColumns
	inserted, err := scanAccount(s.db.QueryRowContext(ctx, query,
		account.DisplayName,
		account.CredentialHash,
		account.ContactEmail,
		account.ContactPhone,
		account.RoleID,
		account.Status,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("display name %q: %w", account.DisplayName, sentinel.ErrConflict)
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return inserted, nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.AccountID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %d: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return account, nil
}

func (s *Postgres) FindByDisplayName(ctx context.Context, displayName string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE display_name = $1`
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, displayName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %q: %w", displayName, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find account by display name: %w", err)
	}
	return account, nil
}

func (s *Postgres) Update(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET display_name = $2, contact_email = $3, contact_phone = $4, role_id = $5, status = $6
		WHERE id = $1
		RETURNING ` + accountColumns
	updated, err := scanAccount(s.db.QueryRowContext(ctx, query,
		int64(account.ID),
		account.DisplayName,
		account.ContactEmail,
		account.ContactPhone,
		account.RoleID,
		account.Status,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %d: %w", account.ID, sentinel.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("display name %q: %w", account.DisplayName, sentinel.ErrConflict)
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return updated, nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	var id int64
	err := row.Scan(
		&id,
		&a.DisplayName,
		&a.CredentialHash,
		&a.ContactEmail,
		&a.ContactPhone,
		&a.RoleID,
		&a.Status,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ID = domain.AccountID(id)
	return &a, nil
}

// isUniqueViolation reports whether err is PostgreSQL error 23505.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
