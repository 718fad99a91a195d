package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kube-rca/accounts/internal/model"
)

const accountColumns = `
	id, email, full_name, hashed_password, is_active, is_superuser, google_id,
	password_reset_token_hash, password_reset_token_expires, created_at, updated_at
`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.FullName,
		&a.PasswordHash,
		&a.IsActive,
		&a.IsSuperuser,
		&a.ExternalID,
		&a.ResetTokenHash,
		&a.ResetTokenExpiresAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (db *Postgres) CreateAccount(ctx context.Context, params model.NewAccount) (*model.Account, error) {
	query := `
		INSERT INTO users (id, email, full_name, hashed_password, is_active, is_superuser, google_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING ` + accountColumns
	return scanAccount(db.Pool.QueryRow(ctx, query,
		uuid.New(),
		params.Email,
		params.FullName,
		params.PasswordHash,
		params.IsActive,
		params.IsSuperuser,
		params.ExternalID,
	))
}

func (db *Postgres) GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id = $1`
	return scanAccount(db.Pool.QueryRow(ctx, query, id))
}

func (db *Postgres) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE email = $1`
	return scanAccount(db.Pool.QueryRow(ctx, query, email))
}

func (db *Postgres) GetAccountByResetTokenHash(ctx context.Context, digest string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE password_reset_token_hash = $1`
	return scanAccount(db.Pool.QueryRow(ctx, query, digest))
}

// UpdateAccount 는 프로필/권한 필드만 저장합니다 (비밀번호, 리셋 토큰, 외부 ID 는 별도 메서드).
func (db *Postgres) UpdateAccount(ctx context.Context, a *model.Account) (*model.Account, error) {
	query := `
		UPDATE users
		SET email = $2, full_name = $3, is_active = $4, is_superuser = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns
	return scanAccount(db.Pool.QueryRow(ctx, query,
		a.ID,
		a.Email,
		a.FullName,
		a.IsActive,
		a.IsSuperuser,
	))
}

// SetPassword replaces the password hash and drops any pending reset token.
func (db *Postgres) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET hashed_password = $2,
			password_reset_token_hash = NULL,
			password_reset_token_expires = NULL,
			updated_at = NOW()
		WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *Postgres) SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET password_reset_token_hash = $2, password_reset_token_expires = $3, updated_at = NOW()
		WHERE id = $1
	`, id, digest, expiresAt)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeResetToken sets the new password hash and clears the token, but only
// while digest is still the pending token. A lost race reports ErrNotFound.
func (db *Postgres) ConsumeResetToken(ctx context.Context, id uuid.UUID, digest, passwordHash string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET hashed_password = $3,
			password_reset_token_hash = NULL,
			password_reset_token_expires = NULL,
			updated_at = NOW()
		WHERE id = $1 AND password_reset_token_hash = $2
	`, id, digest, passwordHash)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkExternalID sets google_id only when it is still unset.
func (db *Postgres) LinkExternalID(ctx context.Context, id uuid.UUID, externalID string) (*model.Account, error) {
	query := `
		UPDATE users
		SET google_id = $2, updated_at = NOW()
		WHERE id = $1 AND google_id IS NULL
		RETURNING ` + accountColumns
	a, err := scanAccount(db.Pool.QueryRow(ctx, query, id, externalID))
	if errors.Is(err, ErrNotFound) {
		return db.GetAccountByID(ctx, id)
	}
	return a, err
}

func (db *Postgres) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *Postgres) ListAccounts(ctx context.Context, offset, limit int) ([]model.Account, int, error) {
	var count int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM users
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return accounts, count, nil
}
