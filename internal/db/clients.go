package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kube-rca/accounts/internal/model"
)

const clientColumns = `
	id, client_id, name, hashed_client_secret, owner_id, redirect_uris, scopes, is_active, created_at, updated_at
`

func scanClient(row pgx.Row) (*model.ClientApplication, error) {
	var c model.ClientApplication
	err := row.Scan(
		&c.ID,
		&c.ClientID,
		&c.Name,
		&c.SecretHash,
		&c.OwnerID,
		&c.RedirectURIs,
		&c.Scopes,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (db *Postgres) CreateClient(ctx context.Context, c model.ClientApplication) (*model.ClientApplication, error) {
	query := `
		INSERT INTO clients (id, client_id, name, hashed_client_secret, owner_id, redirect_uris, scopes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING ` + clientColumns
	return scanClient(db.Pool.QueryRow(ctx, query,
		uuid.New(),
		c.ClientID,
		c.Name,
		c.SecretHash,
		c.OwnerID,
		nonNil(c.RedirectURIs),
		nonNil(c.Scopes),
		c.IsActive,
	))
}

func (db *Postgres) GetClientByClientID(ctx context.Context, clientID uuid.UUID) (*model.ClientApplication, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE client_id = $1`
	return scanClient(db.Pool.QueryRow(ctx, query, clientID))
}

func (db *Postgres) UpdateClient(ctx context.Context, c *model.ClientApplication) (*model.ClientApplication, error) {
	query := `
		UPDATE clients
		SET name = $2, redirect_uris = $3, scopes = $4, is_active = $5, updated_at = NOW()
		WHERE client_id = $1
		RETURNING ` + clientColumns
	return scanClient(db.Pool.QueryRow(ctx, query,
		c.ClientID,
		c.Name,
		nonNil(c.RedirectURIs),
		nonNil(c.Scopes),
		c.IsActive,
	))
}

func (db *Postgres) DeleteClient(ctx context.Context, clientID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM clients WHERE client_id = $1`, clientID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *Postgres) ListClients(ctx context.Context, offset, limit int) ([]model.ClientApplication, int, error) {
	var count int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`).Scan(&count); err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	clients := []model.ClientApplication{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		clients = append(clients, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return clients, count, nil
}

// text[] NOT NULL 컬럼에 nil 슬라이스가 NULL 로 들어가지 않도록
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
