package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Owner is the administrative principal that manages clientes.
type Owner struct {
	ID           uuid.UUID
	Nombre       string
	PasswordHash string
}

func OwnerByNombre(ctx context.Context, pool *pgxpool.Pool, nombre string) (*Owner, error) {
	var o Owner
	err := pool.QueryRow(ctx, `
		SELECT id, nombre, password_hash
		FROM owners WHERE lower(nombre) = lower($1)
	`, nombre).Scan(&o.ID, &o.Nombre, &o.PasswordHash)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
