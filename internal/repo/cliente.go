package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cliente is a practitioner-tenant: owns pacientes and their citas.
type Cliente struct {
	ID           uuid.UUID
	Nombre       string
	PasswordHash string
	Telefono     *string
}

func ClienteByNombre(ctx context.Context, pool *pgxpool.Pool, nombre string) (*Cliente, error) {
	var c Cliente
	err := pool.QueryRow(ctx, `
		SELECT id, nombre, password_hash, telefono
		FROM clientes WHERE lower(nombre) = lower($1)
	`, nombre).Scan(&c.ID, &c.Nombre, &c.PasswordHash, &c.Telefono)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func ClienteByID(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID) (*Cliente, error) {
	var c Cliente
	err := pool.QueryRow(ctx, `
		SELECT id, nombre, password_hash, telefono
		FROM clientes WHERE id = $1
	`, id).Scan(&c.ID, &c.Nombre, &c.PasswordHash, &c.Telefono)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func ListClientes(ctx context.Context, pool *pgxpool.Pool) ([]Cliente, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, nombre, password_hash, telefono
		FROM clientes ORDER BY nombre
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Cliente
	for rows.Next() {
		var c Cliente
		if err := rows.Scan(&c.ID, &c.Nombre, &c.PasswordHash, &c.Telefono); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func CreateCliente(ctx context.Context, pool *pgxpool.Pool, nombre, passwordHash string, telefono *string) (*Cliente, error) {
	var c Cliente
	err := pool.QueryRow(ctx, `
		INSERT INTO clientes (nombre, password_hash, telefono)
		VALUES ($1, $2, $3)
		RETURNING id, nombre, password_hash, telefono
	`, nombre, passwordHash, telefono).Scan(&c.ID, &c.Nombre, &c.PasswordHash, &c.Telefono)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCliente changes nombre/telefono and, when passwordHash is non-nil, the password.
func UpdateCliente(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID, nombre string, telefono *string, passwordHash *string) error {
	result, err := pool.Exec(ctx, `
		UPDATE clientes
		SET nombre = $1,
		    telefono = $2,
		    password_hash = COALESCE($3, password_hash)
		WHERE id = $4
	`, nombre, telefono, passwordHash, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func DeleteCliente(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID) error {
	result, err := pool.Exec(ctx, `DELETE FROM clientes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
