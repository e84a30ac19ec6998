package seed

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/AlanPillo/Backend-App/internal/auth"
)

// Run seeds the first owner and a demo cliente on an empty database.
// Idempotent: anything already present short-circuits.
func Run(ctx context.Context, pool *pgxpool.Pool) error {
	var n int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM owners").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		log.Debug().Msg("seed: owners ya existen")
		return nil
	}

	ownerHash, err := auth.HashPassword("Admin123!")
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO owners (nombre, password_hash)
		VALUES ($1, $2)
	`, "admin", ownerHash); err != nil {
		return err
	}
	log.Info().Msg("seed: owner 'admin' creado")

	var clientes int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM clientes").Scan(&clientes); err != nil {
		return err
	}
	if clientes > 0 {
		return nil
	}
	clienteHash, err := auth.HashPassword("ChangeMe123!")
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO clientes (nombre, password_hash, telefono)
		VALUES ($1, $2, $3)
	`, "consultorio", clienteHash, "091234567"); err != nil {
		return err
	}
	log.Info().Msg("seed: cliente de demostración 'consultorio' creado")
	return nil
}
