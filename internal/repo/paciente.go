package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Paciente struct {
	ID        uuid.UUID
	ClienteID uuid.UUID
	Nombre    string
	Email     string
	Telefono  string
	CreatedAt time.Time
}

const pacienteCols = `id, cliente_id, nombre, email, telefono, created_at`

func scanPaciente(row pgx.Row) (*Paciente, error) {
	var p Paciente
	if err := row.Scan(&p.ID, &p.ClienteID, &p.Nombre, &p.Email, &p.Telefono, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func CreatePaciente(ctx context.Context, pool *pgxpool.Pool, clienteID uuid.UUID, nombre, email, telefono string) (*Paciente, error) {
	return scanPaciente(pool.QueryRow(ctx, `
		INSERT INTO pacientes (cliente_id, nombre, email, telefono)
		VALUES ($1, $2, $3, $4)
		RETURNING `+pacienteCols, clienteID, nombre, email, telefono))
}

// PacienteByIDAndCliente scopes the lookup by ownership: a wrong owner and a
// missing row both come back as pgx.ErrNoRows.
func PacienteByIDAndCliente(ctx context.Context, pool *pgxpool.Pool, id, clienteID uuid.UUID) (*Paciente, error) {
	return scanPaciente(pool.QueryRow(ctx, `
		SELECT `+pacienteCols+` FROM pacientes WHERE id = $1 AND cliente_id = $2
	`, id, clienteID))
}

func PacienteByID(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID) (*Paciente, error) {
	return scanPaciente(pool.QueryRow(ctx, `
		SELECT `+pacienteCols+` FROM pacientes WHERE id = $1
	`, id))
}

func PacientesByCliente(ctx context.Context, pool *pgxpool.Pool, clienteID uuid.UUID) ([]Paciente, error) {
	rows, err := pool.Query(ctx, `
		SELECT `+pacienteCols+` FROM pacientes WHERE cliente_id = $1 ORDER BY created_at DESC
	`, clienteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPacientes(rows)
}

func ListPacientes(ctx context.Context, pool *pgxpool.Pool) ([]Paciente, error) {
	rows, err := pool.Query(ctx, `
		SELECT `+pacienteCols+` FROM pacientes ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPacientes(rows)
}

func collectPacientes(rows pgx.Rows) ([]Paciente, error) {
	var list []Paciente
	for rows.Next() {
		var p Paciente
		if err := rows.Scan(&p.ID, &p.ClienteID, &p.Nombre, &p.Email, &p.Telefono, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func UpdatePaciente(ctx context.Context, pool *pgxpool.Pool, id, clienteID uuid.UUID, nombre, email, telefono string) (*Paciente, error) {
	p, err := scanPaciente(pool.QueryRow(ctx, `
		UPDATE pacientes SET nombre = $1, email = $2, telefono = $3
		WHERE id = $4 AND cliente_id = $5
		RETURNING `+pacienteCols, nombre, email, telefono, id, clienteID))
	if err != nil {
		return nil, err
	}
	return p, nil
}

func DeletePaciente(ctx context.Context, pool *pgxpool.Pool, id, clienteID uuid.UUID) error {
	result, err := pool.Exec(ctx, `
		DELETE FROM pacientes WHERE id = $1 AND cliente_id = $2
	`, id, clienteID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
