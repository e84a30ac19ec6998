package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	EstadoAbierto = "abierto"
	EstadoCerrado = "cerrado"
)

// ErrCitaPendiente signals the one-open-cita-per-paciente rule. It also maps
// the partial unique index violation, so the rule holds under concurrent
// creation and not only through the read-then-check.
var ErrCitaPendiente = errors.New("el paciente ya tiene una cita pendiente")

type Cita struct {
	ID                uuid.UUID
	PacienteID        uuid.UUID
	Fecha             time.Time
	Hora              string
	Notas             string
	Confirmada        bool
	Asistio           *bool
	Estado            string
	TokenConfirmacion string
	CreatedAt         time.Time
}

const citaCols = `id, paciente_id, fecha, hora, notas, confirmada, asistio, estado, token_confirmacion, created_at`

func scanCita(row pgx.Row) (*Cita, error) {
	var c Cita
	if err := row.Scan(&c.ID, &c.PacienteID, &c.Fecha, &c.Hora, &c.Notas, &c.Confirmada, &c.Asistio, &c.Estado, &c.TokenConfirmacion, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCitas(rows pgx.Rows) ([]Cita, error) {
	var list []Cita
	for rows.Next() {
		var c Cita
		if err := rows.Scan(&c.ID, &c.PacienteID, &c.Fecha, &c.Hora, &c.Notas, &c.Confirmada, &c.Asistio, &c.Estado, &c.TokenConfirmacion, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// CitaAbiertaByPaciente returns the paciente's open cita, or pgx.ErrNoRows.
func CitaAbiertaByPaciente(ctx context.Context, pool *pgxpool.Pool, pacienteID uuid.UUID) (*Cita, error) {
	return scanCita(pool.QueryRow(ctx, `
		SELECT `+citaCols+` FROM citas WHERE paciente_id = $1 AND estado = $2
	`, pacienteID, EstadoAbierto))
}

func CreateCita(ctx context.Context, pool *pgxpool.Pool, pacienteID uuid.UUID, fecha time.Time, hora, notas, tokenConfirmacion string) (*Cita, error) {
	c, err := scanCita(pool.QueryRow(ctx, `
		INSERT INTO citas (paciente_id, fecha, hora, notas, confirmada, asistio, estado, token_confirmacion)
		VALUES ($1, $2, $3, $4, false, NULL, $5, $6)
		RETURNING `+citaCols, pacienteID, fecha, hora, notas, EstadoAbierto, tokenConfirmacion))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrCitaPendiente
		}
		return nil, err
	}
	return c, nil
}

// ConfirmarCita sets the confirmation flag and closes the cita. When
// clienteID is non-nil the update is scoped to that cliente's pacientes.
func ConfirmarCita(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID, clienteID *uuid.UUID, confirmada bool) (*Cita, error) {
	return scanCita(pool.QueryRow(ctx, `
		UPDATE citas c SET confirmada = $1, estado = $2
		FROM pacientes p
		WHERE c.paciente_id = p.id AND c.id = $3
		  AND ($4::uuid IS NULL OR p.cliente_id = $4)
		RETURNING c.id, c.paciente_id, c.fecha, c.hora, c.notas, c.confirmada, c.asistio, c.estado, c.token_confirmacion, c.created_at
	`, confirmada, EstadoCerrado, id, clienteID))
}

// MarcarAsistencia sets asistio and closes the cita, ownership-scoped like
// ConfirmarCita.
func MarcarAsistencia(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID, clienteID *uuid.UUID, asistio bool) (*Cita, error) {
	return scanCita(pool.QueryRow(ctx, `
		UPDATE citas c SET asistio = $1, estado = $2
		FROM pacientes p
		WHERE c.paciente_id = p.id AND c.id = $3
		  AND ($4::uuid IS NULL OR p.cliente_id = $4)
		RETURNING c.id, c.paciente_id, c.fecha, c.hora, c.notas, c.confirmada, c.asistio, c.estado, c.token_confirmacion, c.created_at
	`, asistio, EstadoCerrado, id, clienteID))
}

// CitaDetail joins the cita with its paciente and owning cliente, which the
// notification path needs (recipient, names, deep-link phone).
type CitaDetail struct {
	Cita
	PacienteNombre  string
	PacienteEmail   string
	ClienteID       uuid.UUID
	ClienteNombre   string
	ClienteTelefono *string
}

func CitaDetailByID(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID, clienteID *uuid.UUID) (*CitaDetail, error) {
	var d CitaDetail
	err := pool.QueryRow(ctx, `
		SELECT c.id, c.paciente_id, c.fecha, c.hora, c.notas, c.confirmada, c.asistio, c.estado, c.token_confirmacion, c.created_at,
		       p.nombre, p.email, cl.id, cl.nombre, cl.telefono
		FROM citas c
		JOIN pacientes p ON c.paciente_id = p.id
		JOIN clientes cl ON p.cliente_id = cl.id
		WHERE c.id = $1 AND ($2::uuid IS NULL OR cl.id = $2)
	`, id, clienteID).Scan(
		&d.ID, &d.PacienteID, &d.Fecha, &d.Hora, &d.Notas, &d.Confirmada, &d.Asistio, &d.Estado, &d.TokenConfirmacion, &d.CreatedAt,
		&d.PacienteNombre, &d.PacienteEmail, &d.ClienteID, &d.ClienteNombre, &d.ClienteTelefono,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteCitaAbierta removes the cita only while it is still open.
func DeleteCitaAbierta(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID) error {
	result, err := pool.Exec(ctx, `
		DELETE FROM citas WHERE id = $1 AND estado = $2
	`, id, EstadoAbierto)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// HistorialByPaciente returns the paciente's closed citas, most recent first.
func HistorialByPaciente(ctx context.Context, pool *pgxpool.Pool, pacienteID uuid.UUID) ([]Cita, error) {
	rows, err := pool.Query(ctx, `
		SELECT `+citaCols+` FROM citas
		WHERE paciente_id = $1 AND estado = $2
		ORDER BY fecha DESC
	`, pacienteID, EstadoCerrado)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCitas(rows)
}

// CitasAbiertasByCliente returns the open citas across a cliente's pacientes,
// used to annotate the default paciente list view.
func CitasAbiertasByCliente(ctx context.Context, pool *pgxpool.Pool, clienteID uuid.UUID) ([]Cita, error) {
	rows, err := pool.Query(ctx, `
		SELECT c.id, c.paciente_id, c.fecha, c.hora, c.notas, c.confirmada, c.asistio, c.estado, c.token_confirmacion, c.created_at
		FROM citas c
		JOIN pacientes p ON c.paciente_id = p.id
		WHERE p.cliente_id = $1 AND c.estado = $2
	`, clienteID, EstadoAbierto)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCitas(rows)
}

func CitasByCliente(ctx context.Context, pool *pgxpool.Pool, clienteID uuid.UUID) ([]Cita, error) {
	rows, err := pool.Query(ctx, `
		SELECT c.id, c.paciente_id, c.fecha, c.hora, c.notas, c.confirmada, c.asistio, c.estado, c.token_confirmacion, c.created_at
		FROM citas c
		JOIN pacientes p ON c.paciente_id = p.id
		WHERE p.cliente_id = $1
		ORDER BY c.fecha DESC, c.hora
	`, clienteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCitas(rows)
}

func ListCitas(ctx context.Context, pool *pgxpool.Pool) ([]Cita, error) {
	rows, err := pool.Query(ctx, `
		SELECT `+citaCols+` FROM citas ORDER BY fecha DESC, hora
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCitas(rows)
}

// CitaReminderRow feeds the reminder sweep: one mail per open cita on the
// target date.
type CitaReminderRow struct {
	CitaID          uuid.UUID
	Fecha           time.Time
	Hora            string
	PacienteNombre  string
	PacienteEmail   string
	ClienteNombre   string
	ClienteTelefono *string
}

func ListCitasForReminder(ctx context.Context, pool *pgxpool.Pool, date time.Time) ([]CitaReminderRow, error) {
	rows, err := pool.Query(ctx, `
		SELECT c.id, c.fecha, c.hora, p.nombre, p.email, cl.nombre, cl.telefono
		FROM citas c
		JOIN pacientes p ON c.paciente_id = p.id
		JOIN clientes cl ON p.cliente_id = cl.id
		WHERE c.fecha = $1 AND c.estado = $2
	`, date, EstadoAbierto)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []CitaReminderRow
	for rows.Next() {
		var r CitaReminderRow
		if err := rows.Scan(&r.CitaID, &r.Fecha, &r.Hora, &r.PacienteNombre, &r.PacienteEmail, &r.ClienteNombre, &r.ClienteTelefono); err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}
