package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AlanPillo/Backend-App/internal/auth"
	"github.com/AlanPillo/Backend-App/internal/cache"
	"github.com/AlanPillo/Backend-App/internal/config"
	"github.com/AlanPillo/Backend-App/internal/email"
	"github.com/AlanPillo/Backend-App/internal/reminder"
	"github.com/AlanPillo/Backend-App/internal/repo"
	"github.com/AlanPillo/Backend-App/internal/whatsapp"
)

type Handler struct {
	Pool  *pgxpool.Pool
	Cfg   *config.Config
	Cache cache.Cache
	Sched *reminder.Scheduler

	hashPassword           func(string) (string, error)
	sendCitaAgendada       func(to string, d email.CitaData) error
	sendCitaCancelada      func(to string, d email.CitaData) error
	sendRecordatorioPrueba func(to string, d email.CitaData) error
}

func (h *Handler) SetHashPassword(fn func(string) (string, error)) { h.hashPassword = fn }
func (h *Handler) SetSendCitaAgendada(fn func(to string, d email.CitaData) error) {
	h.sendCitaAgendada = fn
}
func (h *Handler) SetSendCitaCancelada(fn func(to string, d email.CitaData) error) {
	h.sendCitaCancelada = fn
}
func (h *Handler) SetSendRecordatorioPrueba(fn func(to string, d email.CitaData) error) {
	h.sendRecordatorioPrueba = fn
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// pathID parses the {name} route var as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	return id, err == nil
}

// clienteScope returns the ownership filter for repo queries: the caller's
// cliente id, or nil when the caller is owner (unscoped).
func clienteScope(r *http.Request) (*uuid.UUID, bool) {
	if auth.IsOwner(r.Context()) {
		return nil, true
	}
	id, err := uuid.Parse(auth.UserIDFrom(r.Context()))
	if err != nil {
		return nil, false
	}
	return &id, true
}

func parseUUIDField(s string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

func newConfirmToken() string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// waLink builds the pre-filled cancellation deep-link. The cliente's own
// phone wins; without one the fixed service number is used.
func (h *Handler) waLink(clienteTelefono *string, nombre, fechaFmt, hora string) string {
	phone := h.Cfg.WAServicePhone
	if clienteTelefono != nil {
		if p := whatsapp.NormalizePhone(*clienteTelefono, h.Cfg.WACountryCode); p != "" {
			phone = p
		}
	}
	return whatsapp.Link(phone, whatsapp.CancelMessage(nombre, fechaFmt, hora))
}

// invalidateListas drops the cached list views after a paciente or cita
// mutation. With a known cliente only that tenant's view (plus the owner
// view) is dropped; without one, every cached list goes.
func (h *Handler) invalidateListas(ctx context.Context, clienteID *uuid.UUID) {
	if h.Cache == nil {
		return
	}
	if clienteID != nil {
		_ = h.Cache.Delete(ctx, "pacientes:"+clienteID.String())
		_ = h.Cache.Delete(ctx, "pacientes:all")
		return
	}
	_ = h.Cache.DeletePrefix(ctx, "pacientes:")
}

// Wire shapes. Repo structs stay tag-free; the JSON contract lives here.

type citaJSON struct {
	ID         uuid.UUID `json:"id"`
	PacienteID uuid.UUID `json:"paciente_id"`
	Fecha      string    `json:"fecha"`
	Hora       string    `json:"hora"`
	Notas      string    `json:"notas,omitempty"`
	Confirmada bool      `json:"confirmada"`
	Asistio    *bool     `json:"asistio"`
	Estado     string    `json:"estado"`
	CreatedAt  time.Time `json:"created_at"`
}

func toCitaJSON(c *repo.Cita) citaJSON {
	return citaJSON{
		ID:         c.ID,
		PacienteID: c.PacienteID,
		Fecha:      c.Fecha.Format("2006-01-02"),
		Hora:       c.Hora,
		Notas:      c.Notas,
		Confirmada: c.Confirmada,
		Asistio:    c.Asistio,
		Estado:     c.Estado,
		CreatedAt:  c.CreatedAt,
	}
}

type pacienteJSON struct {
	ID        uuid.UUID `json:"id"`
	ClienteID uuid.UUID `json:"cliente_id"`
	Nombre    string    `json:"nombre"`
	Email     string    `json:"email"`
	Telefono  string    `json:"telefono"`
	CreatedAt time.Time `json:"created_at"`
}

func toPacienteJSON(p *repo.Paciente) pacienteJSON {
	return pacienteJSON{
		ID:        p.ID,
		ClienteID: p.ClienteID,
		Nombre:    p.Nombre,
		Email:     p.Email,
		Telefono:  p.Telefono,
		CreatedAt: p.CreatedAt,
	}
}

type clienteJSON struct {
	ID       uuid.UUID `json:"id"`
	Nombre   string    `json:"nombre"`
	Telefono *string   `json:"telefono"`
}

func toClienteJSON(c *repo.Cliente) clienteJSON {
	return clienteJSON{ID: c.ID, Nombre: c.Nombre, Telefono: c.Telefono}
}
