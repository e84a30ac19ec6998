package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/AlanPillo/Backend-App/internal/auth"
	"github.com/AlanPillo/Backend-App/internal/repo"
)

type PacienteRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Telefono string `json:"telefono"`
}

// pacienteConCita is the default list row: the paciente plus its open cita,
// if any.
type pacienteConCita struct {
	pacienteJSON
	Cita *citaJSON `json:"cita"`
}

func (h *Handler) CreatePaciente(w http.ResponseWriter, r *http.Request) {
	if auth.IsOwner(r.Context()) {
		// Los pacientes pertenecen a un cliente concreto.
		http.Error(w, `{"error":"Acceso denegado"}`, http.StatusForbidden)
		return
	}
	var req PacienteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Solicitud inválida"}`, http.StatusBadRequest)
		return
	}
	nombre := strings.TrimSpace(req.Nombre)
	mail := strings.TrimSpace(req.Email)
	tel := strings.TrimSpace(req.Telefono)
	if nombre == "" || mail == "" || tel == "" {
		http.Error(w, `{"error":"Todos los campos son obligatorios"}`, http.StatusBadRequest)
		return
	}
	clienteID, err := uuid.Parse(auth.UserIDFrom(r.Context()))
	if err != nil {
		http.Error(w, `{"error":"Token inválido"}`, http.StatusUnauthorized)
		return
	}
	p, err := repo.CreatePaciente(r.Context(), h.Pool, clienteID, nombre, mail, tel)
	if err != nil {
		log.Error().Err(err).Msg("CreatePaciente")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	h.invalidateListas(r.Context(), &clienteID)
	writeJSON(w, http.StatusCreated, toPacienteJSON(p))
}

// ListPacientes returns the caller's pacientes, each annotated with its open
// cita. The rendered view is cached briefly; any mutation invalidates it.
func (h *Handler) ListPacientes(w http.ResponseWriter, r *http.Request) {
	scope, ok := clienteScope(r)
	if !ok {
		http.Error(w, `{"error":"Token inválido"}`, http.StatusUnauthorized)
		return
	}
	cacheKey := "pacientes:all"
	if scope != nil {
		cacheKey = "pacientes:" + scope.String()
	}
	if h.Cache != nil {
		if b, err := h.Cache.Get(r.Context(), cacheKey); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "HIT")
			_, _ = w.Write(b)
			return
		}
	}

	var pacientes []repo.Paciente
	var abiertas []repo.Cita
	var err error
	if scope != nil {
		pacientes, err = repo.PacientesByCliente(r.Context(), h.Pool, *scope)
		if err == nil {
			abiertas, err = repo.CitasAbiertasByCliente(r.Context(), h.Pool, *scope)
		}
	} else {
		pacientes, err = repo.ListPacientes(r.Context(), h.Pool)
		if err == nil {
			var todas []repo.Cita
			todas, err = repo.ListCitas(r.Context(), h.Pool)
			for _, c := range todas {
				if c.Estado == repo.EstadoAbierto {
					abiertas = append(abiertas, c)
				}
			}
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("ListPacientes")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}

	abiertaPor := make(map[uuid.UUID]citaJSON, len(abiertas))
	for i := range abiertas {
		abiertaPor[abiertas[i].PacienteID] = toCitaJSON(&abiertas[i])
	}
	out := make([]pacienteConCita, 0, len(pacientes))
	for i := range pacientes {
		row := pacienteConCita{pacienteJSON: toPacienteJSON(&pacientes[i])}
		if c, ok := abiertaPor[pacientes[i].ID]; ok {
			c := c
			row.Cita = &c
		}
		out = append(out, row)
	}

	body, _ := json.Marshal(out)
	if h.Cache != nil {
		_ = h.Cache.Set(r.Context(), cacheKey, body, h.Cfg.CacheTTL)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// pacienteForCaller resolves {id} under the caller's scope. Ownership miss
// and nonexistence both come back as pgx.ErrNoRows.
func (h *Handler) pacienteForCaller(r *http.Request, id uuid.UUID) (*repo.Paciente, error) {
	scope, ok := clienteScope(r)
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if scope == nil {
		return repo.PacienteByID(r.Context(), h.Pool, id)
	}
	return repo.PacienteByIDAndCliente(r.Context(), h.Pool, id, *scope)
}

func (h *Handler) GetPaciente(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, `{"error":"Paciente no encontrado"}`, http.StatusNotFound)
		return
	}
	p, err := h.pacienteForCaller(r, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"Paciente no encontrado"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("GetPaciente")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toPacienteJSON(p))
}

func (h *Handler) UpdatePaciente(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, `{"error":"Paciente no encontrado"}`, http.StatusNotFound)
		return
	}
	var req PacienteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Solicitud inválida"}`, http.StatusBadRequest)
		return
	}
	nombre := strings.TrimSpace(req.Nombre)
	mail := strings.TrimSpace(req.Email)
	tel := strings.TrimSpace(req.Telefono)
	if nombre == "" || mail == "" || tel == "" {
		http.Error(w, `{"error":"Todos los campos son obligatorios"}`, http.StatusBadRequest)
		return
	}
	existing, err := h.pacienteForCaller(r, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"Paciente no encontrado"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("UpdatePaciente: lookup")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	p, err := repo.UpdatePaciente(r.Context(), h.Pool, id, existing.ClienteID, nombre, mail, tel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"Paciente no encontrado"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("UpdatePaciente")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	h.invalidateListas(r.Context(), &p.ClienteID)
	writeJSON(w, http.StatusOK, toPacienteJSON(p))
}

func (h *Handler) DeletePaciente(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, `{"error":"Paciente no encontrado"}`, http.StatusNotFound)
		return
	}
	existing, err := h.pacienteForCaller(r, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"Paciente no encontrado"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("DeletePaciente: lookup")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	if err := repo.DeletePaciente(r.Context(), h.Pool, id, existing.ClienteID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"Paciente no encontrado"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("DeletePaciente")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	h.invalidateListas(r.Context(), &existing.ClienteID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Paciente eliminado correctamente"})
}
