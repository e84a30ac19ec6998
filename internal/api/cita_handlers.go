package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/AlanPillo/Backend-App/internal/email"
	"github.com/AlanPillo/Backend-App/internal/metrics"
	"github.com/AlanPillo/Backend-App/internal/repo"
	"github.com/AlanPillo/Backend-App/internal/whatsapp"
)

type CitaRequest struct {
	PacienteID string `json:"paciente_id"`
	Fecha      string `json:"fecha"` // YYYY-MM-DD
	Hora       string `json:"hora"`
	Notas      string `json:"notas"`
}

type boolFlagRequest struct {
	Confirmada *bool `json:"confirmada"`
	Asistio    *bool `json:"asistio"`
}

type deleteCitaRequest struct {
	Motivo string `json:"motivo"`
}

func (h *Handler) localDay() time.Time {
	loc, err := time.LoadLocation(h.Cfg.ReminderTZ)
	if err != nil {
		loc = time.Local
	}
	n := time.Now().In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// CreateCita books a cita for one of the caller's pacientes. The "Cita
// agendada" mail is awaited before responding, but a mail failure never
// fails the booking.
func (h *Handler) CreateCita(w http.ResponseWriter, r *http.Request) {
	var req CitaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Solicitud inválida"}`, http.StatusBadRequest)
		return
	}
	pacienteID, err := parseUUIDField(req.PacienteID)
	if err != nil || req.Fecha == "" || req.Hora == "" {
		http.Error(w, `{"error":"Todos los campos son obligatorios"}`, http.StatusBadRequest)
		return
	}
	fecha, err := time.Parse("2006-01-02", req.Fecha)
	if err != nil {
		http.Error(w, `{"error":"Fecha inválida"}`, http.StatusBadRequest)
		return
	}
	// Comparación solo de fecha: hoy no vale, mañana sí.
	if !fecha.After(h.localDay()) {
		http.Error(w, `{"error":"La cita debe ser agendada para un día posterior a hoy"}`, http.StatusBadRequest)
		return
	}

	paciente, err := h.pacienteForCaller(r, pacienteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"Paciente no encontrado"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("CreateCita: paciente lookup")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	if _, err := repo.CitaAbiertaByPaciente(r.Context(), h.Pool, paciente.ID); err == nil {
		http.Error(w, `{"error":"El paciente ya tiene una cita pendiente"}`, http.StatusBadRequest)
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		log.Error().Err(err).Msg("CreateCita: open check")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}

	cita, err := repo.CreateCita(r.Context(), h.Pool, paciente.ID, fecha, req.Hora, req.Notas, newConfirmToken())
	if err != nil {
		if errors.Is(err, repo.ErrCitaPendiente) {
			// Carrera con otra creación concurrente; el índice parcial la corta.
			http.Error(w, `{"error":"El paciente ya tiene una cita pendiente"}`, http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("CreateCita")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	metrics.CitasCreadas.Inc()
	h.invalidateListas(r.Context(), &paciente.ClienteID)

	cliente, cerr := repo.ClienteByID(r.Context(), h.Pool, paciente.ClienteID)
	if cerr != nil {
		log.Error().Err(cerr).Msg("CreateCita: cliente lookup")
	}
	fechaFmt := email.FormatearFecha(cita.Fecha)
	d := email.CitaData{
		PacienteNombre:  paciente.Nombre,
		FechaFormateada: fechaFmt,
		Hora:            cita.Hora,
		Motivo:          cita.Notas,
	}
	var clienteTel *string
	if cliente != nil {
		d.Profesional = cliente.Nombre
		clienteTel = cliente.Telefono
	}
	d.WALink = h.waLink(clienteTel, paciente.Nombre, fechaFmt, cita.Hora)
	if h.sendCitaAgendada != nil {
		if err := h.sendCitaAgendada(paciente.Email, d); err != nil {
			log.Error().Err(err).Str("email", paciente.Email).Msg("CreateCita: mail failed")
		}
	}

	if h.Cfg.TestMode && h.Sched != nil && h.sendRecordatorioPrueba != nil {
		to := paciente.Email
		dPrueba := d
		dPrueba.WALink = whatsapp.Link(h.Cfg.WAServicePhone, whatsapp.TestReminderMessage(paciente.Nombre, fechaFmt, cita.Hora))
		send := h.sendRecordatorioPrueba
		h.Sched.Schedule(cita.ID.String(), h.Cfg.TestModeDelay, func() {
			if err := send(to, dPrueba); err != nil {
				log.Error().Err(err).Str("email", to).Msg("test reminder failed")
			}
		})
	}

	writeJSON(w, http.StatusCreated, toCitaJSON(cita))
}

// ListCitas: clientes see their open citas, or every cita (cerradas
// included) with ?todas=true; el owner ve todas.
func (h *Handler) ListCitas(w http.ResponseWriter, r *http.Request) {
	scope, ok := clienteScope(r)
	if !ok {
		http.Error(w, `{"error":"Token inválido"}`, http.StatusUnauthorized)
		return
	}
	var citas []repo.Cita
	var err error
	if scope != nil {
		if r.URL.Query().Get("todas") == "true" {
			citas, err = repo.CitasByCliente(r.Context(), h.Pool, *scope)
		} else {
			citas, err = repo.CitasAbiertasByCliente(r.Context(), h.Pool, *scope)
		}
	} else {
		citas, err = repo.ListCitas(r.Context(), h.Pool)
	}
	if err != nil {
		log.Error().Err(err).Msg("ListCitas")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	out := make([]citaJSON, 0, len(citas))
	for i := range citas {
		out = append(out, toCitaJSON(&citas[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// ConfirmarCita sets the confirmation flag and closes the cita.
func (h *Handler) ConfirmarCita(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, `{"error":"Cita no encontrada"}`, http.StatusNotFound)
		return
	}
	var req boolFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Confirmada == nil {
		http.Error(w, `{"error":"Solicitud inválida"}`, http.StatusBadRequest)
		return
	}
	scope, ok := clienteScope(r)
	if !ok {
		http.Error(w, `{"error":"Token inválido"}`, http.StatusUnauthorized)
		return
	}
	cita, err := repo.ConfirmarCita(r.Context(), h.Pool, id, scope, *req.Confirmada)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"Cita no encontrada"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("ConfirmarCita")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	h.invalidateListas(r.Context(), nil)
	writeJSON(w, http.StatusOK, toCitaJSON(cita))
}

// MarcarAsistencia sets attendance and closes the cita. Scoped to the
// caller's ownership of the underlying paciente.
func (h *Handler) MarcarAsistencia(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, `{"error":"Cita no encontrada"}`, http.StatusNotFound)
		return
	}
	var req boolFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Asistio == nil {
		http.Error(w, `{"error":"Solicitud inválida"}`, http.StatusBadRequest)
		return
	}
	scope, ok := clienteScope(r)
	if !ok {
		http.Error(w, `{"error":"Token inválido"}`, http.StatusUnauthorized)
		return
	}
	cita, err := repo.MarcarAsistencia(r.Context(), h.Pool, id, scope, *req.Asistio)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"Cita no encontrada"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("MarcarAsistencia")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	h.invalidateListas(r.Context(), nil)
	writeJSON(w, http.StatusOK, toCitaJSON(cita))
}

// DeleteCita cancels an open cita: hard delete, cancellation mail with the
// optional motivo, and any pending test reminder for it is dropped.
func (h *Handler) DeleteCita(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, `{"error":"Cita no encontrada"}`, http.StatusNotFound)
		return
	}
	var req deleteCitaRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	scope, ok := clienteScope(r)
	if !ok {
		http.Error(w, `{"error":"Token inválido"}`, http.StatusUnauthorized)
		return
	}
	detail, err := repo.CitaDetailByID(r.Context(), h.Pool, id, scope)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"Cita no encontrada"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("DeleteCita: lookup")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	if detail.Estado != repo.EstadoAbierto {
		http.Error(w, `{"error":"Solo se pueden cancelar citas abiertas"}`, http.StatusBadRequest)
		return
	}
	if err := repo.DeleteCitaAbierta(r.Context(), h.Pool, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"Cita no encontrada"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("DeleteCita")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	if h.Sched != nil {
		h.Sched.Cancel(id.String())
	}
	h.invalidateListas(r.Context(), &detail.ClienteID)

	motivo := req.Motivo
	if motivo == "" {
		motivo = "Sin motivo especificado"
	}
	fechaFmt := email.FormatearFecha(detail.Fecha)
	d := email.CitaData{
		PacienteNombre:  detail.PacienteNombre,
		FechaFormateada: fechaFmt,
		Hora:            detail.Hora,
		Motivo:          motivo,
		Profesional:     detail.ClienteNombre,
	}
	d.WALink = h.waLink(detail.ClienteTelefono, detail.PacienteNombre, fechaFmt, detail.Hora)
	if h.sendCitaCancelada != nil {
		go func() {
			if err := h.sendCitaCancelada(detail.PacienteEmail, d); err != nil {
				log.Error().Err(err).Str("email", detail.PacienteEmail).Msg("DeleteCita: mail failed")
			}
		}()
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cita cancelada correctamente"})
}

// Historial returns the closed citas of a paciente, most recent first.
func (h *Handler) Historial(w http.ResponseWriter, r *http.Request) {
	pacienteID, ok := pathID(r, "paciente_id")
	if !ok {
		http.Error(w, `{"error":"Paciente no encontrado"}`, http.StatusNotFound)
		return
	}
	paciente, err := h.pacienteForCaller(r, pacienteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"Paciente no encontrado"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("Historial: paciente lookup")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	citas, err := repo.HistorialByPaciente(r.Context(), h.Pool, paciente.ID)
	if err != nil {
		log.Error().Err(err).Msg("Historial")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	out := make([]citaJSON, 0, len(citas))
	for i := range citas {
		out = append(out, toCitaJSON(&citas[i]))
	}
	writeJSON(w, http.StatusOK, out)
}
