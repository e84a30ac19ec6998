package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/AlanPillo/Backend-App/internal/reminder"
	"github.com/AlanPillo/Backend-App/internal/repo"
)

// Owner views. Mounted behind RequireOwner.

type pacienteConHistorial struct {
	pacienteJSON
	Citas []citaJSON `json:"citas"`
}

// OwnerPacientes lists every paciente with its full cita history.
func (h *Handler) OwnerPacientes(w http.ResponseWriter, r *http.Request) {
	pacientes, err := repo.ListPacientes(r.Context(), h.Pool)
	if err != nil {
		log.Error().Err(err).Msg("OwnerPacientes")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	citas, err := repo.ListCitas(r.Context(), h.Pool)
	if err != nil {
		log.Error().Err(err).Msg("OwnerPacientes: citas")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	porPaciente := make(map[uuid.UUID][]citaJSON)
	for i := range citas {
		porPaciente[citas[i].PacienteID] = append(porPaciente[citas[i].PacienteID], toCitaJSON(&citas[i]))
	}
	out := make([]pacienteConHistorial, 0, len(pacientes))
	for i := range pacientes {
		row := pacienteConHistorial{
			pacienteJSON: toPacienteJSON(&pacientes[i]),
			Citas:        porPaciente[pacientes[i].ID],
		}
		if row.Citas == nil {
			row.Citas = []citaJSON{}
		}
		out = append(out, row)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) OwnerCitas(w http.ResponseWriter, r *http.Request) {
	citas, err := repo.ListCitas(r.Context(), h.Pool)
	if err != nil {
		log.Error().Err(err).Msg("OwnerCitas")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	out := make([]citaJSON, 0, len(citas))
	for i := range citas {
		out = append(out, toCitaJSON(&citas[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// TriggerRecordatorios runs the reminder sweep on demand with the configured
// look-ahead. Same semantics as the daily job.
func (h *Handler) TriggerRecordatorios(mailer reminder.MailSender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, err := time.LoadLocation(h.Cfg.ReminderTZ)
		if err != nil {
			loc = time.Local
		}
		date := reminder.TargetDate(time.Now(), h.Cfg.ReminderDaysAhead, loc)
		links := reminder.LinkConfig{ServicePhone: h.Cfg.WAServicePhone, CountryCode: h.Cfg.WACountryCode}
		sent, skipped := reminder.SendCitaReminders(r.Context(), h.Pool, date, mailer, links)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":  "Recordatorios procesados",
			"enviados": sent,
			"omitidos": skipped,
			"fecha":    date.Format("2006-01-02"),
		})
	}
}
