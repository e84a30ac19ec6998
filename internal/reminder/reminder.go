package reminder

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/AlanPillo/Backend-App/internal/email"
	"github.com/AlanPillo/Backend-App/internal/metrics"
	"github.com/AlanPillo/Backend-App/internal/repo"
	"github.com/AlanPillo/Backend-App/internal/whatsapp"
)

// MailSender delivers one reminder mail. Satisfied by *email.Config.
type MailSender interface {
	SendRecordatorio(to string, d email.CitaData) error
}

// CitaLister returns the open citas on a given date. Used in tests with a
// mock; in production pass nil to use repo.
type CitaLister interface {
	ListCitasForReminder(ctx context.Context, pool *pgxpool.Pool, date time.Time) ([]repo.CitaReminderRow, error)
}

// Deep-link phone selection: the owning cliente's phone, normalized, or the
// fixed service number when the cliente has none on file.
type LinkConfig struct {
	ServicePhone string
	CountryCode  string
}

func (lc LinkConfig) PhoneFor(clienteTelefono *string) string {
	if clienteTelefono != nil {
		if p := whatsapp.NormalizePhone(*clienteTelefono, lc.CountryCode); p != "" {
			return p
		}
	}
	return lc.ServicePhone
}

// SendCitaReminders loads the open citas for the given date (two days out in
// practice) and mails one reminder per cita. Failures per recipient are
// logged and do not stop the rest; running the sweep twice re-sends.
func SendCitaReminders(ctx context.Context, pool *pgxpool.Pool, date time.Time, sender MailSender, links LinkConfig) (sent int, skipped int) {
	return SendCitaRemindersWithLister(ctx, pool, date, sender, nil, links)
}

// SendCitaRemindersWithLister is like SendCitaReminders but accepts an
// optional lister for tests. If lister is nil, repo is used (and pool must be
// non-nil).
func SendCitaRemindersWithLister(ctx context.Context, pool *pgxpool.Pool, date time.Time, sender MailSender, lister CitaLister, links LinkConfig) (sent int, skipped int) {
	if pool == nil && lister == nil {
		log.Warn().Msg("[reminder] pool is nil and no lister, skipping")
		return 0, 0
	}
	var rows []repo.CitaReminderRow
	var err error
	if lister != nil {
		rows, err = lister.ListCitasForReminder(ctx, pool, date)
	} else {
		rows, err = repo.ListCitasForReminder(ctx, pool, date)
	}
	if err != nil {
		log.Error().Err(err).Msg("[reminder] ListCitasForReminder")
		return 0, 0
	}
	if sender == nil {
		log.Warn().Int("rows", len(rows)).Msg("[reminder] mail not configured, would send reminders")
		return 0, len(rows)
	}
	for _, r := range rows {
		fechaFmt := email.FormatearFecha(r.Fecha)
		phone := links.PhoneFor(r.ClienteTelefono)
		waLink := whatsapp.Link(phone, whatsapp.CancelMessage(r.PacienteNombre, fechaFmt, r.Hora))
		d := email.CitaData{
			PacienteNombre:  r.PacienteNombre,
			FechaFormateada: fechaFmt,
			Hora:            r.Hora,
			WALink:          waLink,
			Profesional:     r.ClienteNombre,
		}
		if err := sender.SendRecordatorio(r.PacienteEmail, d); err != nil {
			log.Error().Err(err).Str("cita", r.CitaID.String()).Str("email", r.PacienteEmail).Msg("[reminder] send failed")
			skipped++
			continue
		}
		sent++
		metrics.RecordatoriosEnviados.Inc()
		log.Info().Str("cita", r.CitaID.String()).Str("email", r.PacienteEmail).Msg("[reminder] sent")
	}
	return sent, skipped
}

// TargetDate computes the sweep's calendar date: midnight in loc, daysAhead
// days from now. Calendar arithmetic, not exact hours.
func TargetDate(now time.Time, daysAhead int, loc *time.Location) time.Time {
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, daysAhead)
}
