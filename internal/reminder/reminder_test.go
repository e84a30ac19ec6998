package reminder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AlanPillo/Backend-App/internal/email"
	"github.com/AlanPillo/Backend-App/internal/repo"
)

type mockLister struct {
	rows []repo.CitaReminderRow
	err  error
}

func (m *mockLister) ListCitasForReminder(_ context.Context, _ *pgxpool.Pool, _ time.Time) ([]repo.CitaReminderRow, error) {
	return m.rows, m.err
}

type mockSender struct {
	sent   []email.CitaData
	tos    []string
	failOn string
}

func (m *mockSender) SendRecordatorio(to string, d email.CitaData) error {
	if to == m.failOn {
		return errors.New("smtp down")
	}
	m.tos = append(m.tos, to)
	m.sent = append(m.sent, d)
	return nil
}

func row(nombre, mail string, tel *string) repo.CitaReminderRow {
	return repo.CitaReminderRow{
		CitaID:          uuid.New(),
		Fecha:           time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC),
		Hora:            "14:30",
		PacienteNombre:  nombre,
		PacienteEmail:   mail,
		ClienteNombre:   "Consultorio Sur",
		ClienteTelefono: tel,
	}
}

func TestSendCitaRemindersSendsOnePerCita(t *testing.T) {
	tel := "099123456"
	lister := &mockLister{rows: []repo.CitaReminderRow{
		row("Ana", "ana@example.com", &tel),
		row("Luis", "luis@example.com", nil),
	}}
	sender := &mockSender{}
	links := LinkConfig{ServicePhone: "59891014583", CountryCode: "598"}

	sent, skipped := SendCitaRemindersWithLister(context.Background(), nil, time.Now(), sender, lister, links)
	if sent != 2 || skipped != 0 {
		t.Fatalf("sent=%d skipped=%d, want 2/0", sent, skipped)
	}
	if sender.tos[0] != "ana@example.com" || sender.tos[1] != "luis@example.com" {
		t.Fatalf("unexpected recipients %v", sender.tos)
	}
	// cliente phone normalized into the deep link
	if !strings.Contains(sender.sent[0].WALink, "wa.me/59899123456") {
		t.Errorf("first link should use cliente phone: %s", sender.sent[0].WALink)
	}
	// no phone on file falls back to the service number
	if !strings.Contains(sender.sent[1].WALink, "wa.me/59891014583") {
		t.Errorf("second link should use service phone: %s", sender.sent[1].WALink)
	}
	if sender.sent[0].FechaFormateada != "13 de marzo del 2026" {
		t.Errorf("fecha = %q", sender.sent[0].FechaFormateada)
	}
}

func TestSendCitaRemindersSkipsFailedRecipient(t *testing.T) {
	lister := &mockLister{rows: []repo.CitaReminderRow{
		row("Ana", "ana@example.com", nil),
		row("Luis", "broken@example.com", nil),
		row("Mia", "mia@example.com", nil),
	}}
	sender := &mockSender{failOn: "broken@example.com"}

	sent, skipped := SendCitaRemindersWithLister(context.Background(), nil, time.Now(), sender, lister, LinkConfig{ServicePhone: "59891014583"})
	if sent != 2 || skipped != 1 {
		t.Fatalf("sent=%d skipped=%d, want 2/1", sent, skipped)
	}
}

func TestSendCitaRemindersListerError(t *testing.T) {
	lister := &mockLister{err: errors.New("db down")}
	sender := &mockSender{}
	sent, skipped := SendCitaRemindersWithLister(context.Background(), nil, time.Now(), sender, lister, LinkConfig{})
	if sent != 0 || skipped != 0 {
		t.Fatalf("sent=%d skipped=%d, want 0/0", sent, skipped)
	}
	if len(sender.sent) != 0 {
		t.Fatal("nothing should be sent on lister error")
	}
}

func TestSendCitaRemindersNilSenderCountsSkipped(t *testing.T) {
	lister := &mockLister{rows: []repo.CitaReminderRow{row("Ana", "ana@example.com", nil)}}
	sent, skipped := SendCitaRemindersWithLister(context.Background(), nil, time.Now(), nil, lister, LinkConfig{})
	if sent != 0 || skipped != 1 {
		t.Fatalf("sent=%d skipped=%d, want 0/1", sent, skipped)
	}
}

func TestTargetDate(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 11, 23, 50, 0, 0, loc)
	got := TargetDate(now, 2, loc)
	want := time.Date(2026, 3, 13, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("TargetDate = %v, want %v", got, want)
	}
}

func TestNextDailyTick(t *testing.T) {
	loc := time.UTC
	before := time.Date(2026, 3, 11, 8, 0, 0, 0, loc)
	if got := NextDailyTick(before, 9, loc); !got.Equal(time.Date(2026, 3, 11, 9, 0, 0, 0, loc)) {
		t.Fatalf("before hour: %v", got)
	}
	after := time.Date(2026, 3, 11, 9, 0, 0, 0, loc)
	if got := NextDailyTick(after, 9, loc); !got.Equal(time.Date(2026, 3, 12, 9, 0, 0, 0, loc)) {
		t.Fatalf("at hour: %v", got)
	}
}

func TestSchedulerCancel(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	var mu sync.Mutex
	fired := false
	s.Schedule("cita-1", 20*time.Millisecond, func() {
		mu.Lock()
		fired = true
		mu.Unlock()
	})
	if !s.Cancel("cita-1") {
		t.Fatal("Cancel should report a pending task")
	}
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if fired {
		t.Fatal("cancelled task must not fire")
	}
	if s.Cancel("cita-1") {
		t.Fatal("second Cancel should report nothing pending")
	}
}

func TestSchedulerFires(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	done := make(chan struct{})
	s.Schedule("cita-2", 10*time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled task did not fire")
	}
	if s.Cancel("cita-2") {
		t.Fatal("fired task should no longer be pending")
	}
}
