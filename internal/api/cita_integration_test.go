//go:build integration

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/AlanPillo/Backend-App/internal/auth"
	"github.com/AlanPillo/Backend-App/internal/config"
	"github.com/AlanPillo/Backend-App/internal/email"
	"github.com/AlanPillo/Backend-App/internal/middleware"
	"github.com/AlanPillo/Backend-App/internal/repo"
	"github.com/AlanPillo/Backend-App/internal/testutil"
)

func integrationSetup(t *testing.T) (*Handler, *mux.Router, *repo.Cliente, func(method, path, body, token string) *httptest.ResponseRecorder) {
	t.Helper()
	ctx := context.Background()
	pool, _ := testutil.OpenPool(ctx)
	if pool == nil {
		t.Skip("DATABASE_URL no configurada para tests de integración")
	}
	t.Cleanup(pool.Close)
	if err := testutil.MustMigrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := config.Load()
	h := &Handler{Pool: pool, Cfg: cfg}
	h.SetHashPassword(auth.HashPassword)

	r := mux.NewRouter()
	public := r.PathPrefix("/api").Subrouter()
	public.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuthMiddleware(cfg.JWTSecret))
	protected.HandleFunc("/pacientes", h.CreatePaciente).Methods(http.MethodPost)
	protected.HandleFunc("/citas", h.CreateCita).Methods(http.MethodPost)
	protected.HandleFunc("/citas", h.ListCitas).Methods(http.MethodGet)
	protected.HandleFunc("/citas/{id}/asistencia", h.MarcarAsistencia).Methods(http.MethodPut)
	protected.HandleFunc("/citas/historial/{paciente_id}", h.Historial).Methods(http.MethodGet)

	hash, err := auth.HashPassword("secreto123")
	if err != nil {
		t.Fatal(err)
	}
	nombre := fmt.Sprintf("it-cliente-%d", time.Now().UnixNano())
	cliente, err := repo.CreateCliente(ctx, pool, nombre, hash, nil)
	if err != nil {
		t.Fatalf("CreateCliente: %v", err)
	}
	t.Cleanup(func() { _ = repo.DeleteCliente(context.Background(), pool, cliente.ID) })

	do := func(method, path, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}
	return h, r, cliente, do
}

// Contraseña incorrecta y usuario inexistente responden exactamente igual.
func TestIntegration_LoginCredenciales(t *testing.T) {
	_, _, cliente, do := integrationSetup(t)

	cases := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"correctas", fmt.Sprintf(`{"nombre":%q,"password":"secreto123"}`, cliente.Nombre), http.StatusOK},
		{"password incorrecta", fmt.Sprintf(`{"nombre":%q,"password":"otra"}`, cliente.Nombre), http.StatusUnauthorized},
		{"usuario inexistente", `{"nombre":"no-existe-nadie-asi","password":"secreto123"}`, http.StatusUnauthorized},
	}
	bodies := map[string]string{}
	for _, tc := range cases {
		rr := do(http.MethodPost, "/api/login", tc.body, "")
		if rr.Code != tc.wantCode {
			t.Fatalf("%s: status = %d, want %d (%s)", tc.name, rr.Code, tc.wantCode, rr.Body.String())
		}
		bodies[tc.name] = rr.Body.String()
	}
	if bodies["password incorrecta"] != bodies["usuario inexistente"] {
		t.Fatalf("los dos fallos deben ser indistinguibles: %q vs %q",
			bodies["password incorrecta"], bodies["usuario inexistente"])
	}
	var ok struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	if err := json.Unmarshal([]byte(bodies["correctas"]), &ok); err != nil {
		t.Fatal(err)
	}
	if ok.Message != "Inicio de sesión exitoso" || ok.Token == "" {
		t.Fatalf("login ok inesperado: %+v", ok)
	}
}

// Ciclo completo contra una base real: alta de paciente, agendar con el
// correo caído, duplicado rechazado, asistencia cierra, historial ordenado,
// nueva cita posible.
func TestIntegration_CicloDeCita(t *testing.T) {
	h, _, cliente, do := integrationSetup(t)

	// El transporte de correo falla siempre; agendar no debe fallar por eso.
	mailCalls := 0
	h.SetSendCitaAgendada(func(to string, _ email.CitaData) error {
		mailCalls++
		return errors.New("smtp down")
	})

	token, err := auth.BuildJWT(h.Cfg.JWTSecret, cliente.ID.String(), auth.RoleCliente, auth.TokenTTL)
	if err != nil {
		t.Fatal(err)
	}

	rr := do(http.MethodPost, "/api/pacientes", `{"nombre":"Ana Test","email":"ana@test.local","telefono":"099111222"}`, token)
	if rr.Code != http.StatusCreated {
		t.Fatalf("crear paciente: %d %s", rr.Code, rr.Body.String())
	}
	var paciente struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &paciente); err != nil {
		t.Fatal(err)
	}

	agendar := func(diasAdelante int) *httptest.ResponseRecorder {
		fecha := time.Now().AddDate(0, 0, diasAdelante).Format("2006-01-02")
		body := fmt.Sprintf(`{"paciente_id":%q,"fecha":%q,"hora":"10:00"}`, paciente.ID, fecha)
		return do(http.MethodPost, "/api/citas", body, token)
	}
	cerrar := func(id string, asistio bool) {
		t.Helper()
		rr := do(http.MethodPut, "/api/citas/"+id+"/asistencia", fmt.Sprintf(`{"asistio":%t}`, asistio), token)
		if rr.Code != http.StatusOK {
			t.Fatalf("asistencia: %d %s", rr.Code, rr.Body.String())
		}
		var cerrada struct {
			Estado  string `json:"estado"`
			Asistio *bool  `json:"asistio"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &cerrada); err != nil {
			t.Fatal(err)
		}
		if cerrada.Estado != repo.EstadoCerrado || cerrada.Asistio == nil || *cerrada.Asistio != asistio {
			t.Fatalf("cierre inesperado: %+v", cerrada)
		}
	}

	rr = agendar(1)
	if rr.Code != http.StatusCreated {
		t.Fatalf("crear cita con correo caído: %d %s", rr.Code, rr.Body.String())
	}
	if mailCalls != 1 {
		t.Fatalf("el correo de cita agendada debe intentarse una vez, fue %d", mailCalls)
	}
	var cita1 struct {
		ID     string `json:"id"`
		Estado string `json:"estado"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &cita1); err != nil {
		t.Fatal(err)
	}
	if cita1.Estado != repo.EstadoAbierto {
		t.Fatalf("estado = %q, want abierto", cita1.Estado)
	}

	// Segunda cita abierta para el mismo paciente rechazada.
	if rr = agendar(3); rr.Code != http.StatusBadRequest {
		t.Fatalf("cita duplicada: %d %s", rr.Code, rr.Body.String())
	}

	cerrar(cita1.ID, true)

	// Cerrada la anterior, una cita con fecha más lejana vuelve a ser posible.
	rr = agendar(3)
	if rr.Code != http.StatusCreated {
		t.Fatalf("segunda cita: %d %s", rr.Code, rr.Body.String())
	}
	var cita2 struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &cita2); err != nil {
		t.Fatal(err)
	}
	cerrar(cita2.ID, false)

	// Historial: solo cerradas, la de fecha más reciente primero.
	rr = do(http.MethodGet, "/api/citas/historial/"+paciente.ID, "", token)
	if rr.Code != http.StatusOK {
		t.Fatalf("historial: %d %s", rr.Code, rr.Body.String())
	}
	var historial []struct {
		ID    string `json:"id"`
		Fecha string `json:"fecha"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &historial); err != nil {
		t.Fatal(err)
	}
	if len(historial) != 2 {
		t.Fatalf("historial = %+v", historial)
	}
	if historial[0].ID != cita2.ID || historial[1].ID != cita1.ID {
		t.Fatalf("orden del historial (fecha descendente): %+v", historial)
	}
	if historial[0].Fecha < historial[1].Fecha {
		t.Fatalf("fechas fuera de orden: %q antes de %q", historial[0].Fecha, historial[1].Fecha)
	}

	// Con ambas cerradas la lista por defecto queda vacía; ?todas=true las trae.
	rr = do(http.MethodGet, "/api/citas", "", token)
	var abiertas []struct{}
	if err := json.Unmarshal(rr.Body.Bytes(), &abiertas); err != nil {
		t.Fatal(err)
	}
	if len(abiertas) != 0 {
		t.Fatalf("citas abiertas = %d, want 0", len(abiertas))
	}
	rr = do(http.MethodGet, "/api/citas?todas=true", "", token)
	var todas []struct{}
	if err := json.Unmarshal(rr.Body.Bytes(), &todas); err != nil {
		t.Fatal(err)
	}
	if len(todas) != 2 {
		t.Fatalf("citas totales = %d, want 2", len(todas))
	}

	if rr = agendar(1); rr.Code != http.StatusCreated {
		t.Fatalf("tercera cita: %d %s", rr.Code, rr.Body.String())
	}
}
