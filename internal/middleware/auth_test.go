package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AlanPillo/Backend-App/internal/auth"
)

var testSecret = []byte("secret-para-tests-de-32-caracteres!!")

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestRequireAuthMissingToken(t *testing.T) {
	h := RequireAuth(testSecret, okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/pacientes", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Token requerido") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	h := RequireAuth(testSecret, okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/pacientes", nil)
	req.Header.Set("Authorization", "Bearer no-es-un-jwt")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Token inválido") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	token, err := auth.BuildJWT(testSecret, "abc", auth.RoleCliente, -time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	h := RequireAuth(testSecret, okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/pacientes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthValidTokenPassesClaims(t *testing.T) {
	token, err := auth.BuildJWT(testSecret, "cliente-1", auth.RoleCliente, auth.TokenTTL)
	if err != nil {
		t.Fatal(err)
	}
	var gotID, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = auth.UserIDFrom(r.Context())
		gotRole = auth.RoleFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := RequireAuth(testSecret, next)
	req := httptest.NewRequest(http.MethodGet, "/api/pacientes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotID != "cliente-1" || gotRole != auth.RoleCliente {
		t.Fatalf("claims = %q/%q", gotID, gotRole)
	}
}

func TestRequireOwnerRejectsCliente(t *testing.T) {
	token, err := auth.BuildJWT(testSecret, "cliente-1", auth.RoleCliente, auth.TokenTTL)
	if err != nil {
		t.Fatal(err)
	}
	h := RequireAuth(testSecret, RequireOwner(okHandler()))
	req := httptest.NewRequest(http.MethodGet, "/api/clientes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Acceso denegado") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestRequireOwnerAllowsOwner(t *testing.T) {
	token, err := auth.BuildJWT(testSecret, "owner-1", auth.RoleOwner, auth.TokenTTL)
	if err != nil {
		t.Fatal(err)
	}
	h := RequireAuth(testSecret, RequireOwner(okHandler()))
	req := httptest.NewRequest(http.MethodGet, "/api/clientes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
