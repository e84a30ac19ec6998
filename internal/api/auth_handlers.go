package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/AlanPillo/Backend-App/internal/auth"
	"github.com/AlanPillo/Backend-App/internal/repo"
)

type LoginRequest struct {
	Nombre   string `json:"nombre"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Login autentica un cliente por nombre. La respuesta de error es la misma
// para usuario inexistente y contraseña incorrecta.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Solicitud inválida"}`, http.StatusBadRequest)
		return
	}
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" || req.Password == "" {
		http.Error(w, `{"error":"Todos los campos son obligatorios"}`, http.StatusBadRequest)
		return
	}
	cliente, err := repo.ClienteByNombre(r.Context(), h.Pool, nombre)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Error().Err(err).Msg("login: ClienteByNombre")
		}
		http.Error(w, `{"error":"Credenciales incorrectas"}`, http.StatusUnauthorized)
		return
	}
	if !auth.CheckPassword(cliente.PasswordHash, req.Password) {
		http.Error(w, `{"error":"Credenciales incorrectas"}`, http.StatusUnauthorized)
		return
	}
	token, err := auth.BuildJWT(h.Cfg.JWTSecret, cliente.ID.String(), auth.RoleCliente, auth.TokenTTL)
	if err != nil {
		log.Error().Err(err).Msg("login: BuildJWT")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	log.Info().Str("cliente", cliente.ID.String()).Msg("login ok")
	writeJSON(w, http.StatusOK, LoginResponse{Message: "Inicio de sesión exitoso", Token: token})
}

// LoginOwner autentica al administrador. Mismo contrato que Login.
func (h *Handler) LoginOwner(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Solicitud inválida"}`, http.StatusBadRequest)
		return
	}
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" || req.Password == "" {
		http.Error(w, `{"error":"Todos los campos son obligatorios"}`, http.StatusBadRequest)
		return
	}
	owner, err := repo.OwnerByNombre(r.Context(), h.Pool, nombre)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Error().Err(err).Msg("login owner: OwnerByNombre")
		}
		http.Error(w, `{"error":"Credenciales incorrectas"}`, http.StatusUnauthorized)
		return
	}
	if !auth.CheckPassword(owner.PasswordHash, req.Password) {
		http.Error(w, `{"error":"Credenciales incorrectas"}`, http.StatusUnauthorized)
		return
	}
	token, err := auth.BuildJWT(h.Cfg.JWTSecret, owner.ID.String(), auth.RoleOwner, auth.TokenTTL)
	if err != nil {
		log.Error().Err(err).Msg("login owner: BuildJWT")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	log.Info().Str("owner", owner.ID.String()).Msg("owner login ok")
	writeJSON(w, http.StatusOK, LoginResponse{Message: "Inicio de sesión exitoso", Token: token})
}
