package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/AlanPillo/Backend-App/internal/repo"
)

type ClienteRequest struct {
	Nombre   string  `json:"nombre"`
	Password string  `json:"password"`
	Telefono *string `json:"telefono"`
}

// Cliente CRUD. Owner-only; the route table mounts these behind RequireOwner.

func (h *Handler) ListClientes(w http.ResponseWriter, r *http.Request) {
	clientes, err := repo.ListClientes(r.Context(), h.Pool)
	if err != nil {
		log.Error().Err(err).Msg("ListClientes")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	out := make([]clienteJSON, 0, len(clientes))
	for i := range clientes {
		out = append(out, toClienteJSON(&clientes[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateCliente(w http.ResponseWriter, r *http.Request) {
	var req ClienteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Solicitud inválida"}`, http.StatusBadRequest)
		return
	}
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" || req.Password == "" {
		http.Error(w, `{"error":"Todos los campos son obligatorios"}`, http.StatusBadRequest)
		return
	}
	hash, err := h.hashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("CreateCliente: hash")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	c, err := repo.CreateCliente(r.Context(), h.Pool, nombre, hash, req.Telefono)
	if err != nil {
		log.Error().Err(err).Msg("CreateCliente")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toClienteJSON(c))
}

func (h *Handler) GetCliente(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, `{"error":"Cliente no encontrado"}`, http.StatusNotFound)
		return
	}
	c, err := repo.ClienteByID(r.Context(), h.Pool, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"Cliente no encontrado"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("GetCliente")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toClienteJSON(c))
}

func (h *Handler) UpdateCliente(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, `{"error":"Cliente no encontrado"}`, http.StatusNotFound)
		return
	}
	var req ClienteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Solicitud inválida"}`, http.StatusBadRequest)
		return
	}
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		http.Error(w, `{"error":"Todos los campos son obligatorios"}`, http.StatusBadRequest)
		return
	}
	var hash *string
	if req.Password != "" {
		hv, err := h.hashPassword(req.Password)
		if err != nil {
			log.Error().Err(err).Msg("UpdateCliente: hash")
			http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
			return
		}
		hash = &hv
	}
	if err := repo.UpdateCliente(r.Context(), h.Pool, id, nombre, req.Telefono, hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"Cliente no encontrado"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("UpdateCliente")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cliente actualizado correctamente"})
}

func (h *Handler) DeleteCliente(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, `{"error":"Cliente no encontrado"}`, http.StatusNotFound)
		return
	}
	if err := repo.DeleteCliente(r.Context(), h.Pool, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"Cliente no encontrado"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("DeleteCliente")
		http.Error(w, `{"error":"Error interno en el servidor"}`, http.StatusInternalServerError)
		return
	}
	h.invalidateListas(r.Context(), nil)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cliente eliminado correctamente"})
}
