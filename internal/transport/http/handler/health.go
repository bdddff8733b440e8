package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HealthHandler handles health-check endpoints.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	if action == "ping" {
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
		return
	}
	writeError(w, http.StatusBadRequest, "unknown action")
}

// UnknownRPC answers calls to RPC names that are not registered.
func (h *HealthHandler) UnknownRPC(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, callErrorEnvelope{Error: callError{
		Status:  "NOT_FOUND",
		Message: "unknown function " + chi.URLParam(r, "name"),
	}})
}
