package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/turo-backend/internal/domain"
	"github.com/turo-backend/internal/transport/http/middleware"
)

// MessageEnvelope is the generic plain-HTTP response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SuccessEnvelope is the result body shared by the acknowledgement RPCs.
type SuccessEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
}

// callRequest is the RPC request body: {"data": {...}}.
type callRequest struct {
	Data json.RawMessage `json:"data"`
}

type callResult struct {
	Result interface{} `json:"result"`
}

type callError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type callErrorEnvelope struct {
	Error callError `json:"error"`
}

var errBadPayload = errors.New("invalid request body")

var errAnonymous = fmt.Errorf("the function must be called while authenticated: %w", domain.ErrUnauthorized)

// requireCaller returns the authenticated caller, writing UNAUTHENTICATED and
// returning "" for anonymous requests. It runs before the body is read.
func requireCaller(w http.ResponseWriter, r *http.Request, rpc string) string {
	callerID := middleware.CallerID(r.Context())
	if callerID == "" {
		writeCallError(w, rpc, errAnonymous)
	}
	return callerID
}

// decodeCall unwraps the data member of an RPC body into v. A missing or null
// data member leaves v at its zero value.
func decodeCall(r *http.Request, v interface{}) error {
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadPayload
	}
	if len(req.Data) == 0 || string(req.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(req.Data, v); err != nil {
		return errBadPayload
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

func writeResult(w http.ResponseWriter, v interface{}) {
	writeJSON(w, http.StatusOK, callResult{Result: v})
}

var canonical = []struct {
	sentinel   error
	status     string
	httpStatus int
}{
	{domain.ErrBadRequest, "INVALID_ARGUMENT", http.StatusBadRequest},
	{domain.ErrUnauthorized, "UNAUTHENTICATED", http.StatusUnauthorized},
	{domain.ErrForbidden, "PERMISSION_DENIED", http.StatusForbidden},
	{domain.ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{domain.ErrExpired, "DEADLINE_EXCEEDED", http.StatusGatewayTimeout},
}

// writeCallError maps a service error onto its canonical RPC status.
// Errors wrapping no domain sentinel are logged and reported as INTERNAL.
func writeCallError(w http.ResponseWriter, rpc string, err error) {
	if errors.Is(err, errBadPayload) {
		writeJSON(w, http.StatusBadRequest, callErrorEnvelope{Error: callError{Status: "INVALID_ARGUMENT", Message: err.Error()}})
		return
	}
	for _, c := range canonical {
		if errors.Is(err, c.sentinel) {
			msg := strings.TrimSuffix(err.Error(), ": "+c.sentinel.Error())
			writeJSON(w, c.httpStatus, callErrorEnvelope{Error: callError{Status: c.status, Message: msg}})
			return
		}
	}
	slog.Error("rpc failed", "rpc", rpc, "err", err)
	writeJSON(w, http.StatusInternalServerError, callErrorEnvelope{Error: callError{Status: "INTERNAL", Message: "internal error"}})
}
